package jsonbench

import (
	"context"
	"math"
	"time"
)

// Timed measures the wall-clock time of exactly one operation
func Timed(ctx context.Context, op func(ctx context.Context) error) (time.Duration, error) {
	start := time.Now()
	err := op(ctx)
	return time.Since(start), err
}

// Mean returns the arithmetic mean of samples in milliseconds.
// An empty slice returns NaN together with ErrNoSamples.
func Mean(samples []time.Duration) (float64, error) {
	if len(samples) == 0 {
		return math.NaN(), ErrNoSamples
	}
	var sum float64
	for _, d := range samples {
		sum += Milliseconds(d)
	}
	return sum / float64(len(samples)), nil
}

// Milliseconds converts d to fractional milliseconds
func Milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
