package jsonbench

import (
	"fmt"
	"strconv"
)

const (
	DefaultFixtureExtension    = ".json"
	DefaultSentinel            = `"jsonbench"`
	DefaultMaxSamplingAttempts = 16
)

// Config contains the run parameters. It is fixed once a Run is built.
type Config struct {
	DataDir             string `json:"data_dir"`
	FixtureExtension    string `json:"fixture_extension"`
	InsertLoopCount     int    `json:"insert_loop_count"`     // Passes over the payload set during insert
	IterationCount      int    `json:"iteration_count"`       // Timed iterations per read/write phase
	Sentinel            string `json:"sentinel"`              // JSON literal written by partial-write
	Seed                int64  `json:"seed"`                  // 0 seeds from the clock
	MaxSamplingAttempts int    `json:"max_sampling_attempts"` // Redraws allowed when a document has no fields
	ContinueOnError     bool   `json:"continue_on_error"`     // Count failures instead of aborting the run
}

// DefaultConfig returns a config with every optional field filled in
func DefaultConfig() Config {
	return Config{
		FixtureExtension:    DefaultFixtureExtension,
		InsertLoopCount:     10,
		IterationCount:      100,
		Sentinel:            DefaultSentinel,
		MaxSamplingAttempts: DefaultMaxSamplingAttempts,
	}
}

// withDefaults fills zero-valued optional fields
func (c Config) withDefaults() Config {
	if c.FixtureExtension == "" {
		c.FixtureExtension = DefaultFixtureExtension
	}
	if c.Sentinel == "" {
		c.Sentinel = DefaultSentinel
	}
	if c.MaxSamplingAttempts == 0 {
		c.MaxSamplingAttempts = DefaultMaxSamplingAttempts
	}
	return c
}

// Validate rejects counts the benchmark cannot run with
func (c Config) Validate() error {
	if c.InsertLoopCount <= 0 {
		return newValidationError("insert_loop_count", strconv.Itoa(c.InsertLoopCount), "must be positive")
	}
	if c.IterationCount <= 0 {
		return newValidationError("iteration_count", strconv.Itoa(c.IterationCount), "must be positive")
	}
	if c.MaxSamplingAttempts < 0 {
		return newValidationError("max_sampling_attempts", strconv.Itoa(c.MaxSamplingAttempts), "must not be negative")
	}
	if c.Sentinel != "" && !isJSON([]byte(c.Sentinel)) {
		return newValidationError("sentinel", c.Sentinel, "must be a JSON literal")
	}
	return nil
}

func newValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{
		BenchError: BenchError{
			Op:  "validate config",
			Err: fmt.Errorf("%s %s", field, reason),
		},
		Field: field,
		Value: value,
	}
}
