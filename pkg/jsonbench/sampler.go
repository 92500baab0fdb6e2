package jsonbench

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"
)

// Sampler draws identifiers and field names for the read/write phases.
// It is not safe for concurrent use; a run only ever drives it from one goroutine.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler. A zero seed is replaced by the current time.
func NewSampler(seed int64) *Sampler {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// RandomInRange returns a uniformly distributed integer in [min, max], both inclusive
func (s *Sampler) RandomInRange(min, max int64) (int64, error) {
	if min > max {
		return 0, &ValidationError{
			BenchError: BenchError{
				Op:  "random in range",
				Err: fmt.Errorf("min %d is greater than max %d", min, max),
			},
			Field: "range",
			Value: fmt.Sprintf("[%d, %d]", min, max),
		}
	}
	span := uint64(max - min)
	if span == math.MaxUint64 {
		return int64(s.rng.Uint64()), nil
	}
	return min + int64(s.uint64n(span+1)), nil
}

// uint64n returns a uniform value in [0, n) by rejecting the biased low end
// of the generator's output
func (s *Sampler) uint64n(n uint64) uint64 {
	if n&(n-1) == 0 {
		return s.rng.Uint64() & (n - 1)
	}
	threshold := -n % n
	for {
		if v := s.rng.Uint64(); v >= threshold {
			return v % n
		}
	}
}

// RandomFieldName returns one top-level field name of doc, drawn uniformly.
// Documents that are not objects, or objects without fields, yield an *EmptyDocumentError.
func (s *Sampler) RandomFieldName(doc []byte) (string, error) {
	fields, err := TopLevelFields(doc)
	if err != nil {
		return "", err
	}
	return fields[s.rng.Intn(len(fields))], nil
}

// TopLevelFields decodes doc and returns its top-level keys in sorted order
func TopLevelFields(doc []byte) ([]string, error) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(doc, &object); err != nil {
		return nil, &EmptyDocumentError{
			BenchError: BenchError{Op: "select field", Err: fmt.Errorf("document is not an object: %w", err)},
		}
	}
	if len(object) == 0 {
		return nil, &EmptyDocumentError{
			BenchError: BenchError{Op: "select field", Err: fmt.Errorf("document has no top-level fields")},
		}
	}

	fields := make([]string, 0, len(object))
	for k := range object {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields, nil
}

func isJSON(data []byte) bool {
	return json.Valid(data)
}
