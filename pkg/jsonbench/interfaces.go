package jsonbench

import (
	"context"
	"fmt"
)

// Representation identifies how a document is stored by a backend
type Representation int

const (
	// RepresentationText stores the document as unparsed text (PostgreSQL json)
	RepresentationText Representation = iota
	// RepresentationIndexed stores the document parsed and indexed (PostgreSQL jsonb)
	RepresentationIndexed
)

// Representations lists every representation in reporting order
var Representations = []Representation{RepresentationText, RepresentationIndexed}

func (r Representation) String() string {
	switch r {
	case RepresentationText:
		return "json"
	case RepresentationIndexed:
		return "jsonb"
	default:
		return "unknown"
	}
}

// ParseRepresentation maps a representation name back to its value
func ParseRepresentation(s string) (Representation, error) {
	switch s {
	case "json":
		return RepresentationText, nil
	case "jsonb":
		return RepresentationIndexed, nil
	default:
		return RepresentationText, fmt.Errorf("invalid representation: %s", s)
	}
}

// Phase is one of the four benchmark operation categories
type Phase int

const (
	// PhaseInsert stores every payload InsertLoopCount times in each representation
	PhaseInsert Phase = iota
	// PhaseFullRead fetches whole documents by random identifier
	PhaseFullRead
	// PhasePartialWrite sets one random top-level field to the sentinel in place
	PhasePartialWrite
	// PhasePartialRead extracts one random top-level field
	PhasePartialRead
)

// Phases is the order a run executes phases in
var Phases = []Phase{PhaseInsert, PhaseFullRead, PhasePartialWrite, PhasePartialRead}

func (p Phase) String() string {
	switch p {
	case PhaseInsert:
		return "insert"
	case PhaseFullRead:
		return "full-read"
	case PhasePartialWrite:
		return "partial-write"
	case PhasePartialRead:
		return "partial-read"
	default:
		return "unknown"
	}
}

// ParsePhase maps a phase name back to its value
func ParsePhase(s string) (Phase, error) {
	for _, p := range Phases {
		if p.String() == s {
			return p, nil
		}
	}
	return PhaseInsert, fmt.Errorf("invalid phase: %s", s)
}

// Payload is a fixture document held in memory for the lifetime of a run.
// Data is never modified after loading.
type Payload struct {
	Name string
	Data []byte
}

// Backend is the capability set a storage engine must provide to be benchmarked.
// Identifiers are the storage-assigned synthetic keys, starting at 1.
type Backend interface {
	// Name identifies the backend in logs and reports
	Name() string

	// ProvisionSchema resets the backend namespace and creates one table per representation
	ProvisionSchema(ctx context.Context) error

	// Insert stores one document under the given logical key and returns the
	// identifier the storage assigned to it
	Insert(ctx context.Context, rep Representation, key string, value []byte) (int64, error)

	// ReadFull fetches the complete stored document by identifier
	ReadFull(ctx context.Context, rep Representation, id int64) ([]byte, error)

	// ReadField extracts a single top-level field by key
	ReadField(ctx context.Context, rep Representation, id int64, field string) ([]byte, error)

	// WriteField sets a single top-level field in place. Backends return an
	// *UnsupportedError for representations without in-place mutation.
	WriteField(ctx context.Context, rep Representation, id int64, field string, value []byte) error

	// Supports reports whether rep can serve phase
	Supports(rep Representation, phase Phase) bool
}
