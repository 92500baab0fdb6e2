package jsonbench

import (
	"errors"
	"fmt"
)

// ErrNoSamples is returned when a mean is requested over an empty series
var ErrNoSamples = errors.New("no samples recorded")

type (

	// BenchError represents a base error type for benchmark operations
	BenchError struct {
		Op  string // Operation that failed
		Err error  // The underlying error
	}

	// ValidationError represents an invalid configuration or argument
	ValidationError struct {
		BenchError
		Field string // The field that failed validation
		Value string // The invalid value
	}

	// LoadError represents a failure to read the fixture directory
	LoadError struct {
		BenchError
		Dir string
	}

	// SchemaError represents a failure while creating the tables under test
	SchemaError struct {
		BenchError
		Statement string
	}

	// OperationError represents a failed storage operation inside a phase
	OperationError struct {
		BenchError
		Phase          Phase
		Representation Representation
		ID             int64 // Synthetic identifier, 0 for inserts
	}

	// EmptyDocumentError represents a document with no top-level fields to sample from
	EmptyDocumentError struct {
		BenchError
	}

	// UnsupportedError represents an operation a representation cannot serve
	UnsupportedError struct {
		BenchError
		Phase          Phase
		Representation Representation
	}

	// PreconditionError represents a phase started before its required state exists
	PreconditionError struct {
		BenchError
		Phase Phase
	}
)

// Error implements the error interface
func (e BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op
}

// Unwrap returns the underlying error
func (e BenchError) Unwrap() error {
	return e.Err
}

// =============================================================================
// Error Detection Helpers
// =============================================================================

// IsValidationError checks if the error is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsLoadError checks if the error is a LoadError
func IsLoadError(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr)
}

// IsSchemaError checks if the error is a SchemaError
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}

// IsOperationError checks if the error is an OperationError
func IsOperationError(err error) bool {
	var opErr *OperationError
	return errors.As(err, &opErr)
}

// IsEmptyDocumentError checks if the error is an EmptyDocumentError
func IsEmptyDocumentError(err error) bool {
	var emptyErr *EmptyDocumentError
	return errors.As(err, &emptyErr)
}

// IsUnsupportedError checks if the error is an UnsupportedError
func IsUnsupportedError(err error) bool {
	var unsupportedErr *UnsupportedError
	return errors.As(err, &unsupportedErr)
}

// IsPreconditionError checks if the error is a PreconditionError
func IsPreconditionError(err error) bool {
	var preconditionErr *PreconditionError
	return errors.As(err, &preconditionErr)
}

// =============================================================================
// Error Extraction Helpers
// =============================================================================

// GetValidationError extracts a ValidationError from the error chain
func GetValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}
	return nil, false
}

// GetOperationError extracts an OperationError from the error chain
func GetOperationError(err error) (*OperationError, bool) {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr, true
	}
	return nil, false
}

// GetSchemaError extracts a SchemaError from the error chain
func GetSchemaError(err error) (*SchemaError, bool) {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr, true
	}
	return nil, false
}

// GetPreconditionError extracts a PreconditionError from the error chain
func GetPreconditionError(err error) (*PreconditionError, bool) {
	var preconditionErr *PreconditionError
	if errors.As(err, &preconditionErr) {
		return preconditionErr, true
	}
	return nil, false
}

// =============================================================================
// Constructors
// =============================================================================

func newOperationError(phase Phase, rep Representation, id int64, err error) *OperationError {
	return &OperationError{
		BenchError: BenchError{
			Op:  fmt.Sprintf("%s %s", phase, rep),
			Err: err,
		},
		Phase:          phase,
		Representation: rep,
		ID:             id,
	}
}

// NewUnsupportedError reports that rep has no implementation for phase
func NewUnsupportedError(op string, rep Representation, phase Phase) *UnsupportedError {
	return &UnsupportedError{
		BenchError: BenchError{
			Op:  op,
			Err: fmt.Errorf("%s does not support %s", rep, phase),
		},
		Phase:          phase,
		Representation: rep,
	}
}

// NewSchemaError wraps a failed DDL statement
func NewSchemaError(statement string, err error) *SchemaError {
	return &SchemaError{
		BenchError: BenchError{
			Op:  "provision schema",
			Err: err,
		},
		Statement: statement,
	}
}
