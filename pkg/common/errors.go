package common

import (
	"errors"
	"fmt"
)

var (
	// ErrIngestion is returned when the annotation service could not be
	// reached, answered with a non-success status or sent an undecodable body.
	ErrIngestion = errors.New("ingestion failed")

	// ErrDataIntegrity marks a payload that is well-formed but internally
	// inconsistent. Every IntegrityError matches it with errors.Is.
	ErrDataIntegrity = errors.New("data integrity violation")

	ErrMissingHead    = errors.New("head token not found")
	ErrSpanNotFound   = errors.New("span not found")
	ErrUnknownLabel   = errors.New("unknown entity label")
	ErrEntityNotFound = errors.New("entity not found")
)

// Pipeline phases reported by IntegrityError.
const (
	PhaseVertices = "vertices"
	PhaseEdges    = "edges"
	PhaseEntities = "entities"
)

// IntegrityError reports the phase and the offending record of a payload
// that could not be turned into a graph or an entity collection.
type IntegrityError struct {
	Phase  string
	Record string
	Err    error
}

// NewIntegrityError builds an IntegrityError for the given phase. The record
// is formatted with fmt.Sprintf.
func NewIntegrityError(phase string, err error, format string, args ...any) *IntegrityError {
	return &IntegrityError{
		Phase:  phase,
		Record: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s phase: %v (%s)", ErrDataIntegrity, e.Phase, e.Err, e.Record)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func (e *IntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}
