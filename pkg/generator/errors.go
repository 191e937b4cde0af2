package generator

import "fmt"

// GenerationError wraps any failure encountered while driving one design
// through its lifecycle. It always chains the original cause; no retry is
// attempted at this layer.
type GenerationError struct {
	// DesignID identifies the design that failed.
	DesignID string

	// Stage is the lifecycle stage the design had reached when the
	// failure occurred.
	Stage Stage

	// Err is the underlying cause.
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed for design %s at stage %s: %v", e.DesignID, e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
