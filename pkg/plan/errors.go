package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstream matches every failure that surfaces from iteration
	ErrUpstream = errors.New("upstream failure")

	// ErrInvalidPlan is returned by Analyze and Compile for malformed plans
	ErrInvalidPlan = errors.New("invalid plan")
)

// UpstreamError is the only error an operator reports from iteration. The
// operator that first observes a raw failure wraps it; operators further
// downstream pass it on unchanged.
type UpstreamError struct {
	// Op names the operator that observed the failure
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrUpstream, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// upstreamFailure wraps err for op unless it already is an UpstreamError
func upstreamFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
