// Package gunnserr defines the error taxonomy the network solver core uses
// to distinguish fatal configuration failures from recoverable numerical
// ones, per the propagation policy in the core's error handling design.
package gunnserr

import "fmt"

// InitError reports a configuration or input value that violates a
// documented domain constraint. It is fatal: the network is left
// uninitialized and the error propagates out of the top-level call.
type InitError struct {
	Object string // link or node name
	Rule   string // the constraint that was violated
	Value  any    // the offending value, if any
}

func (e *InitError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: initialization invalid: %s (value=%v)", e.Object, e.Rule, e.Value)
	}
	return fmt.Sprintf("%s: initialization invalid: %s", e.Object, e.Rule)
}

func NewInitError(object, rule string, value any) *InitError {
	return &InitError{Object: object, Rule: rule, Value: value}
}

// BoundsError reports a runtime argument outside its legal range, e.g. a
// trace-compound index or a non-physical temperature. It is rethrown to the
// caller; the core never silently clamps these.
type BoundsError struct {
	Object string
	Rule   string
	Value  any
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s: bounds invalid: %s (value=%v)", e.Object, e.Rule, e.Value)
}

func NewBoundsError(object, rule string, value any) *BoundsError {
	return &BoundsError{Object: object, Rule: rule, Value: value}
}

// NumericError reports a numerical failure: division-by-zero protection
// triggered, a root finder that did not converge, or a state equation that
// produced an inconsistent result. Recovered is true when the caller
// substituted a safe fallback value and the simulation may continue with
// only a warning; false means the caller could not recover and the caller
// should abort the step.
type NumericError struct {
	Object    string
	Rule      string
	Recovered bool
}

func (e *NumericError) Error() string {
	status := "recovered"
	if !e.Recovered {
		status = "unrecovered"
	}
	return fmt.Sprintf("%s: numerical error: %s (%s)", e.Object, e.Rule, status)
}

func NewNumericError(object, rule string, recovered bool) *NumericError {
	return &NumericError{Object: object, Rule: rule, Recovered: recovered}
}

// CausalityError reports the flow orchestrator's hard failure: the
// transport/integrate readiness loop could not terminate even after
// cycle-breaking. This indicates a framework bug rather than a bad network
// configuration, and is rare.
type CausalityError struct {
	Detail string
}

func (e *CausalityError) Error() string {
	return fmt.Sprintf("causality stall: %s", e.Detail)
}

func NewCausalityError(detail string) *CausalityError {
	return &CausalityError{Detail: detail}
}
