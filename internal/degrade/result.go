// Package degrade carries the outcome of a collaborator call that is allowed
// to fail softly: the value to use, and whether it is a fallback.
package degrade

import (
	"context"
	"errors"
)

type Reason string

const (
	ReasonNone      Reason = ""
	ReasonTimeout   Reason = "timeout"
	ReasonUpstream  Reason = "upstream_error"
	ReasonMalformed Reason = "malformed_response"
	ReasonEmpty     Reason = "empty_input"
)

type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   Reason
	Err      error
}

func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Fallback[T any](v T, reason Reason, err error) Result[T] {
	return Result[T]{Value: v, Degraded: true, Reason: reason, Err: err}
}

// FromError wraps a failed call, classifying err to pick the reason.
func FromError[T any](fallback T, err error) Result[T] {
	return Fallback(fallback, Classify(err), err)
}

func Classify(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	default:
		return ReasonUpstream
	}
}

// Count returns how many results in rs are degraded.
func Count[T any](rs []Result[T]) int {
	n := 0
	for _, r := range rs {
		if r.Degraded {
			n++
		}
	}
	return n
}
