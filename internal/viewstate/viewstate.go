// Package viewstate models the load lifecycle a page renders from.
package viewstate

// Phase is the position in the Idle → Loading → Success | Error lifecycle.
type Phase int

const (
	Idle Phase = iota
	Loading
	Success
	Error
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// State carries the data or error message for one page load.
type State[T any] struct {
	Phase   Phase
	Data    T
	Message string
}

// Pending returns a state in the Loading phase.
func Pending[T any]() State[T] {
	return State[T]{Phase: Loading}
}

// Succeeded returns a state holding v.
func Succeeded[T any](v T) State[T] {
	return State[T]{Phase: Success, Data: v}
}

// Failed returns a state holding msg.
func Failed[T any](msg string) State[T] {
	return State[T]{Phase: Error, Message: msg}
}

func (s State[T]) IsIdle() bool    { return s.Phase == Idle }
func (s State[T]) IsLoading() bool { return s.Phase == Loading }
func (s State[T]) IsSuccess() bool { return s.Phase == Success }
func (s State[T]) IsError() bool   { return s.Phase == Error }
