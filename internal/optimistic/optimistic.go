// Package optimistic models a locally applied change that is waiting for, or
// has received, the server's verdict. The server always wins on conflict: a
// settled value is dropped as soon as an authoritative read newer than the
// settlement arrives.
package optimistic

import "time"

type State int

const (
	Pending State = iota + 1
	Committed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case Failed:
		return "failed"
	}
	return "none"
}

type Value[T any] struct {
	State     State
	Value     T
	Err       error
	StartedAt time.Time
	SettledAt time.Time
}

func Start[T any](v T, at time.Time) Value[T] {
	return Value[T]{State: Pending, Value: v, StartedAt: at}
}

func (v Value[T]) Commit(at time.Time) Value[T] {
	v.State = Committed
	v.Err = nil
	v.SettledAt = at
	return v
}

func (v Value[T]) Fail(err error, at time.Time) Value[T] {
	v.State = Failed
	v.Err = err
	v.SettledAt = at
	return v
}

func (v Value[T]) Active() bool {
	return v.State != 0
}

// SupersededBy reports whether an authoritative read fetched at readAt already
// reflects this change, so the local value must give way to the server's.
func (v Value[T]) SupersededBy(readAt time.Time) bool {
	if v.State == Committed || v.State == Failed {
		return !readAt.Before(v.SettledAt)
	}
	return false
}
