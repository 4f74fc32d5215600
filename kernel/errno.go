package kernel

import "fmt"

// Errno is the result of a failed system call.
type Errno uint8

const (
	_ Errno = iota
	// ErrNotFound: no live thread or timer is bound to the id.
	ErrNotFound
	// ErrPermission: the resource belongs to another thread.
	ErrPermission
	// ErrWouldBlock: a non-blocking call found no immediate match.
	ErrWouldBlock
	// ErrInterrupted: a blocking call was aborted by a signal.
	ErrInterrupted
	// ErrTimedOut: a bounded wait reached its deadline.
	ErrTimedOut
	// ErrExhausted: a fixed-size table has no free entry.
	ErrExhausted
	// ErrInvalid: malformed arguments or an operation the target's state forbids.
	ErrInvalid
	// ErrValueChanged: the futex word no longer held the expected value.
	ErrValueChanged
	// ErrCancelled: the timer was deleted while the caller waited on it.
	ErrCancelled
)

func (e Errno) Error() string {
	switch e {
	case ErrNotFound:
		return "not found"
	case ErrPermission:
		return "permission denied"
	case ErrWouldBlock:
		return "would block"
	case ErrInterrupted:
		return "interrupted"
	case ErrTimedOut:
		return "timed out"
	case ErrExhausted:
		return "resource exhausted"
	case ErrInvalid:
		return "invalid argument"
	case ErrValueChanged:
		return "value changed"
	case ErrCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("errno %d", uint8(e))
	}
}

// Fatal reports a violated kernel invariant. The kernel halts on the first one.
type Fatal struct {
	Reason string
	VID    VID
	Panic  *PanicInfo
}

func (f *Fatal) Error() string {
	if f.VID != 0 {
		return fmt.Sprintf("kernel halted: %s (vid %d)", f.Reason, f.VID)
	}
	return "kernel halted: " + f.Reason
}
