// Package usync provides blocking primitives for kernel threads built on
// futexes.
package usync

import (
	"errors"
	"sync/atomic"

	"duet/kernel"
)

const (
	unlocked uint32 = iota
	locked
	contended
)

// Mutex is a futex mutex. The zero value is unlocked. Uncontended Lock and
// Unlock make no system call.
//
// The word moves unlocked -> locked on an uncontended acquire and to
// contended once a waiter may be parked; Unlock only wakes when it sees
// contended.
type Mutex struct {
	state uint32
}

// TryLock acquires m if it is free.
func (m *Mutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(&m.state, unlocked, locked)
}

// Lock acquires m, blocking the calling thread while another holds it.
// Signals do not abort the wait.
func (m *Mutex) Lock(ctx *kernel.Context) error {
	if m.TryLock() {
		return nil
	}
	for {
		if atomic.SwapUint32(&m.state, contended) == unlocked {
			return nil
		}
		err := ctx.FutexWait(&m.state, contended, kernel.Forever)
		switch {
		case err == nil,
			errors.Is(err, kernel.ErrValueChanged),
			errors.Is(err, kernel.ErrInterrupted):
		default:
			return err
		}
	}
}

// Unlock releases m and wakes one waiter if any may be parked.
func (m *Mutex) Unlock(ctx *kernel.Context) error {
	switch atomic.SwapUint32(&m.state, unlocked) {
	case unlocked:
		panic("usync: unlock of unlocked mutex")
	case contended:
		_, err := ctx.FutexWake(&m.state, 1)
		return err
	}
	return nil
}
