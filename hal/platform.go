package hal

import "sync"

// Context is a saved thread execution context. Only the platform looks inside it.
type Context interface{}

// Platform is the machine-dependent half of the kernel.
//
// Switch and Trap form a pair: a core's scheduler loop calls Switch and gets
// control back when the thread it resumed calls Trap or Exit. The kernel holds
// no locks across Switch.
type Platform interface {
	// Cores reports how many scheduler loops the machine runs.
	Cores() int

	// NewContext builds a context that starts executing entry on its first Switch.
	NewContext(entry func()) Context
	// Switch leaves the core's kernel context for c until c traps back.
	Switch(core int, c Context)
	// Trap saves the calling thread and returns to the kernel context that
	// switched to it. It returns when the thread is switched to again.
	Trap(c Context)
	// Exit is a final Trap; it never returns.
	Exit(c Context)
	// Destroy releases a context that will never be switched to again.
	Destroy(c Context)

	// Micros is a monotonic microsecond clock.
	Micros() uint64
	// RealtimeNanos is wall-clock time in nanoseconds since the Unix epoch.
	RealtimeNanos() int64

	// SetDeadline programs the core's one-shot timer us microseconds from
	// now. Zero disarms it.
	SetDeadline(core int, us uint64)
	// Idle parks the core until its deadline passes or another core wakes it.
	Idle(core int)
	// Wake asks core to run its scheduler loop again.
	Wake(core int)

	// Locker is the cross-core kernel lock.
	Locker() sync.Locker
}
