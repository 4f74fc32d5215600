package kernel

import "fmt"

// PanicInfo contains details about a panic recovered from thread code.
type PanicInfo struct {
	VID   VID
	Value any
	Stack []byte
}

// SetPanicHandler installs the handler run when the kernel halts.
//
// The handler is invoked at most once (on the first fatal condition). It runs
// with the kernel lock held and must not make system calls.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) {
	k.mu.Lock()
	k.panicFn = fn
	k.mu.Unlock()
}

// Halted reports whether the kernel stopped on a fatal condition.
func (k *Kernel) Halted() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.halted == nil {
		return nil
	}
	return k.halted
}

// fatal halts every core. Caller holds the kernel lock.
func (k *Kernel) fatal(vid VID, info *PanicInfo, format string, args ...any) {
	if k.halted != nil {
		return
	}
	k.halted = &Fatal{Reason: fmt.Sprintf(format, args...), VID: vid, Panic: info}
	k.logf("%v", k.halted)

	pi := PanicInfo{VID: vid, Value: k.halted.Reason}
	if info != nil {
		pi = *info
	} else {
		pi.Stack = captureStack()
	}
	if k.panicFn != nil {
		k.panicFn(pi)
	}
	k.wakeAll()
}
