package kernel

import (
	"fmt"
	"time"
)

// Config sizes the kernel's fixed tables.
type Config struct {
	// Cores is the number of scheduler loops the platform should provide.
	Cores int
	// Priorities is the number of ready buckets; 0 is the most urgent.
	Priorities int
	MaxThreads int
	MaxTimers  int
	FutexSlots int
	// Slice is the quantum a thread runs before same-priority peers get a turn.
	Slice time.Duration
	// DefaultStack is recorded for threads created with StackSize 0.
	DefaultStack int
	// Paranoid checks every ring invariant after each scheduling decision.
	Paranoid bool
	// Trace logs thread lifecycle events.
	Trace bool
}

// DefaultConfig is the dual-core configuration.
func DefaultConfig() Config {
	return Config{
		Cores:        2,
		Priorities:   8,
		MaxThreads:   32,
		MaxTimers:    16,
		FutexSlots:   16,
		Slice:        10 * time.Millisecond,
		DefaultStack: 4096,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Cores < 1 || c.Cores > 2:
		return fmt.Errorf("cores: %d not in 1..2", c.Cores)
	case c.Priorities < 1 || c.Priorities > 32:
		return fmt.Errorf("priorities: %d not in 1..32", c.Priorities)
	case c.MaxThreads < 1 || c.MaxThreads > 4096:
		return fmt.Errorf("threads: %d not in 1..4096", c.MaxThreads)
	case c.MaxTimers < 1 || c.MaxTimers > 0xFFFF:
		return fmt.Errorf("timers: %d not in 1..65535", c.MaxTimers)
	case c.FutexSlots < 1:
		return fmt.Errorf("futex slots: %d must be positive", c.FutexSlots)
	case c.Slice < time.Microsecond:
		return fmt.Errorf("slice: %v too short", c.Slice)
	case c.DefaultStack < 0:
		return fmt.Errorf("stack: %d must not be negative", c.DefaultStack)
	}
	return nil
}
