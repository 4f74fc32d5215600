package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	Cores   int
	// Timeout stops the system after the given duration (0 = run until the app returns).
	Timeout time.Duration
}

// RunHeadless runs the OS without opening a window.
func RunHeadless(ctx context.Context, newApp func(HAL) func(context.Context) error, cfg HeadlessConfig) error {
	if cfg.Cores < 0 {
		return fmt.Errorf("invalid headless cores: %d", cfg.Cores)
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	h := New(cfg.Cores)
	run := newApp(h)
	if run == nil {
		return nil
	}
	return run(ctx)
}
