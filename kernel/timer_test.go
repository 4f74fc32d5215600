package kernel

import (
	"errors"
	"testing"
	"time"
)

func TestTimerOneShot(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	spawn(t, k, 0, func(ctx *Context) {
		id, err := ctx.TimerCreate()
		if err != nil {
			t.Errorf("TimerCreate: %v", err)
			return
		}
		start := time.Now()
		if err := ctx.TimerArm(id, 20*time.Millisecond, 0); err != nil {
			t.Errorf("TimerArm: %v", err)
			return
		}
		if err := ctx.TimerWait(id, Forever); err != nil {
			t.Errorf("TimerWait: %v", err)
		}
		if elapsed := time.Since(start); elapsed < 19*time.Millisecond {
			t.Errorf("fired after %v, want about 20ms", elapsed)
		}
		if err := ctx.TimerWait(id, 0); !errors.Is(err, ErrTimedOut) {
			t.Errorf("second TimerWait = %v, want %v", err, ErrTimedOut)
		}
		if err := ctx.TimerDelete(id); err != nil {
			t.Errorf("TimerDelete: %v", err)
		}
		if err := ctx.TimerWait(id, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("TimerWait after delete = %v, want %v", err, ErrNotFound)
		}
	})
	runKernel(t, k)
}

func TestTimerPeriodic(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	spawn(t, k, 0, func(ctx *Context) {
		id, _ := ctx.TimerCreate()
		start := time.Now()
		if err := ctx.TimerArm(id, 5*time.Millisecond, TimerPeriodic); err != nil {
			t.Errorf("TimerArm: %v", err)
			return
		}
		for i := 0; i < 5; i++ {
			if err := ctx.TimerWait(id, time.Second); err != nil {
				t.Errorf("TimerWait %d: %v", i, err)
				return
			}
		}
		if elapsed := time.Since(start); elapsed < 24*time.Millisecond {
			t.Errorf("5 periods took %v, want at least 25ms", elapsed)
		}
		if err := ctx.TimerCancel(id); err != nil {
			t.Errorf("TimerCancel: %v", err)
		}
		for ctx.TimerWait(id, 0) == nil {
		}
		if err := ctx.TimerWait(id, 20*time.Millisecond); !errors.Is(err, ErrTimedOut) {
			t.Errorf("TimerWait after cancel = %v, want %v", err, ErrTimedOut)
		}
	})
	runKernel(t, k)
}

func TestTimerFireWithoutWaiterIsKept(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	spawn(t, k, 0, func(ctx *Context) {
		id, _ := ctx.TimerCreate()
		_ = ctx.TimerArm(id, 2*time.Millisecond, 0)
		_, _ = ctx.Sleep(20 * time.Millisecond)
		if err := ctx.TimerWait(id, 0); err != nil {
			t.Errorf("TimerWait on fired timer = %v, want nil", err)
		}
	})
	runKernel(t, k)

	if k.Stats().TimerFires != 1 {
		t.Fatalf("TimerFires = %d, want 1", k.Stats().TimerFires)
	}
}

func TestTimerArguments(t *testing.T) {
	k := newTestKernel(t, 1, func(c *Config) { c.MaxTimers = 2 })
	spawn(t, k, 0, func(ctx *Context) {
		id, _ := ctx.TimerCreate()
		if err := ctx.TimerArm(id, 0, 0); !errors.Is(err, ErrInvalid) {
			t.Errorf("TimerArm(0) = %v, want %v", err, ErrInvalid)
		}
		if err := ctx.TimerArm(0, time.Millisecond, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("TimerArm(bad id) = %v, want %v", err, ErrNotFound)
		}
		if _, err := ctx.TimerCreate(); err != nil {
			t.Errorf("TimerCreate: %v", err)
		}
		if _, err := ctx.TimerCreate(); !errors.Is(err, ErrExhausted) {
			t.Errorf("TimerCreate on full table = %v, want %v", err, ErrExhausted)
		}

		// A recycled slot gets a new id; the old one stays dead.
		_ = ctx.TimerDelete(id)
		again, err := ctx.TimerCreate()
		if err != nil || again == id {
			t.Errorf("TimerCreate after delete = %#x, %v (old %#x)", again, err, id)
		}
		if err := ctx.TimerCancel(id); !errors.Is(err, ErrNotFound) {
			t.Errorf("TimerCancel(stale id) = %v, want %v", err, ErrNotFound)
		}
	})
	runKernel(t, k)
}

func TestTimerOwnership(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	spawn(t, k, 1, func(ctx *Context) {
		id, _ := ctx.TimerCreate()
		_, err := ctx.Create(func(ctx *Context) {
			if err := ctx.TimerArm(id, time.Millisecond, 0); !errors.Is(err, ErrPermission) {
				t.Errorf("TimerArm by stranger = %v, want %v", err, ErrPermission)
			}
			if err := ctx.TimerDelete(id); !errors.Is(err, ErrPermission) {
				t.Errorf("TimerDelete by stranger = %v, want %v", err, ErrPermission)
			}
			// Anyone may wait.
			if err := ctx.TimerWait(id, 0); !errors.Is(err, ErrTimedOut) {
				t.Errorf("TimerWait by stranger = %v, want %v", err, ErrTimedOut)
			}
		}, ThreadAttr{Priority: 0, Detached: true})
		if err != nil {
			t.Errorf("Create: %v", err)
		}
	})
	runKernel(t, k)
}

func TestTimerDeleteCancelsWaiters(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	var errs recorder[error]
	spawn(t, k, 1, func(ctx *Context) {
		id, _ := ctx.TimerCreate()
		for i := 0; i < 2; i++ {
			_, err := ctx.Create(func(ctx *Context) {
				errs.add(ctx.TimerWait(id, Forever))
			}, ThreadAttr{Priority: 0, Detached: true})
			if err != nil {
				t.Errorf("Create: %v", err)
			}
		}
		if err := ctx.TimerDelete(id); err != nil {
			t.Errorf("TimerDelete: %v", err)
		}
	})
	runKernel(t, k)

	got := errs.get()
	if len(got) != 2 {
		t.Fatalf("got %d waiter results, want 2", len(got))
	}
	for _, err := range got {
		if !errors.Is(err, ErrCancelled) {
			t.Fatalf("waiter result = %v, want %v", err, ErrCancelled)
		}
	}
}

func TestTimersDieWithOwner(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	var errs recorder[error]
	spawn(t, k, 1, func(ctx *Context) {
		id, _ := ctx.TimerCreate()
		_ = ctx.TimerArm(id, time.Hour, 0)
		_, err := ctx.Create(func(ctx *Context) {
			errs.add(ctx.TimerWait(id, Forever))
		}, ThreadAttr{Priority: 0, Detached: true})
		if err != nil {
			t.Errorf("Create: %v", err)
		}
	})
	runKernel(t, k)

	if got := errs.get(); len(got) != 1 || !errors.Is(got[0], ErrCancelled) {
		t.Fatalf("waiter results = %v, want [%v]", got, ErrCancelled)
	}
}
