package kernel

import (
	"errors"
	"testing"
	"time"
)

func TestJoinCollectsExitCode(t *testing.T) {
	k := newTestKernel(t, 2, nil)
	spawn(t, k, 1, func(ctx *Context) {
		early, _ := ctx.Create(func(ctx *Context) { ctx.Exit(7) }, ThreadAttr{Priority: 0})
		late, _ := ctx.Create(func(ctx *Context) {
			_, _ = ctx.Sleep(10 * time.Millisecond)
		}, ThreadAttr{Priority: 2})

		if code, err := ctx.Join(early); err != nil || code != 7 {
			t.Errorf("Join(zombie) = %d, %v, want 7", code, err)
		}
		if _, err := ctx.Join(early); !errors.Is(err, ErrNotFound) {
			t.Errorf("second Join = %v, want %v", err, ErrNotFound)
		}
		if code, err := ctx.Join(late); err != nil || code != 0 {
			t.Errorf("Join(running) = %d, %v, want 0", code, err)
		}
	})
	runKernel(t, k)
}

func TestJoinRejectsSecondJoiner(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	spawn(t, k, 1, func(ctx *Context) {
		target, _ := ctx.Create(func(ctx *Context) {
			_, _ = ctx.Sleep(20 * time.Millisecond)
			ctx.Exit(5)
		}, ThreadAttr{Priority: 2})
		first, _ := ctx.Create(func(ctx *Context) {
			if code, err := ctx.Join(target); err != nil || code != 5 {
				t.Errorf("first Join = %d, %v, want 5", code, err)
			}
		}, ThreadAttr{Priority: 0, Detached: true})

		if _, err := ctx.Join(target); !errors.Is(err, ErrInvalid) {
			t.Errorf("second Join = %v, want %v", err, ErrInvalid)
		}
		if err := ctx.Detach(target); !errors.Is(err, ErrInvalid) {
			t.Errorf("Detach of joined thread = %v, want %v", err, ErrInvalid)
		}
		if _, err := ctx.Join(first); !errors.Is(err, ErrInvalid) {
			t.Errorf("Join(detached) = %v, want %v", err, ErrInvalid)
		}
		if _, err := ctx.Join(ctx.Self()); !errors.Is(err, ErrInvalid) {
			t.Errorf("Join(self) = %v, want %v", err, ErrInvalid)
		}
		if _, err := ctx.Join(0x5151); !errors.Is(err, ErrNotFound) {
			t.Errorf("Join(unknown) = %v, want %v", err, ErrNotFound)
		}
	})
	runKernel(t, k)
}

func TestDetachReapsThreads(t *testing.T) {
	k := newTestKernel(t, 1, func(c *Config) { c.MaxThreads = 3 })
	var zombie, live VID
	spawn(t, k, 1, func(ctx *Context) {
		zombie, _ = ctx.Create(func(ctx *Context) {}, ThreadAttr{Priority: 0})
		if err := ctx.Detach(zombie); err != nil {
			t.Errorf("Detach(zombie) = %v", err)
		}
		live, _ = ctx.Create(func(ctx *Context) {
			_, _ = ctx.Sleep(5 * time.Millisecond)
		}, ThreadAttr{Priority: 2})
		if err := ctx.Detach(live); err != nil {
			t.Errorf("Detach(live) = %v", err)
		}
		if err := ctx.Detach(live); !errors.Is(err, ErrInvalid) {
			t.Errorf("second Detach = %v, want %v", err, ErrInvalid)
		}
	})
	runKernel(t, k)

	for _, vid := range []VID{zombie, live} {
		if s := k.ThreadState(vid); s != StateFree {
			t.Fatalf("ThreadState(%d) = %s, want free", vid, s)
		}
	}
	if s := k.Stats(); s.ByState[StateFree] != 2 {
		t.Fatalf("ByState = %v, want 2 free slots", s.ByState)
	}
}

func TestCreateLimits(t *testing.T) {
	k := newTestKernel(t, 1, func(c *Config) { c.MaxThreads = 2 })
	spawn(t, k, 1, func(ctx *Context) {
		if _, err := ctx.Create(func(*Context) {}, ThreadAttr{Priority: 99}); !errors.Is(err, ErrInvalid) {
			t.Errorf("Create(prio 99) = %v, want %v", err, ErrInvalid)
		}
		if _, err := ctx.Create(nil, ThreadAttr{}); !errors.Is(err, ErrInvalid) {
			t.Errorf("Create(nil) = %v, want %v", err, ErrInvalid)
		}
		child, err := ctx.Create(func(ctx *Context) {
			_, _ = ctx.Sleep(5 * time.Millisecond)
		}, ThreadAttr{Priority: 2, Detached: true})
		if err != nil {
			t.Errorf("Create: %v", err)
		}
		if _, err := ctx.Create(func(*Context) {}, ThreadAttr{}); !errors.Is(err, ErrExhausted) {
			t.Errorf("Create on full table = %v, want %v", err, ErrExhausted)
		}
		if err := ctx.SetPriority(child, -1); !errors.Is(err, ErrInvalid) {
			t.Errorf("SetPriority(-1) = %v, want %v", err, ErrInvalid)
		}
		if err := ctx.SetPriority(0x3333, 1); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetPriority(unknown) = %v, want %v", err, ErrNotFound)
		}
	})
	runKernel(t, k)
}

func TestSetPriorityReordersReadyThread(t *testing.T) {
	k := newTestKernel(t, 1, nil)
	var order recorder[string]
	spawn(t, k, 1, func(ctx *Context) {
		slow, _ := ctx.Create(func(*Context) { order.add("promoted") }, ThreadAttr{Priority: 5, Detached: true})
		_, _ = ctx.Create(func(*Context) { order.add("peer") }, ThreadAttr{Priority: 3, Detached: true})
		if err := ctx.SetPriority(slow, 0); err != nil {
			t.Errorf("SetPriority: %v", err)
		}
		order.add("parent")
	})
	runKernel(t, k)

	got := order.get()
	if len(got) != 3 || got[0] != "promoted" || got[1] != "parent" || got[2] != "peer" {
		t.Fatalf("order = %v, want [promoted parent peer]", got)
	}
}

func TestThreadPanicHaltsKernel(t *testing.T) {
	k := newTestKernel(t, 2, nil)
	var handled recorder[PanicInfo]
	k.SetPanicHandler(handled.add)
	spawn(t, k, 1, func(ctx *Context) {
		_, _ = ctx.Sleep(time.Second)
	})
	bad := spawn(t, k, 0, func(ctx *Context) { panic("boom") })

	ctx, cancel := contextWithTestTimeout()
	defer cancel()
	err := k.Run(ctx)
	var fatal *Fatal
	if !errors.As(err, &fatal) {
		t.Fatalf("Run = %v, want *Fatal", err)
	}
	if fatal.VID != bad || fatal.Panic == nil || fatal.Panic.Value != "boom" {
		t.Fatalf("Fatal = %+v, want panic boom from vid %d", fatal, bad)
	}
	got := handled.get()
	if len(got) != 1 || got[0].Value != "boom" || len(got[0].Stack) == 0 {
		t.Fatalf("panic handler calls = %+v", got)
	}
	if _, err := k.Spawn(func(*Context) {}, ThreadAttr{}); !errors.As(err, &fatal) {
		t.Fatalf("Spawn after halt = %v, want *Fatal", err)
	}
}
