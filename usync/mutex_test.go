package usync

import (
	"context"
	"testing"
	"time"

	"duet/hal"
	"duet/kernel"
)

func runThreads(t *testing.T, cores int, entries ...kernel.Entry) *kernel.Kernel {
	t.Helper()
	cfg := kernel.DefaultConfig()
	cfg.Cores = cores
	cfg.Slice = time.Millisecond
	cfg.Paranoid = true
	k, err := kernel.New(cfg, hal.NewHostPlatform(cores), nil)
	if err != nil {
		t.Fatalf("kernel.New: %v", err)
	}
	for _, e := range entries {
		if _, err := k.Spawn(e, kernel.ThreadAttr{Priority: 1}); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return k
}

func TestMutexExcludes(t *testing.T) {
	var mu Mutex
	counter := 0
	inside := 0
	worker := func(ctx *kernel.Context) {
		for i := 0; i < 200; i++ {
			if err := mu.Lock(ctx); err != nil {
				t.Errorf("Lock: %v", err)
				return
			}
			inside++
			if inside != 1 {
				t.Errorf("%d threads inside the critical section", inside)
			}
			counter++
			if i%10 == 0 {
				ctx.Yield()
			}
			inside--
			if err := mu.Unlock(ctx); err != nil {
				t.Errorf("Unlock: %v", err)
				return
			}
		}
	}
	runThreads(t, 2, worker, worker, worker, worker)

	if counter != 800 {
		t.Fatalf("counter = %d, want 800", counter)
	}
	if mu.state != unlocked {
		t.Fatalf("state = %d after all unlocks, want unlocked", mu.state)
	}
}

func TestMutexParksContender(t *testing.T) {
	var mu Mutex
	var order []string
	runThreads(t, 1,
		func(ctx *kernel.Context) {
			_ = mu.Lock(ctx)
			order = append(order, "a-locked")
			_, _ = ctx.Sleep(10 * time.Millisecond)
			order = append(order, "a-unlock")
			_ = mu.Unlock(ctx)
		},
		func(ctx *kernel.Context) {
			if mu.TryLock() {
				t.Error("TryLock succeeded on a held mutex")
			}
			_ = mu.Lock(ctx)
			order = append(order, "b-locked")
			_ = mu.Unlock(ctx)
		},
	)

	want := []string{"a-locked", "a-unlock", "b-locked"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
