package names

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"duet/hal"
	"duet/kernel"
)

func TestDirectory(t *testing.T) {
	cfg := kernel.DefaultConfig()
	cfg.Cores = 1
	cfg.Paranoid = true
	k, err := kernel.New(cfg, hal.NewHostPlatform(1), nil)
	if err != nil {
		t.Fatalf("kernel.New: %v", err)
	}
	dir, _ := k.Spawn(New().Run, kernel.ThreadAttr{Name: "names", Priority: 0})

	_, _ = k.Spawn(func(ctx *kernel.Context) {
		if err := Register(ctx, dir, "alpha"); err != nil {
			t.Errorf("Register: %v", err)
		}
		if err := Register(ctx, dir, "alpha"); err != nil {
			t.Errorf("re-Register by owner: %v", err)
		}
		if vid, err := Lookup(ctx, dir, "alpha"); err != nil || vid != ctx.Self() {
			t.Errorf("Lookup = %d, %v, want %d", vid, err, ctx.Self())
		}
		if err := Register(ctx, dir, strings.Repeat("n", 33)); !errors.Is(err, kernel.ErrInvalid) {
			t.Errorf("Register(long) = %v, want %v", err, kernel.ErrInvalid)
		}
		if _, err := Lookup(ctx, dir, "beta"); !errors.Is(err, kernel.ErrNotFound) {
			t.Errorf("Lookup(unknown) = %v, want %v", err, kernel.ErrNotFound)
		}

		other, _ := ctx.Create(func(ctx *kernel.Context) {
			if err := Register(ctx, dir, "alpha"); !errors.Is(err, kernel.ErrInvalid) {
				t.Errorf("Register(taken) = %v, want %v", err, kernel.ErrInvalid)
			}
			if err := Unregister(ctx, dir, "alpha"); !errors.Is(err, kernel.ErrPermission) {
				t.Errorf("Unregister(not owner) = %v, want %v", err, kernel.ErrPermission)
			}
			if err := Register(ctx, dir, "gamma"); err != nil {
				t.Errorf("Register(gamma): %v", err)
			}
		}, kernel.ThreadAttr{Priority: 2})
		if _, err := ctx.Join(other); err != nil {
			t.Errorf("Join: %v", err)
		}
		// gamma's owner is gone.
		if _, err := Lookup(ctx, dir, "gamma"); !errors.Is(err, kernel.ErrNotFound) {
			t.Errorf("Lookup(dead owner) = %v, want %v", err, kernel.ErrNotFound)
		}

		if err := Unregister(ctx, dir, "alpha"); err != nil {
			t.Errorf("Unregister: %v", err)
		}
		if err := Unregister(ctx, dir, "alpha"); !errors.Is(err, kernel.ErrNotFound) {
			t.Errorf("second Unregister = %v, want %v", err, kernel.ErrNotFound)
		}
		_ = ctx.Kill(dir, kernel.SIGTERM)
	}, kernel.ThreadAttr{Priority: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := k.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
