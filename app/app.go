// Package app boots the system: the kernel, the name and console servers,
// and the demo programs selected on the command line.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"duet/hal"
	"duet/internal/bootargs"
	"duet/internal/buildinfo"
	"duet/kernel"
	"duet/services/console"
	"duet/services/names"
)

const (
	prioInit    = 0
	prioServer  = 1
	prioProgram = 3
)

type system struct {
	h     hal.HAL
	k     *kernel.Kernel
	demos []demo

	// Written by the init thread, read once Run has returned.
	failed []string
}

// New returns the run function of a system booted on h with args.
func New(h hal.HAL, args bootargs.Args) func(context.Context) error {
	return func(ctx context.Context) error {
		s, err := newSystem(h, args)
		if err != nil {
			return err
		}
		return s.run(ctx)
	}
}

func newSystem(h hal.HAL, args bootargs.Args) (*system, error) {
	demos, err := selectDemos(args.Demos)
	if err != nil {
		return nil, err
	}
	k, err := kernel.New(args.Kernel, h.Platform(), h.Logger())
	if err != nil {
		return nil, err
	}
	s := &system{h: h, k: k, demos: demos}
	installPanicHandler(h, k)

	if _, err := k.Spawn(s.init, kernel.ThreadAttr{Name: "init", Priority: prioInit}); err != nil {
		return nil, fmt.Errorf("spawn init: %w", err)
	}
	return s, nil
}

func (s *system) run(ctx context.Context) error {
	s.logf("duet %s: %d cores", buildinfo.Short(), s.h.Platform().Cores())
	start := time.Now()
	err := s.k.Run(ctx)

	st := s.k.Stats()
	s.logf("duet: stopped after %v: %d switches, %d syscalls, %d preemptions, %d timer fires, %d live",
		time.Since(start).Round(time.Millisecond), st.ContextSwitches, st.Syscalls, st.Preemptions, st.TimerFires, st.Live)
	if err != nil {
		return err
	}
	if len(s.failed) > 0 {
		return fmt.Errorf("demos failed: %v", s.failed)
	}
	return nil
}

// init starts the servers, runs every demo to completion, and then stops
// the servers so the kernel runs out of live threads.
func (s *system) init(ctx *kernel.Context) {
	dir, err := ctx.Create(names.New().Run, kernel.ThreadAttr{Name: "names", Priority: prioServer})
	if err != nil {
		s.logf("init: start names: %v", err)
		ctx.Exit(1)
	}
	cons := console.New(s.h.Logger(), s.h.Display())
	con, err := ctx.Create(func(ctx *kernel.Context) {
		if err := names.Register(ctx, dir, "console"); err != nil {
			s.logf("console: register: %v", err)
		}
		cons.Run(ctx)
	}, kernel.ThreadAttr{Name: "console", Priority: prioServer})
	if err != nil {
		s.logf("init: start console: %v", err)
		ctx.Exit(1)
	}

	if found, err := awaitName(ctx, dir, "console"); err != nil || found != con {
		s.logf("init: console not registered: %v", err)
	}
	e := env{console: con, names: dir}
	_ = console.Logf(ctx, con, "duet %s up, %d demo(s)", buildinfo.Short(), len(s.demos))

	for _, d := range s.demos {
		d := d
		vid, err := ctx.Create(func(ctx *kernel.Context) {
			if err := d.run(ctx, e); err != nil {
				_ = console.Logf(ctx, con, "%s: FAIL: %v", d.name, err)
				ctx.Exit(1)
			}
			_ = console.Logf(ctx, con, "%s: ok", d.name)
		}, kernel.ThreadAttr{Name: d.name, Priority: prioProgram})
		if err != nil {
			s.failed = append(s.failed, d.name)
			_ = console.Logf(ctx, con, "%s: start: %v", d.name, err)
			continue
		}
		if code, err := ctx.Join(vid); err != nil || code != 0 {
			s.failed = append(s.failed, d.name)
		}
	}
	_ = console.Logf(ctx, con, "%d/%d demo(s) passed", len(s.demos)-len(s.failed), len(s.demos))

	for _, vid := range []kernel.VID{con, dir} {
		if err := ctx.Kill(vid, kernel.SIGTERM); err != nil {
			s.logf("init: stop %d: %v", vid, err)
			continue
		}
		if _, err := ctx.Join(vid); err != nil {
			s.logf("init: join %d: %v", vid, err)
		}
	}
}

// awaitName polls the directory until name is registered.
func awaitName(ctx *kernel.Context, dir kernel.VID, name string) (kernel.VID, error) {
	for tries := 0; ; tries++ {
		vid, err := names.Lookup(ctx, dir, name)
		if !errors.Is(err, kernel.ErrNotFound) || tries == 100 {
			return vid, err
		}
		if _, err := ctx.Sleep(time.Millisecond); err != nil {
			return 0, err
		}
	}
}

func (s *system) logf(format string, args ...any) {
	if l := s.h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf(format, args...))
	}
}
