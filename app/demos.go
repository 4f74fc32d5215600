package app

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"duet/kernel"
	"duet/services/console"
	"duet/services/names"
	"duet/usync"
)

// env is what init hands every demo.
type env struct {
	console kernel.VID
	names   kernel.VID
}

type demo struct {
	name string
	run  func(ctx *kernel.Context, e env) error
}

var allDemos = []demo{
	{"sleepers", demoSleepers},
	{"echo", demoEcho},
	{"mutex", demoMutex},
	{"timer", demoTimer},
}

// DemoNames lists the demos accepted by the demo= boot argument.
func DemoNames() []string {
	out := make([]string, 0, len(allDemos))
	for _, d := range allDemos {
		out = append(out, d.name)
	}
	return out
}

func selectDemos(want []string) ([]demo, error) {
	var out []demo
	for _, name := range want {
		if name == "all" {
			out = append(out, allDemos...)
			continue
		}
		found := false
		for _, d := range allDemos {
			if d.name == name {
				out = append(out, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown demo %q (have %s)", name, strings.Join(DemoNames(), ", "))
		}
	}
	return out, nil
}

// demoSleepers starts one thread per priority level. Each sleeps 50-100ms
// and exits with its own VID; joining must return that VID.
func demoSleepers(ctx *kernel.Context, e env) error {
	const n = 8
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	vids := make([]kernel.VID, 0, n)
	for prio := 0; prio < n; prio++ {
		d := time.Duration(50+rng.Intn(51)) * time.Millisecond
		vid, err := ctx.Create(func(ctx *kernel.Context) {
			_, _ = ctx.Sleep(d)
			ctx.Exit(int(ctx.Self()))
		}, kernel.ThreadAttr{Name: "sleeper", Priority: prio})
		if err != nil {
			return fmt.Errorf("create sleeper %d: %w", prio, err)
		}
		vids = append(vids, vid)
	}
	for _, vid := range vids {
		code, err := ctx.Join(vid)
		if err != nil {
			return fmt.Errorf("join %d: %w", vid, err)
		}
		if code != int(vid) {
			return fmt.Errorf("join %d: exit code %d", vid, code)
		}
	}
	return console.Logf(ctx, e.console, "sleepers: %d threads joined", len(vids))
}

const echoExitCode = 0x0123beef

// demoEcho runs an echo server registered under "echo" and a client that
// makes 20 round trips, stops the server and checks that it is gone.
func demoEcho(ctx *kernel.Context, e env) error {
	server, err := ctx.Create(func(ctx *kernel.Context) {
		if err := names.Register(ctx, e.names, "echo"); err != nil {
			ctx.Exit(1)
		}
		for {
			msg, err := ctx.Receive()
			if err != nil {
				ctx.Exit(1)
			}
			if string(msg.Data) == "kill" {
				_ = ctx.Reply(msg.From, []byte("bye"))
				ctx.Exit(echoExitCode)
			}
			_ = ctx.Reply(msg.From, msg.Data)
		}
	}, kernel.ThreadAttr{Name: "echo", Priority: prioProgram - 1})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	vid, err := awaitName(ctx, e.names, "echo")
	if err != nil {
		return fmt.Errorf("lookup echo: %w", err)
	}
	if vid != server {
		return fmt.Errorf("echo registered as %d, created %d", vid, server)
	}
	for i := 0; i < 20; i++ {
		req := []byte(fmt.Sprintf("echo %02d", i))
		resp, err := ctx.Call(vid, req)
		if err != nil {
			return fmt.Errorf("call %d: %w", i, err)
		}
		if !bytes.Equal(resp, req) {
			return fmt.Errorf("call %d: got %q", i, resp)
		}
	}
	if resp, err := ctx.Call(vid, []byte("kill")); err != nil || string(resp) != "bye" {
		return fmt.Errorf("kill exchange: %q, %v", resp, err)
	}
	code, err := ctx.Join(server)
	if err != nil || code != echoExitCode {
		return fmt.Errorf("server exit: %#x, %v", code, err)
	}
	if _, err := ctx.Call(vid, []byte("late")); !errors.Is(err, kernel.ErrNotFound) {
		return fmt.Errorf("call after exit: %v, want %v", err, kernel.ErrNotFound)
	}
	if _, err := names.Lookup(ctx, e.names, "echo"); !errors.Is(err, kernel.ErrNotFound) {
		return fmt.Errorf("stale echo name: %v", err)
	}
	return console.Logf(ctx, e.console, "echo: 20 round trips, server exited with %#x", code)
}

// demoMutex has workers on every core bump a shared counter under a futex mutex.
func demoMutex(ctx *kernel.Context, e env) error {
	const workers, rounds = 4, 100
	var mu usync.Mutex
	counter := 0
	vids := make([]kernel.VID, 0, workers)
	for w := 0; w < workers; w++ {
		vid, err := ctx.Create(func(ctx *kernel.Context) {
			for i := 0; i < rounds; i++ {
				if err := mu.Lock(ctx); err != nil {
					ctx.Exit(1)
				}
				counter++
				if i%16 == 0 {
					ctx.Yield()
				}
				_ = mu.Unlock(ctx)
			}
		}, kernel.ThreadAttr{Name: "worker", Priority: prioProgram})
		if err != nil {
			return fmt.Errorf("create worker: %w", err)
		}
		vids = append(vids, vid)
	}
	for _, vid := range vids {
		if code, err := ctx.Join(vid); err != nil || code != 0 {
			return fmt.Errorf("worker %d: %d, %v", vid, code, err)
		}
	}
	if counter != workers*rounds {
		return fmt.Errorf("counter = %d, want %d", counter, workers*rounds)
	}
	return console.Logf(ctx, e.console, "mutex: %d increments", counter)
}

// demoTimer measures the intervals of a periodic timer.
func demoTimer(ctx *kernel.Context, e env) error {
	const period, ticks = 10 * time.Millisecond, 5
	id, err := ctx.TimerCreate()
	if err != nil {
		return err
	}
	defer ctx.TimerDelete(id)

	if err := ctx.TimerArm(id, period, kernel.TimerPeriodic); err != nil {
		return err
	}
	last, _ := ctx.Clock(kernel.ClockMonotonic)
	gaps := make([]time.Duration, 0, ticks)
	for i := 0; i < ticks; i++ {
		if err := ctx.TimerWait(id, time.Second); err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}
		now, _ := ctx.Clock(kernel.ClockMonotonic)
		gaps = append(gaps, time.Duration(now-last))
		last = now
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return console.Logf(ctx, e.console, "timer: %d ticks, median gap %v", ticks, gaps[len(gaps)/2].Round(time.Microsecond))
}
