// Package bootargs parses the kernel command line.
//
// The command line is a shell-quoted list of key=value words, for example
//
//	cores=2 slice=5ms threads=32 paranoid "demo=echo sleepers"
//
// A bare key is shorthand for key=true.
package bootargs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"duet/kernel"

	"github.com/google/shlex"
)

// Args is a parsed command line.
type Args struct {
	Kernel kernel.Config
	// Demos lists the demo programs to start, in order.
	Demos []string
	// Extra holds keys the kernel does not interpret.
	Extra map[string]string
}

// Parse applies cmdline on top of base. The result is validated.
func Parse(cmdline string, base kernel.Config) (Args, error) {
	words, err := shlex.Split(cmdline)
	if err != nil {
		return Args{}, fmt.Errorf("bootargs: %w", err)
	}

	a := Args{Kernel: base, Extra: make(map[string]string)}
	for _, w := range words {
		key, val, hasVal := strings.Cut(w, "=")
		if key == "" {
			return Args{}, fmt.Errorf("bootargs: empty key in %q", w)
		}
		if !hasVal {
			val = "true"
		}
		if err := a.set(key, val); err != nil {
			return Args{}, fmt.Errorf("bootargs: %s: %w", key, err)
		}
	}
	if err := a.Kernel.Validate(); err != nil {
		return Args{}, fmt.Errorf("bootargs: %w", err)
	}
	return a, nil
}

func (a *Args) set(key, val string) error {
	c := &a.Kernel
	switch key {
	case "cores":
		return setInt(&c.Cores, val)
	case "priorities":
		return setInt(&c.Priorities, val)
	case "threads":
		return setInt(&c.MaxThreads, val)
	case "timers":
		return setInt(&c.MaxTimers, val)
	case "futexes":
		return setInt(&c.FutexSlots, val)
	case "stack":
		return setInt(&c.DefaultStack, val)
	case "slice":
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		c.Slice = d
	case "paranoid":
		return setBool(&c.Paranoid, val)
	case "trace":
		return setBool(&c.Trace, val)
	case "demo":
		a.Demos = nil
		for _, d := range strings.FieldsFunc(val, func(r rune) bool { return r == ',' || r == ' ' }) {
			a.Demos = append(a.Demos, d)
		}
	default:
		a.Extra[key] = val
	}
	return nil
}

func setInt(dst *int, val string) error {
	n, err := strconv.Atoi(val)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func setBool(dst *bool, val string) error {
	b, err := strconv.ParseBool(val)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}
