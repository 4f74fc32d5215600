package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"duet/app"
	"duet/hal"
	"duet/internal/bootargs"
	"duet/kernel"
)

func main() {
	var cfg hal.HeadlessConfig
	var cmdline, demos string
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.DurationVar(&cfg.Timeout, "timeout", 0, "Stop after this long (0 = run until every thread exits).")
	flag.StringVar(&cmdline, "bootargs", "", `Kernel command line, e.g. "cores=1 slice=5ms paranoid".`)
	flag.StringVar(&demos, "demo", "", "Demos to run: all or a comma list of "+strings.Join(app.DemoNames(), ", ")+".")
	flag.Parse()

	if demos != "" {
		cmdline += " demo=" + demos
	}
	args, err := bootargs.Parse(cmdline, kernel.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.Cores = args.Kernel.Cores

	newApp := func(h hal.HAL) func(context.Context) error {
		return app.New(h, args)
	}

	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, newApp, cfg); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(newApp, cfg.Cores); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
