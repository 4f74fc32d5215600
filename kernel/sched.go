package kernel

import "context"

// runCore is one core's scheduler loop. It holds the kernel lock except
// while a thread runs or the core idles.
func (k *Kernel) runCore(ctx context.Context, core int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for {
		if k.halted != nil {
			return k.halted
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if k.live == 0 {
			return nil
		}

		now := k.plat.Micros()
		k.fireTimers(now)
		k.expire(now)

		t := k.popReady()
		if t == nil {
			k.idleUntilNext(core, now)
			continue
		}
		k.runThread(core, t, now)

		if k.cfg.Paranoid && k.halted == nil {
			if err := k.checkInvariants(); err != nil {
				k.fatal(0, nil, "%v", err)
			}
		}
	}
}

// runThread switches to t and services its system calls until it blocks,
// terminates, or is preempted.
func (k *Kernel) runThread(core int, t *tcb, now uint64) {
	if t.kill {
		k.terminate(t, 128+int(SIGKILL))
		return
	}
	k.move(t, &k.running[core])
	t.core = core
	t.sliceEnd = now + k.sliceUS
	k.stats.ContextSwitches++

	next := k.sliceUS
	if d := k.nextDeadline(now); d != 0 && d < next {
		next = d
	}
	k.plat.SetDeadline(core, next)

	for {
		k.mu.Unlock()
		k.plat.Switch(core, t.ctx)
		k.mu.Lock()

		k.service(t)
		if t.state == StateRunning && t.kill {
			k.terminate(t, 128+int(SIGKILL))
		}
		if t.state != StateRunning || k.halted != nil {
			return
		}
		if now = k.plat.Micros(); k.preempt(t, now) {
			k.stats.Preemptions++
			k.makeReady(t)
			return
		}
	}
}

// preempt advances timers and reports whether t must give up the core:
// its slice ran out, or a more urgent bucket is non-empty.
func (k *Kernel) preempt(t *tcb, now uint64) bool {
	k.fireTimers(now)
	k.expire(now)
	if now >= t.sliceEnd {
		return true
	}
	u := k.mostUrgent()
	return u >= 0 && u < int(t.prio)
}

func (k *Kernel) idleUntilNext(core int, now uint64) {
	k.plat.SetDeadline(core, k.nextDeadline(now))
	k.idle[core] = true
	k.mu.Unlock()
	k.plat.Idle(core)
	k.mu.Lock()
	k.idle[core] = false
}

// nextDeadline is the time in microseconds until the soonest sleep expiry,
// wait timeout or timer deadline; 0 when nothing is pending.
func (k *Kernel) nextDeadline(now uint64) uint64 {
	var at uint64
	consider := func(d uint64) {
		if at == 0 || d < at {
			at = d
		}
	}
	if i := k.sleepers.front(); i != nilIndex {
		consider(k.threads[i].expiry)
	}
	if i := k.timeouts.front(); i != nilIndex {
		consider(k.threads[i].expiry)
	}
	if i := k.armed.front(); i != nilIndex {
		consider(k.timers[i].deadline)
	}
	if at == 0 {
		return 0
	}
	if at <= now {
		return 1
	}
	return at - now
}
