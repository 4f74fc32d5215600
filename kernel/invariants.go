package kernel

import "fmt"

// CheckInvariants verifies that every thread sits on exactly one state ring
// whose tag matches its state, and that the port and wait-queue back
// references agree with ring membership.
func (k *Kernel) CheckInvariants() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.checkInvariants()
}

func (k *Kernel) checkInvariants() error {
	seen := make([]bool, len(k.threads))
	total := 0

	walk := func(name string, r *ring) error {
		n := 0
		for i := r.front(); i != nilIndex; i = r.next(k.threads, i) {
			t := &k.threads[i]
			if seen[i] {
				return fmt.Errorf("slot %d linked twice (%s)", i, name)
			}
			seen[i] = true
			if t.node.owner != r {
				return fmt.Errorf("slot %d walked on %s but owned by another ring", i, name)
			}
			if t.state != State(r.tag) {
				return fmt.Errorf("slot %d on %s has state %s", i, name, t.state)
			}
			if n++; n > len(k.threads) {
				return fmt.Errorf("%s does not close", name)
			}
		}
		if n != r.len() {
			return fmt.Errorf("%s holds %d threads, count says %d", name, n, r.len())
		}
		total += n
		return nil
	}

	rings := []struct {
		name string
		r    *ring
	}{
		{"free", &k.unused},
		{"receivers", &k.receivers},
		{"sleepers", &k.sleepers},
		{"joiners", &k.joiners},
		{"zombies", &k.zombies},
	}
	for p := range k.ready {
		rings = append(rings, struct {
			name string
			r    *ring
		}{fmt.Sprintf("ready[%d]", p), &k.ready[p]})
	}
	for c := range k.running {
		if k.running[c].len() > 1 {
			return fmt.Errorf("core %d runs %d threads", c, k.running[c].len())
		}
		rings = append(rings, struct {
			name string
			r    *ring
		}{fmt.Sprintf("running[%d]", c), &k.running[c]})
	}
	for _, e := range rings {
		if err := walk(e.name, e.r); err != nil {
			return err
		}
	}

	for i := range k.threads {
		t := &k.threads[i]
		if err := walk(fmt.Sprintf("pending[%d]", i), &t.pending); err != nil {
			return err
		}
		if err := walk(fmt.Sprintf("replies[%d]", i), &t.replies); err != nil {
			return err
		}
		if (t.port == portReadyToReceive) != (t.state == StateWaitingRead) {
			return fmt.Errorf("slot %d port state disagrees with state %s", i, t.state)
		}
		if (t.waitq != nil) != (t.state == StateWaitingSync) {
			return fmt.Errorf("slot %d wait queue reference disagrees with state %s", i, t.state)
		}
		if t.waitq != nil && t.node.owner != &t.waitq.r {
			return fmt.Errorf("slot %d is not on the wait queue it references", i)
		}
	}
	for i := range k.futexes {
		if err := walk(fmt.Sprintf("futex[%d]", i), &k.futexes[i].q.r); err != nil {
			return err
		}
	}
	for i := range k.timers {
		if err := walk(fmt.Sprintf("timer[%d]", i), &k.timers[i].q.r); err != nil {
			return err
		}
	}

	if total != len(k.threads) {
		return fmt.Errorf("%d of %d threads are on a state ring", total, len(k.threads))
	}
	for i := range k.threads {
		t := &k.threads[i]
		if t.tmo.linked() && t.state != StateWaitingSync {
			return fmt.Errorf("slot %d has a timeout but state %s", i, t.state)
		}
	}
	return nil
}
