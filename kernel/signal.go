package kernel

// Signal numbers follow the usual Unix assignment.
type Signal uint8

const (
	SIGHUP   Signal = 1
	SIGINT   Signal = 2
	SIGQUIT  Signal = 3
	SIGKILL  Signal = 9
	SIGUSR1  Signal = 10
	SIGUSR2  Signal = 12
	SIGALRM  Signal = 14
	SIGTERM  Signal = 15
	SIGCHLD  Signal = 17
	SIGURG   Signal = 23
	SIGWINCH Signal = 28

	NSIG = 32
)

// SigSet is a bit set of signals; bit n stands for signal n.
type SigSet uint32

func (s SigSet) Has(sig Signal) bool { return sig < NSIG && s&(1<<sig) != 0 }

// SigSetOf builds a set from individual signals.
func SigSetOf(sigs ...Signal) SigSet {
	var s SigSet
	for _, sig := range sigs {
		if sig < NSIG {
			s |= 1 << sig
		}
	}
	return s
}

// MaskHow selects how SigMask edits the block mask.
type MaskHow uint8

const (
	SigBlock MaskHow = iota
	SigUnblock
	SigSetMask
)

type disposition uint8

const (
	dispIgnore disposition = iota
	dispInterrupt
	dispTerminate
)

func dispositionOf(sig Signal) disposition {
	switch sig {
	case 0, SIGCHLD, SIGURG, SIGWINCH:
		return dispIgnore
	case SIGKILL:
		return dispTerminate
	default:
		return dispInterrupt
	}
}

// signal marks sig pending on target and applies its disposition.
func (k *Kernel) signal(target *tcb, sig Signal) error {
	if sig >= NSIG {
		return ErrInvalid
	}
	if sig == 0 {
		return nil
	}
	bit := uint32(1) << sig
	target.sigPending |= bit
	if target.sigMask&bit != 0 {
		return nil
	}
	switch dispositionOf(sig) {
	case dispIgnore:
	case dispInterrupt:
		if !k.interrupt(target) {
			target.sigDeferred |= bit
		}
	case dispTerminate:
		target.kill = true
		k.interrupt(target)
	}
	return nil
}

// interrupt aborts an interruptible wait with ErrInterrupted and reports
// whether there was one. A thread already matched in a rendezvous or
// joining stays put.
func (k *Kernel) interrupt(t *tcb) bool {
	switch t.state {
	case StateSleep:
		now := k.plat.Micros()
		var left uint64
		if t.expiry > now {
			left = t.expiry - now
		}
		t.res = result{err: ErrInterrupted, ret: left}
		k.makeReady(t)
	case StateWaitingRead:
		t.port = portListening
		t.res = result{err: ErrInterrupted}
		k.makeReady(t)
	case StateWaitingMsg:
		t.out = Message{}
		t.res = result{err: ErrInterrupted}
		k.makeReady(t)
	case StateWaitingSync:
		k.wake(t, ErrInterrupted)
	case StateRunning:
		if t.core >= 0 {
			k.plat.Wake(t.core)
		}
		return false
	case StateFree, StateReady, StateWaitingReply, StatePendingJoin, StateZombie:
		return false
	}
	return true
}

// interruptPending fails a wait that is about to start when a signal
// arrived while t was not waiting. All unmasked deferred signals are
// consumed together, so several of them cut only one wait short.
func (k *Kernel) interruptPending(t *tcb) bool {
	if t.sigDeferred&^t.sigMask == 0 {
		return false
	}
	t.sigDeferred &= t.sigMask
	t.res.err = ErrInterrupted
	return true
}

func (k *Kernel) sigMask(t *tcb, how MaskHow, set SigSet) (SigSet, error) {
	old := SigSet(t.sigMask)
	set &^= SigSetOf(SIGKILL)
	switch how {
	case SigBlock:
		t.sigMask |= uint32(set)
	case SigUnblock:
		t.sigMask &^= uint32(set)
	case SigSetMask:
		t.sigMask = uint32(set)
	default:
		return old, ErrInvalid
	}
	// Signals that arrived masked take effect once unblocked.
	for sig := Signal(1); sig < NSIG; sig++ {
		bit := uint32(1) << sig
		if uint32(old)&bit != 0 && t.sigMask&bit == 0 && t.sigPending&bit != 0 && dispositionOf(sig) == dispInterrupt {
			t.sigDeferred |= bit
		}
	}
	return old, nil
}
