package kernel

// sysno selects the kernel service a trapping thread asked for.
type sysno uint8

const (
	sysNone sysno = iota
	sysCreate
	sysJoin
	sysDetach
	sysExit
	sysSetPriority
	sysKill
	sysYield
	sysSleep
	sysCall
	sysTrySend
	sysReceive
	sysTryReceive
	sysReply
	sysFutexWait
	sysFutexWake
	sysTimerCreate
	sysTimerDelete
	sysTimerArm
	sysTimerCancel
	sysTimerWait
	sysClock
	sysSigTake
	sysSigMask
	sysPanic
)

// request is the argument block a thread fills in before it traps.
type request struct {
	no sysno

	vid     VID
	prio    int
	code    int
	sig     Signal
	us      uint64
	timeout int64
	addr    *uint32
	val     uint32
	n       int
	timer   TimerID
	flags   TimerFlags
	msg     Message
	how     MaskHow
	set     SigSet
	clock   ClockID

	entry Entry
	attr  ThreadAttr
	panic *PanicInfo
}

// result is what the kernel hands back when the thread resumes.
type result struct {
	err  error
	ret  uint64
	code int
	msg  Message
}

// service runs the system call t trapped with. Calls that block leave t on a
// wait ring; whoever wakes it fills in t.res.
func (k *Kernel) service(t *tcb) {
	req := t.sys
	t.sys = request{}
	t.res = result{}
	k.stats.Syscalls++
	now := k.plat.Micros()

	// A kill that landed while t ran ends it at this trap, whatever it asked for.
	if t.kill && req.no != sysPanic {
		t.res.err = ErrInterrupted
		return
	}

	switch req.no {
	case sysCreate:
		vid, err := k.create(req.entry, req.attr)
		t.res = result{err: err, ret: uint64(vid)}
	case sysJoin:
		k.join(t, req.vid)
	case sysDetach:
		t.res.err = k.detach(req.vid)
	case sysExit:
		k.terminate(t, req.code)
	case sysSetPriority:
		t.res.err = k.setPriority(req.vid, req.prio)
	case sysKill:
		target, ok := k.lookupLive(req.vid)
		if !ok {
			t.res.err = ErrNotFound
			break
		}
		t.res.err = k.signal(target, req.sig)
	case sysYield:
		k.makeReady(t)
	case sysSleep:
		if req.us == 0 {
			k.makeReady(t)
			break
		}
		if k.interruptPending(t) {
			t.res.ret = req.us
			break
		}
		k.sleep(t, req.us, now)
	case sysCall:
		k.send(t, req.msg, true)
	case sysTrySend:
		k.send(t, req.msg, false)
	case sysReceive:
		k.receive(t, true)
	case sysTryReceive:
		k.receive(t, false)
	case sysReply:
		k.reply(t, req.vid, req.msg.Data)
	case sysFutexWait:
		k.futexWait(t, req.addr, req.val, req.timeout, now)
	case sysFutexWake:
		n, err := k.futexWake(req.addr, req.n)
		t.res = result{err: err, ret: uint64(n)}
	case sysTimerCreate:
		id, err := k.timerCreate(t.vid)
		t.res = result{err: err, ret: uint64(id)}
	case sysTimerDelete:
		tm, err := k.timerOwned(t, req.timer)
		if err == nil {
			k.timerDelete(tm)
		}
		t.res.err = err
	case sysTimerArm:
		tm, err := k.timerOwned(t, req.timer)
		if err == nil {
			err = k.timerArm(tm, req.us, req.flags, now)
		}
		t.res.err = err
	case sysTimerCancel:
		tm, err := k.timerOwned(t, req.timer)
		if err == nil {
			k.timerCancel(tm)
		}
		t.res.err = err
	case sysTimerWait:
		tm, ok := k.timerLookup(req.timer)
		if !ok {
			t.res.err = ErrNotFound
			break
		}
		k.timerWait(t, tm, req.timeout, now)
	case sysClock:
		switch req.clock {
		case ClockMonotonic:
			t.res.ret = now * 1000
		case ClockRealtime:
			t.res.ret = uint64(k.plat.RealtimeNanos())
		default:
			t.res.err = ErrInvalid
		}
	case sysSigTake:
		t.res.ret = uint64(t.sigPending)
		t.sigPending, t.sigDeferred = 0, 0
	case sysSigMask:
		old, err := k.sigMask(t, req.how, req.set)
		t.res = result{err: err, ret: uint64(old)}
	case sysPanic:
		k.fatal(t.vid, req.panic, "thread panic: %v", req.panic.Value)
	default:
		k.fatal(t.vid, nil, "unknown system call %d", req.no)
	}
}
