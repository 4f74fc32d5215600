package kernel

import "time"

// Entry is the body of a thread.
type Entry func(ctx *Context)

// ThreadAttr configures a new thread.
type ThreadAttr struct {
	Name string
	// Priority selects the ready bucket; 0 is the most urgent.
	Priority int
	// StackSize is recorded for the platform; 0 picks Config.DefaultStack.
	StackSize int
	// Detached threads are reaped on exit instead of becoming zombies.
	Detached bool
}

// ClockID selects the clock read by Context.Clock.
type ClockID uint8

const (
	ClockMonotonic ClockID = iota
	ClockRealtime
)

// Forever disables the timeout of a blocking wait.
const Forever time.Duration = -1

// Context is a thread's handle on the kernel. Every method is a system call
// and may only be used from the thread the Context was given to.
type Context struct {
	k   *Kernel
	t   *tcb
	vid VID
}

// Self returns the calling thread's VID.
func (c *Context) Self() VID { return c.vid }

func (c *Context) syscall(req request) result {
	c.t.sys = req
	c.k.plat.Trap(c.t.ctx)
	return c.t.res
}

// timeoutMicros converts a wait bound; negative means forever.
func timeoutMicros(d time.Duration) int64 {
	if d < 0 {
		return -1
	}
	us := int64(d / time.Microsecond)
	if us == 0 && d > 0 {
		us = 1
	}
	return us
}

// Create starts a new thread running entry.
func (c *Context) Create(entry Entry, attr ThreadAttr) (VID, error) {
	res := c.syscall(request{no: sysCreate, entry: entry, attr: attr})
	return VID(res.ret), res.err
}

// Join waits for vid to terminate and returns its exit code. Only one
// thread may join a given thread.
func (c *Context) Join(vid VID) (int, error) {
	res := c.syscall(request{no: sysJoin, vid: vid})
	return res.code, res.err
}

// Detach arranges for vid to be reaped as soon as it terminates.
func (c *Context) Detach(vid VID) error {
	return c.syscall(request{no: sysDetach, vid: vid}).err
}

// Exit terminates the calling thread. It does not return.
func (c *Context) Exit(code int) {
	c.t.sys = request{no: sysExit, code: code}
	c.k.plat.Exit(c.t.ctx)
}

func (c *Context) SetPriority(vid VID, prio int) error {
	return c.syscall(request{no: sysSetPriority, vid: vid, prio: prio}).err
}

// Kill sends sig to vid. Signal 0 only checks that vid is alive.
func (c *Context) Kill(vid VID, sig Signal) error {
	return c.syscall(request{no: sysKill, vid: vid, sig: sig}).err
}

// Yield moves the caller to the tail of its ready bucket.
func (c *Context) Yield() {
	c.syscall(request{no: sysYield})
}

// Sleep blocks for d. When a signal cuts it short the remaining time is
// returned with ErrInterrupted.
func (c *Context) Sleep(d time.Duration) (time.Duration, error) {
	us := timeoutMicros(d)
	if us < 0 {
		return 0, ErrInvalid
	}
	res := c.syscall(request{no: sysSleep, us: uint64(us)})
	return time.Duration(res.ret) * time.Microsecond, res.err
}

// Call sends data to dest and blocks until dest replies. data is lent to the
// receiver, not copied, and must not be modified until Call returns.
func (c *Context) Call(dest VID, data []byte) ([]byte, error) {
	res := c.syscall(request{no: sysCall, msg: Message{Dest: dest, Data: data}})
	return res.msg.Data, res.err
}

// TrySend is Call that fails with ErrWouldBlock unless dest is already
// waiting in Receive.
func (c *Context) TrySend(dest VID, data []byte) ([]byte, error) {
	res := c.syscall(request{no: sysTrySend, msg: Message{Dest: dest, Data: data}})
	return res.msg.Data, res.err
}

// Receive blocks until a caller arrives. The caller stays blocked until Reply.
func (c *Context) Receive() (Message, error) {
	res := c.syscall(request{no: sysReceive})
	return res.msg, res.err
}

// TryReceive is Receive that fails with ErrWouldBlock when nobody is queued.
func (c *Context) TryReceive() (Message, error) {
	res := c.syscall(request{no: sysTryReceive})
	return res.msg, res.err
}

// Reply releases caller with data. caller must have been received by this thread.
func (c *Context) Reply(caller VID, data []byte) error {
	return c.syscall(request{no: sysReply, vid: caller, msg: Message{Dest: caller, Data: data}}).err
}

// FutexWait blocks while *addr == val, for at most timeout.
func (c *Context) FutexWait(addr *uint32, val uint32, timeout time.Duration) error {
	return c.syscall(request{no: sysFutexWait, addr: addr, val: val, timeout: timeoutMicros(timeout)}).err
}

// FutexWake wakes up to n threads waiting on addr and returns how many it woke.
func (c *Context) FutexWake(addr *uint32, n int) (int, error) {
	res := c.syscall(request{no: sysFutexWake, addr: addr, n: n})
	return int(res.ret), res.err
}

func (c *Context) TimerCreate() (TimerID, error) {
	res := c.syscall(request{no: sysTimerCreate})
	return TimerID(res.ret), res.err
}

// TimerDelete frees id; threads waiting on it get ErrCancelled.
func (c *Context) TimerDelete(id TimerID) error {
	return c.syscall(request{no: sysTimerDelete, timer: id}).err
}

// TimerArm sets id to fire after d, and every d after that with TimerPeriodic.
func (c *Context) TimerArm(id TimerID, d time.Duration, flags TimerFlags) error {
	if d <= 0 {
		return ErrInvalid
	}
	return c.syscall(request{no: sysTimerArm, timer: id, us: uint64(timeoutMicros(d)), flags: flags}).err
}

func (c *Context) TimerCancel(id TimerID) error {
	return c.syscall(request{no: sysTimerCancel, timer: id}).err
}

// TimerWait consumes one fire of id, blocking for at most timeout if none is pending.
func (c *Context) TimerWait(id TimerID, timeout time.Duration) error {
	return c.syscall(request{no: sysTimerWait, timer: id, timeout: timeoutMicros(timeout)}).err
}

// Clock reads a clock in nanoseconds.
func (c *Context) Clock(id ClockID) (int64, error) {
	res := c.syscall(request{no: sysClock, clock: id})
	return int64(res.ret), res.err
}

// SigTake returns and clears the caller's pending signals.
func (c *Context) SigTake() SigSet {
	return SigSet(c.syscall(request{no: sysSigTake}).ret)
}

// SigMask edits the caller's blocked signals and returns the previous mask.
// SIGKILL cannot be blocked.
func (c *Context) SigMask(how MaskHow, set SigSet) (SigSet, error) {
	res := c.syscall(request{no: sysSigMask, how: how, set: set})
	return SigSet(res.ret), res.err
}
