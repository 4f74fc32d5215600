// Package kernel is the scheduling and IPC core: the thread state machine,
// ready/sleep/wait rings, the priority scheduler loop, rendezvous message
// passing, futexes, timers and signal interruption.
//
// All state lives in one Kernel value behind one lock shared by every core.
package kernel

import (
	"context"
	"fmt"
	"sync"

	"duet/hal"

	"golang.org/x/sync/errgroup"
)

// Kernel owns every thread, queue and table of one machine.
type Kernel struct {
	cfg     Config
	plat    hal.Platform
	log     hal.Logger
	mu      sync.Locker
	sliceUS uint64

	threads   threadTable
	unused    ring
	ready     []ring
	running   []ring
	receivers ring
	sleepers  ring
	joiners   ring
	zombies   ring
	timeouts  ring

	vids    vidMap
	futexes []futexSlot

	timers    timerTable
	timerFree ring
	armed     ring

	idle    []bool
	live    int
	started bool
	halted  *Fatal
	panicFn func(PanicInfo)

	stats Stats
}

// Stats counts scheduler activity.
type Stats struct {
	ContextSwitches uint64
	Syscalls        uint64
	Preemptions     uint64
	TimerFires      uint64
	// Live is the number of threads that have not terminated.
	Live    int
	ByState map[State]int
}

// New builds a kernel over plat. log may be nil.
func New(cfg Config, plat hal.Platform, log hal.Logger) (*Kernel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kernel config: %w", err)
	}
	if plat == nil {
		return nil, fmt.Errorf("kernel: nil platform")
	}
	cores := plat.Cores()
	if cores != cfg.Cores {
		return nil, fmt.Errorf("kernel: platform has %d cores, config wants %d", cores, cfg.Cores)
	}

	k := &Kernel{
		cfg:     cfg,
		plat:    plat,
		log:     log,
		mu:      plat.Locker(),
		sliceUS: uint64(cfg.Slice.Microseconds()),
		idle:    make([]bool, cores),
	}

	k.threads = make(threadTable, cfg.MaxThreads)
	k.unused.init(uint8(StateFree))
	for i := range k.threads {
		t := &k.threads[i]
		t.slot = int32(i)
		t.joiner = nilIndex
		t.core = -1
		t.node = link{prev: nilIndex, next: nilIndex}
		t.tmo = link{prev: nilIndex, next: nilIndex}
		t.pending.init(uint8(StateWaitingMsg))
		t.replies.init(uint8(StateWaitingReply))
		k.move(t, &k.unused)
	}
	k.ready = make([]ring, cfg.Priorities)
	for p := range k.ready {
		k.ready[p].init(uint8(StateReady))
	}
	k.running = make([]ring, cores)
	for c := range k.running {
		k.running[c].init(uint8(StateRunning))
	}
	k.receivers.init(uint8(StateWaitingRead))
	k.sleepers.init(uint8(StateSleep))
	k.joiners.init(uint8(StatePendingJoin))
	k.zombies.init(uint8(StateZombie))
	k.timeouts.init(0)

	k.vids.init(cfg.MaxThreads)

	k.futexes = make([]futexSlot, cfg.FutexSlots)
	for i := range k.futexes {
		k.futexes[i].q.init()
	}

	k.timers = make(timerTable, cfg.MaxTimers)
	k.timerFree.init(timerFree)
	k.armed.init(timerArmed)
	for i := range k.timers {
		tm := &k.timers[i]
		tm.slot = int32(i)
		tm.node = link{prev: nilIndex, next: nilIndex}
		tm.q.init()
		k.timerFree.pushBack(k.timers, tm.slot)
	}
	return k, nil
}

// Spawn creates a thread from outside any thread, before or during Run.
func (k *Kernel) Spawn(entry Entry, attr ThreadAttr) (VID, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.halted != nil {
		return 0, k.halted
	}
	return k.create(entry, attr)
}

// Run drives every core until no live thread remains, ctx ends, or the
// kernel halts. A kernel runs once; afterwards its threads' contexts are
// released.
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.Lock()
	if k.started {
		k.mu.Unlock()
		return ErrInvalid
	}
	k.started = true
	k.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, k.wakeAll)
	defer stop()

	for core := range k.running {
		core := core
		g.Go(func() error { return k.runCore(gctx, core) })
	}
	err := g.Wait()
	k.release()
	return err
}

// Stats returns a snapshot of the scheduler counters.
func (k *Kernel) Stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := k.stats
	s.Live = k.live
	s.ByState = make(map[State]int)
	for i := range k.threads {
		s.ByState[k.threads[i].state]++
	}
	return s
}

// ExitCode reports the exit code of a zombie thread without reaping it.
func (k *Kernel) ExitCode(vid VID) (int, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, ok := k.lookup(vid)
	if !ok || t.state != StateZombie {
		return 0, false
	}
	return t.exit, true
}

// ThreadState reports the state of vid; unbound ids read as StateFree.
func (k *Kernel) ThreadState(vid VID) State {
	k.mu.Lock()
	defer k.mu.Unlock()
	t, ok := k.lookup(vid)
	if !ok {
		return StateFree
	}
	return t.state
}

func (k *Kernel) create(entry Entry, attr ThreadAttr) (VID, error) {
	if entry == nil || attr.Priority < 0 || attr.Priority >= len(k.ready) || attr.StackSize < 0 {
		return 0, ErrInvalid
	}
	slot := k.unused.front()
	if slot == nilIndex {
		return 0, ErrExhausted
	}
	vid, err := k.vids.alloc(slot)
	if err != nil {
		return 0, err
	}

	t := &k.threads[slot]
	t.vid = vid
	t.name = attr.Name
	t.prio = uint8(attr.Priority)
	t.stack = attr.StackSize
	if t.stack == 0 {
		t.stack = k.cfg.DefaultStack
	}
	t.detached = attr.Detached
	t.joiner = nilIndex
	t.user = &Context{k: k, t: t, vid: vid}
	t.ctx = k.plat.NewContext(k.trampoline(t.user, entry))
	k.live++
	k.makeReady(t)
	k.tracef("vid %d (%s) created at priority %d", vid, t.name, t.prio)
	return vid, nil
}

// trampoline is the first frame of every thread. A thread that returns
// exits with code 0; one that panics halts the kernel.
func (k *Kernel) trampoline(c *Context, entry Entry) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				c.t.sys = request{no: sysPanic, panic: &PanicInfo{VID: c.vid, Value: r, Stack: captureStack()}}
				k.plat.Exit(c.t.ctx)
			}
		}()
		entry(c)
		c.Exit(0)
	}
}

// terminate ends t. Its exit code goes to a joiner, or it lingers as a
// zombie unless detached.
func (k *Kernel) terminate(t *tcb, code int) {
	k.tracef("vid %d (%s) exited with code %#x", t.vid, t.name, code)
	k.deleteTimersOf(t.vid)
	k.closePort(t)
	k.unwait(t)
	if t.ctx != nil {
		k.plat.Destroy(t.ctx)
		t.ctx = nil
	}
	t.exit = code
	t.kill = false
	t.core = -1
	k.live--

	switch {
	case t.joiner != nilIndex:
		j := &k.threads[t.joiner]
		j.res = result{code: code}
		k.makeReady(j)
		k.free(t)
	case t.detached:
		k.free(t)
	default:
		k.move(t, &k.zombies)
	}
	if k.live == 0 {
		k.wakeAll()
	}
}

// free returns t's slot and VID to their pools.
func (k *Kernel) free(t *tcb) {
	k.vids.remove(t.vid)
	k.move(t, &k.unused)
	t.vid = 0
	t.name = ""
	t.user = nil
	t.joiner = nilIndex
	t.detached = false
	t.sigPending, t.sigMask, t.sigDeferred = 0, 0, 0
	t.port = portListening
	t.out = Message{}
	t.sys = request{}
	t.res = result{}
	t.exit = 0
}

func (k *Kernel) join(t *tcb, vid VID) {
	target, ok := k.lookup(vid)
	if !ok {
		t.res.err = ErrNotFound
		return
	}
	if target == t || target.detached || target.joiner != nilIndex {
		t.res.err = ErrInvalid
		return
	}
	if target.state == StateZombie {
		t.res.code = target.exit
		k.free(target)
		return
	}
	target.joiner = t.slot
	k.move(t, &k.joiners)
}

func (k *Kernel) detach(vid VID) error {
	target, ok := k.lookup(vid)
	if !ok {
		return ErrNotFound
	}
	if target.detached || target.joiner != nilIndex {
		return ErrInvalid
	}
	if target.state == StateZombie {
		k.free(target)
		return nil
	}
	target.detached = true
	return nil
}

func (k *Kernel) setPriority(vid VID, prio int) error {
	if prio < 0 || prio >= len(k.ready) {
		return ErrInvalid
	}
	target, ok := k.lookupLive(vid)
	if !ok {
		return ErrNotFound
	}
	target.prio = uint8(prio)
	if target.state == StateReady {
		k.makeReady(target)
	}
	return nil
}

func (k *Kernel) wakeAll() {
	for core := range k.idle {
		k.plat.Wake(core)
	}
}

// release discards the contexts of threads still parked when Run returns.
func (k *Kernel) release() {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := range k.threads {
		t := &k.threads[i]
		if t.ctx != nil {
			k.plat.Destroy(t.ctx)
			t.ctx = nil
		}
	}
	for core := range k.idle {
		k.plat.SetDeadline(core, 0)
	}
}

func (k *Kernel) logf(format string, args ...any) {
	if k.log == nil {
		return
	}
	k.log.WriteLineString("kernel: " + fmt.Sprintf(format, args...))
}

func (k *Kernel) tracef(format string, args ...any) {
	if !k.cfg.Trace {
		return
	}
	k.logf(format, args...)
}
