package hal

import (
	"runtime"
	"sync"
	"time"
)

// hostPlatform runs each kernel thread on its own goroutine. Only one side of
// a context pair runs at a time: Switch blocks the core until the thread
// traps, Trap blocks the thread until some core switches to it again.
type hostPlatform struct {
	lock  sync.Mutex
	cores []hostCore
	base  uint64
}

type hostCore struct {
	wake chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

type hostContext struct {
	entry   func()
	started bool

	resume chan struct{}
	trap   chan struct{}
	dead   chan struct{}
	once   sync.Once
}

// NewHostPlatform returns the goroutine-backed platform used on development hosts.
func NewHostPlatform(cores int) Platform {
	return newHostPlatform(cores)
}

func newHostPlatform(cores int) *hostPlatform {
	if cores <= 0 {
		cores = 1
	}
	p := &hostPlatform{cores: make([]hostCore, cores)}
	for i := range p.cores {
		p.cores[i].wake = make(chan struct{}, 1)
	}
	p.base = monotonicMicros()
	return p
}

func (p *hostPlatform) Cores() int          { return len(p.cores) }
func (p *hostPlatform) Locker() sync.Locker { return &p.lock }

func (p *hostPlatform) NewContext(entry func()) Context {
	return &hostContext{
		entry:  entry,
		resume: make(chan struct{}),
		trap:   make(chan struct{}),
		dead:   make(chan struct{}),
	}
}

func (p *hostPlatform) Switch(core int, c Context) {
	hc := c.(*hostContext)
	if !hc.started {
		hc.started = true
		go hc.entry()
	} else {
		hc.resume <- struct{}{}
	}
	<-hc.trap
}

func (p *hostPlatform) Trap(c Context) {
	hc := c.(*hostContext)
	hc.trap <- struct{}{}
	select {
	case <-hc.resume:
	case <-hc.dead:
		runtime.Goexit()
	}
}

func (p *hostPlatform) Exit(c Context) {
	hc := c.(*hostContext)
	hc.trap <- struct{}{}
	runtime.Goexit()
}

func (p *hostPlatform) Destroy(c Context) {
	hc, ok := c.(*hostContext)
	if !ok || hc == nil {
		return
	}
	hc.once.Do(func() { close(hc.dead) })
}

func (p *hostPlatform) Micros() uint64 {
	return monotonicMicros() - p.base
}

func (p *hostPlatform) RealtimeNanos() int64 {
	return realtimeNanos()
}

func (p *hostPlatform) SetDeadline(core int, us uint64) {
	c := &p.cores[core]
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if us == 0 {
		return
	}
	c.timer = time.AfterFunc(time.Duration(us)*time.Microsecond, func() { p.Wake(core) })
}

func (p *hostPlatform) Idle(core int) {
	<-p.cores[core].wake
}

func (p *hostPlatform) Wake(core int) {
	if core < 0 || core >= len(p.cores) {
		return
	}
	select {
	case p.cores[core].wake <- struct{}{}:
	default:
	}
}
