package kernel

import (
	"sync/atomic"
	"unsafe"
)

// futexSlot is one entry of the open-addressed futex table. A slot whose
// queue drained stays keyed until another address claims it.
type futexSlot struct {
	key  *uint32
	used bool
	q    waitQueue
}

func futexHash(addr *uint32, n int) int {
	a := uint64(uintptr(unsafe.Pointer(addr)))
	return int(((a >> 2) * 0x9E3779B97F4A7C15 >> 32) % uint64(n))
}

// futexLookup finds the slot keyed by addr without allocating.
func (k *Kernel) futexLookup(addr *uint32) *futexSlot {
	n := len(k.futexes)
	h := futexHash(addr, n)
	for i := 0; i < n; i++ {
		s := &k.futexes[(h+i)%n]
		if !s.used {
			return nil
		}
		if s.key == addr {
			return s
		}
	}
	return nil
}

// futexSlotFor returns addr's slot, claiming the first drained slot on its
// probe path when addr has none.
func (k *Kernel) futexSlotFor(addr *uint32) (*futexSlot, error) {
	n := len(k.futexes)
	h := futexHash(addr, n)
	var spare *futexSlot
	for i := 0; i < n; i++ {
		s := &k.futexes[(h+i)%n]
		if s.used && s.key == addr {
			return s, nil
		}
		if spare == nil && s.q.len() == 0 {
			spare = s
		}
		if !s.used {
			break
		}
	}
	if spare == nil {
		return nil, ErrExhausted
	}
	spare.key = addr
	spare.used = true
	return spare, nil
}

func (k *Kernel) futexWait(t *tcb, addr *uint32, expected uint32, timeout int64, now uint64) {
	if addr == nil {
		t.res.err = ErrInvalid
		return
	}
	if atomic.LoadUint32(addr) != expected {
		t.res.err = ErrValueChanged
		return
	}
	if timeout == 0 {
		t.res.err = ErrTimedOut
		return
	}
	if k.interruptPending(t) {
		return
	}
	s, err := k.futexSlotFor(addr)
	if err != nil {
		t.res.err = err
		return
	}
	k.block(t, &s.q, timeout, now)
}

func (k *Kernel) futexWake(addr *uint32, n int) (int, error) {
	if addr == nil || n < 0 {
		return 0, ErrInvalid
	}
	s := k.futexLookup(addr)
	if s == nil {
		return 0, nil
	}
	return k.wakeN(&s.q, n, nil), nil
}
