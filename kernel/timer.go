package kernel

// TimerID names a timer. It encodes the table slot and a generation so a
// deleted id does not alias the slot's next occupant.
type TimerID uint32

// TimerFlags modify TimerArm.
type TimerFlags uint8

const (
	// TimerPeriodic re-arms the timer by its duration each time it fires.
	TimerPeriodic TimerFlags = 1 << iota
)

type timer struct {
	node  link
	slot  int32
	gen   uint16
	used  bool
	owner VID

	deadline uint64
	period   uint64
	flags    TimerFlags
	fires    uint32

	q waitQueue
}

func (t *timer) id() TimerID { return TimerID(uint32(t.gen)<<16 | uint32(t.slot+1)) }

func (t *timer) armed() bool { return t.node.linked() && t.node.owner.tag == timerArmed }

type timerTable []timer

func (t timerTable) link(i int32) *link { return &t[i].node }

// Tags of the two timer rings.
const (
	timerFree uint8 = iota
	timerArmed
)

func (k *Kernel) timerLookup(id TimerID) (*timer, bool) {
	slot := int32(id&0xFFFF) - 1
	if slot < 0 || int(slot) >= len(k.timers) {
		return nil, false
	}
	tm := &k.timers[slot]
	if !tm.used || tm.gen != uint16(id>>16) {
		return nil, false
	}
	return tm, true
}

// timerOwned resolves id for an operation reserved to its owner.
func (k *Kernel) timerOwned(t *tcb, id TimerID) (*timer, error) {
	tm, ok := k.timerLookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	if tm.owner != t.vid {
		return nil, ErrPermission
	}
	return tm, nil
}

func (k *Kernel) timerCreate(owner VID) (TimerID, error) {
	slot := k.timerFree.popFront(k.timers)
	if slot == nilIndex {
		return 0, ErrExhausted
	}
	tm := &k.timers[slot]
	tm.gen++
	tm.used = true
	tm.owner = owner
	tm.deadline, tm.period, tm.flags, tm.fires = 0, 0, 0, 0
	return tm.id(), nil
}

func (k *Kernel) timerArm(tm *timer, us uint64, flags TimerFlags, now uint64) error {
	if us == 0 {
		return ErrInvalid
	}
	tm.deadline = now + us
	tm.flags = flags
	tm.period = 0
	if flags&TimerPeriodic != 0 {
		tm.period = us
	}
	k.timerInsert(tm)
	return nil
}

// timerInsert (re)links tm into the deadline ring by linear scan.
func (k *Kernel) timerInsert(tm *timer) {
	k.armed.insertSorted(k.timers, tm.slot, func(i int32) uint64 { return k.timers[i].deadline })
}

func (k *Kernel) timerCancel(tm *timer) {
	if tm.armed() {
		unlink(k.timers, tm.slot)
	}
}

func (k *Kernel) timerDelete(tm *timer) {
	k.timerCancel(tm)
	k.wakeN(&tm.q, -1, ErrCancelled)
	tm.used = false
	tm.owner = 0
	k.timerFree.pushBack(k.timers, tm.slot)
}

func (k *Kernel) timerWait(t *tcb, tm *timer, timeout int64, now uint64) {
	if tm.fires > 0 {
		tm.fires--
		return
	}
	if timeout == 0 {
		t.res.err = ErrTimedOut
		return
	}
	if k.interruptPending(t) {
		return
	}
	k.block(t, &tm.q, timeout, now)
}

// fireTimers fires every due timer in deadline order.
func (k *Kernel) fireTimers(now uint64) {
	for !k.armed.empty() {
		tm := &k.timers[k.armed.front()]
		if tm.deadline > now {
			return
		}
		unlink(k.timers, tm.slot)
		if tm.period > 0 {
			tm.deadline += tm.period
			k.timerInsert(tm)
		}
		k.stats.TimerFires++
		if k.wakeN(&tm.q, 1, nil) == 0 {
			tm.fires++
		}
	}
}

// deleteTimersOf frees every timer owned by vid.
func (k *Kernel) deleteTimersOf(vid VID) {
	for i := range k.timers {
		tm := &k.timers[i]
		if tm.used && tm.owner == vid {
			k.timerDelete(tm)
		}
	}
}
