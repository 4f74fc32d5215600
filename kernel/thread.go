package kernel

import "duet/hal"

// VID is the externally visible thread id. Zero never names a thread.
type VID uint16

// State is the scheduling state of a thread. A thread's state always equals
// the tag of the one state ring it is linked into.
type State uint8

const (
	StateFree State = iota
	StateReady
	StateRunning
	// StateWaitingMsg: a caller queued on a busy server's pending ring.
	StateWaitingMsg
	// StateWaitingRead: a server blocked in Receive.
	StateWaitingRead
	// StateWaitingReply: a caller whose message was taken, awaiting Reply.
	StateWaitingReply
	// StateWaitingSync: blocked on a futex or timer wait queue.
	StateWaitingSync
	StateSleep
	StatePendingJoin
	StateZombie

	numStates
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateWaitingMsg:
		return "waiting_msg"
	case StateWaitingRead:
		return "waiting_read"
	case StateWaitingReply:
		return "waiting_reply"
	case StateWaitingSync:
		return "waiting_sync"
	case StateSleep:
		return "sleep"
	case StatePendingJoin:
		return "pending_join"
	case StateZombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// portState is the receive side of a thread's IPC port.
type portState uint8

const (
	// portListening: not blocked in Receive; callers queue on the pending ring.
	portListening portState = iota
	// portReadyToReceive: blocked in Receive with nothing pending.
	portReadyToReceive
)

// tcb is a thread control block.
type tcb struct {
	slot  int32
	vid   VID
	name  string
	prio  uint8
	state State
	stack int

	node link // state ring
	tmo  link // timeout index

	expiry   uint64
	sliceEnd uint64
	core     int
	exit     int

	ctx  hal.Context
	user *Context

	sigPending  uint32
	sigMask     uint32
	sigDeferred uint32 // pending signals that found no wait to interrupt
	kill        bool

	joiner   int32
	detached bool

	port    portState
	pending ring // callers not yet received (StateWaitingMsg)
	replies ring // callers received, awaiting Reply (StateWaitingReply)
	out     Message

	waitq *waitQueue

	sys request
	res result
}

type threadTable []tcb

func (t threadTable) link(i int32) *link { return &t[i].node }

// timeoutTable views the thread table through each record's timeout link.
type timeoutTable []tcb

func (t timeoutTable) link(i int32) *link { return &t[i].tmo }

// move relinks t onto r and takes r's tag as its state. Every state change
// goes through here.
func (k *Kernel) move(t *tcb, r *ring) {
	r.pushBack(k.threads, t.slot)
	t.state = State(r.tag)
}

// moveSorted is move with the ring kept ordered by expiry.
func (k *Kernel) moveSorted(t *tcb, r *ring) {
	r.insertSorted(k.threads, t.slot, func(i int32) uint64 { return k.threads[i].expiry })
	t.state = State(r.tag)
}

// makeReady queues t at the tail of its priority bucket and pokes an idle core.
func (k *Kernel) makeReady(t *tcb) {
	k.move(t, &k.ready[t.prio])
	t.core = -1
	for core, idle := range k.idle {
		if idle {
			k.plat.Wake(core)
			return
		}
	}
}

// mostUrgent returns the lowest non-empty priority bucket, or -1.
func (k *Kernel) mostUrgent() int {
	for p := range k.ready {
		if !k.ready[p].empty() {
			return p
		}
	}
	return -1
}

func (k *Kernel) popReady() *tcb {
	p := k.mostUrgent()
	if p < 0 {
		return nil
	}
	return &k.threads[k.ready[p].popFront(k.threads)]
}

// lookup resolves a VID to a thread that has not been freed.
func (k *Kernel) lookup(vid VID) (*tcb, bool) {
	slot, ok := k.vids.lookup(vid)
	if !ok {
		return nil, false
	}
	t := &k.threads[slot]
	if t.state == StateFree || t.vid != vid {
		return nil, false
	}
	return t, true
}

// lookupLive is lookup restricted to threads that have not terminated.
func (k *Kernel) lookupLive(vid VID) (*tcb, bool) {
	t, ok := k.lookup(vid)
	if !ok || t.state == StateZombie {
		return nil, false
	}
	return t, true
}
