package kernel

// Message is handed between threads by reference: Data aliases the sender's
// buffer, which stays valid because the sender is blocked until Reply.
type Message struct {
	From VID
	Dest VID
	Data []byte
}

// send starts a rendezvous from caller t. With block false a busy target
// fails the call instead of queueing it.
func (k *Kernel) send(t *tcb, msg Message, block bool) {
	target, ok := k.lookupLive(msg.Dest)
	if !ok {
		t.res.err = ErrNotFound
		return
	}
	if target == t {
		t.res.err = ErrInvalid
		return
	}
	msg.From = t.vid
	t.out = msg

	if target.port == portReadyToReceive {
		k.deliver(target, t)
		return
	}
	if !block {
		t.out = Message{}
		t.res.err = ErrWouldBlock
		return
	}
	if k.interruptPending(t) {
		t.out = Message{}
		return
	}
	k.move(t, &target.pending)
}

// deliver completes a rendezvous: caller moves to the server's reply ring and
// the server, blocked in Receive, resumes with the caller's message.
func (k *Kernel) deliver(server, caller *tcb) {
	k.move(caller, &server.replies)
	server.port = portListening
	server.res = result{msg: caller.out}
	k.makeReady(server)
}

// receive takes the oldest pending caller, or parks t until one arrives.
func (k *Kernel) receive(t *tcb, block bool) {
	if !t.pending.empty() {
		caller := &k.threads[t.pending.front()]
		k.move(caller, &t.replies)
		t.res.msg = caller.out
		return
	}
	if !block {
		t.res.err = ErrWouldBlock
		return
	}
	if k.interruptPending(t) {
		return
	}
	t.port = portReadyToReceive
	k.move(t, &k.receivers)
}

// reply completes the rendezvous with caller. A caller missing from t's
// reply ring means the port bookkeeping is corrupt.
func (k *Kernel) reply(t *tcb, to VID, data []byte) {
	caller, ok := k.lookupLive(to)
	if !ok || caller.node.owner != &t.replies {
		k.fatal(t.vid, nil, "reply to vid %d which is not awaiting a reply from this thread", to)
		return
	}
	caller.out = Message{}
	caller.res = result{msg: Message{From: t.vid, Dest: to, Data: data}}
	k.makeReady(caller)
}

// closePort fails every caller still queued on a terminating server.
func (k *Kernel) closePort(t *tcb) {
	for _, r := range []*ring{&t.pending, &t.replies} {
		for !r.empty() {
			caller := &k.threads[r.front()]
			caller.out = Message{}
			caller.res = result{err: ErrNotFound}
			k.makeReady(caller)
		}
	}
	t.port = portListening
}
