package kernel

// waitQueue is a FIFO of threads blocked in StateWaitingSync. Members point
// back at it through tcb.waitq.
type waitQueue struct {
	r ring
}

func (q *waitQueue) init()    { q.r.init(uint8(StateWaitingSync)) }
func (q *waitQueue) len() int { return q.r.len() }

// block parks t on q. A negative timeout waits forever; callers handle zero.
func (k *Kernel) block(t *tcb, q *waitQueue, timeout int64, now uint64) {
	k.move(t, &q.r)
	t.waitq = q
	if timeout >= 0 {
		t.expiry = now + uint64(timeout)
		k.timeouts.insertSorted(timeoutTable(k.threads), t.slot, func(i int32) uint64 {
			return k.threads[i].expiry
		})
	}
}

// unwait drops t's wait-queue bookkeeping. The caller relinks t.
func (k *Kernel) unwait(t *tcb) {
	t.waitq = nil
	unlink(timeoutTable(k.threads), t.slot)
}

// wake resumes a waiter with err as its result.
func (k *Kernel) wake(t *tcb, err error) {
	k.unwait(t)
	t.res.err = err
	k.makeReady(t)
}

// wakeN resumes up to n waiters of q in FIFO order. A negative n wakes all.
func (k *Kernel) wakeN(q *waitQueue, n int, err error) int {
	woken := 0
	for (n < 0 || woken < n) && !q.r.empty() {
		k.wake(&k.threads[q.r.front()], err)
		woken++
	}
	return woken
}

func (k *Kernel) sleep(t *tcb, us uint64, now uint64) {
	t.expiry = now + us
	k.moveSorted(t, &k.sleepers)
}

// expire readies sleepers and timed waiters whose deadline has passed.
func (k *Kernel) expire(now uint64) {
	for !k.sleepers.empty() {
		t := &k.threads[k.sleepers.front()]
		if t.expiry > now {
			break
		}
		t.res = result{}
		k.makeReady(t)
	}
	for !k.timeouts.empty() {
		t := &k.threads[k.timeouts.front()]
		if t.expiry > now {
			break
		}
		k.wake(t, ErrTimedOut)
	}
}
