package kernel

// nilIndex terminates rings and marks an unlinked node.
const nilIndex int32 = -1

// link is the node embedded in a table record. Neighbours are table indices,
// so a recycled slot can never be reached through a stale pointer.
type link struct {
	prev, next int32
	owner      *ring
}

func (l *link) linked() bool { return l.owner != nil }

// arena resolves a table index to the link embedded in that record.
type arena interface {
	link(i int32) *link
}

// ring is a circular doubly-linked list of records of one arena. The tag is
// copied into a record's state whenever the kernel moves a thread onto it.
type ring struct {
	head int32
	n    int
	tag  uint8
}

func (r *ring) init(tag uint8) {
	r.head = nilIndex
	r.n = 0
	r.tag = tag
}

func (r *ring) empty() bool { return r.n == 0 }
func (r *ring) len() int    { return r.n }
func (r *ring) front() int32 {
	return r.head
}

// next returns the element after i, or nilIndex once the walk wraps to the head.
func (r *ring) next(a arena, i int32) int32 {
	n := a.link(i).next
	if n == r.head {
		return nilIndex
	}
	return n
}

func (r *ring) back(a arena) int32 {
	if r.head == nilIndex {
		return nilIndex
	}
	return a.link(r.head).prev
}

// pushBack appends i, unlinking it from whatever ring held it before.
func (r *ring) pushBack(a arena, i int32) {
	unlink(a, i)
	l := a.link(i)
	l.owner = r
	r.n++
	if r.head == nilIndex {
		l.prev, l.next = i, i
		r.head = i
		return
	}
	h := a.link(r.head)
	tail := h.prev
	l.prev, l.next = tail, r.head
	a.link(tail).next = i
	h.prev = i
}

// insertBefore links i in front of at, which must already be on r.
func (r *ring) insertBefore(a arena, at, i int32) {
	if at == nilIndex {
		r.pushBack(a, i)
		return
	}
	unlink(a, i)
	l := a.link(i)
	al := a.link(at)
	l.owner = r
	l.prev, l.next = al.prev, at
	a.link(al.prev).next = i
	al.prev = i
	if at == r.head {
		r.head = i
	}
	r.n++
}

// insertSorted links i before the first element whose key is greater than
// key(i). Equal keys keep arrival order.
func (r *ring) insertSorted(a arena, i int32, key func(int32) uint64) {
	k := key(i)
	at := nilIndex
	for j := r.front(); j != nilIndex; j = r.next(a, j) {
		if j == i {
			continue
		}
		if key(j) > k {
			at = j
			break
		}
	}
	r.insertBefore(a, at, i)
}

func (r *ring) popFront(a arena) int32 {
	i := r.head
	if i != nilIndex {
		unlink(a, i)
	}
	return i
}

// unlink removes i from its ring; unlinked nodes are left untouched.
func unlink(a arena, i int32) {
	l := a.link(i)
	r := l.owner
	if r == nil {
		return
	}
	if r.n == 1 {
		r.head = nilIndex
	} else {
		a.link(l.prev).next = l.next
		a.link(l.next).prev = l.prev
		if r.head == i {
			r.head = l.next
		}
	}
	r.n--
	l.prev, l.next, l.owner = nilIndex, nilIndex, nil
}
