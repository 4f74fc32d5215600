package kernel

const vidBuckets = 16

type vidEntry struct {
	vid  VID
	slot int32
	next int32
}

// vidMap binds VIDs to thread slots. Entries come from a fixed pool sized to
// the thread table, chained per bucket by index.
type vidMap struct {
	buckets [vidBuckets]int32
	entries []vidEntry
	free    int32
	counter VID
}

func (m *vidMap) init(n int) {
	for i := range m.buckets {
		m.buckets[i] = nilIndex
	}
	m.entries = make([]vidEntry, n)
	for i := range m.entries {
		m.entries[i].next = int32(i + 1)
	}
	m.entries[n-1].next = nilIndex
	m.free = 0
}

func vidHash(v VID) int {
	return int(uint8(v)^uint8(v>>8)) % vidBuckets
}

// alloc draws the next unbound VID for slot.
func (m *vidMap) alloc(slot int32) (VID, error) {
	if m.free == nilIndex {
		return 0, ErrExhausted
	}
	for tries := 0; tries < 0xFFFF; tries++ {
		m.counter++
		if m.counter == 0 {
			m.counter = 1
		}
		if _, bound := m.lookup(m.counter); bound {
			continue
		}
		e := m.free
		m.free = m.entries[e].next
		b := vidHash(m.counter)
		m.entries[e] = vidEntry{vid: m.counter, slot: slot, next: m.buckets[b]}
		m.buckets[b] = e
		return m.counter, nil
	}
	return 0, ErrExhausted
}

func (m *vidMap) lookup(v VID) (int32, bool) {
	if v == 0 {
		return nilIndex, false
	}
	for e := m.buckets[vidHash(v)]; e != nilIndex; e = m.entries[e].next {
		if m.entries[e].vid == v {
			return m.entries[e].slot, true
		}
	}
	return nilIndex, false
}

func (m *vidMap) remove(v VID) {
	b := vidHash(v)
	prev := nilIndex
	for e := m.buckets[b]; e != nilIndex; e = m.entries[e].next {
		if m.entries[e].vid != v {
			prev = e
			continue
		}
		if prev == nilIndex {
			m.buckets[b] = m.entries[e].next
		} else {
			m.entries[prev].next = m.entries[e].next
		}
		m.entries[e] = vidEntry{next: m.free}
		m.free = e
		return
	}
}
