package regalloc

import "github.com/raymyers/ralph-ilc/pkg/il"

const nilEntry = -1

type spillEntry struct {
	slot       il.Slot
	end        int
	prev, next int
}

// spillQueue holds spilled variables ordered by interval end, soonest to
// die at the front. Entries live in an arena linked by index; removed
// entries are not reused since the queue only lives for one function.
type spillQueue struct {
	entries    []spillEntry
	head, tail int
	size       int
}

func newSpillQueue() *spillQueue {
	return &spillQueue{head: nilEntry, tail: nilEntry}
}

func (q *spillQueue) len() int {
	return q.size
}

// insert places slot after every entry whose end is not greater than end
func (q *spillQueue) insert(slot il.Slot, end int) {
	id := len(q.entries)
	q.entries = append(q.entries, spillEntry{slot: slot, end: end, prev: nilEntry, next: nilEntry})
	q.size++

	at := q.tail
	for at != nilEntry && q.entries[at].end > end {
		at = q.entries[at].prev
	}

	e := &q.entries[id]
	if at == nilEntry {
		e.next = q.head
		if q.head != nilEntry {
			q.entries[q.head].prev = id
		} else {
			q.tail = id
		}
		q.head = id
		return
	}

	e.prev = at
	e.next = q.entries[at].next
	if e.next != nilEntry {
		q.entries[e.next].prev = id
	} else {
		q.tail = id
	}
	q.entries[at].next = id
}

// front returns the entry with the smallest end
func (q *spillQueue) front() (slot il.Slot, end int, ok bool) {
	if q.head == nilEntry {
		return 0, 0, false
	}
	e := q.entries[q.head]
	return e.slot, e.end, true
}

func (q *spillQueue) popFront() (il.Slot, bool) {
	if q.head == nilEntry {
		return 0, false
	}
	e := q.entries[q.head]
	q.head = e.next
	if q.head != nilEntry {
		q.entries[q.head].prev = nilEntry
	} else {
		q.tail = nilEntry
	}
	q.size--
	return e.slot, true
}

func (q *spillQueue) popBack() (il.Slot, bool) {
	if q.tail == nilEntry {
		return 0, false
	}
	e := q.entries[q.tail]
	q.tail = e.prev
	if q.tail != nilEntry {
		q.entries[q.tail].next = nilEntry
	} else {
		q.head = nilEntry
	}
	q.size--
	return e.slot, true
}

// slots lists queued slots front to back
func (q *spillQueue) slots() []il.Slot {
	out := make([]il.Slot, 0, q.size)
	for at := q.head; at != nilEntry; at = q.entries[at].next {
		out = append(out, q.entries[at].slot)
	}
	return out
}
