package regalloc

import "sort"

// orderIndex holds two views of the live intervals, one sorted by start and
// one by end, each with its own cursor. Equal keys keep slot order.
type orderIndex struct {
	byStart  []*Interval
	byEnd    []*Interval
	startCur int
	endCur   int
	maxEnd   int
}

func newOrderIndex(intervals []*Interval) *orderIndex {
	idx := &orderIndex{maxEnd: -1}
	for _, iv := range intervals {
		if iv == nil {
			continue
		}
		idx.byStart = append(idx.byStart, iv)
		idx.byEnd = append(idx.byEnd, iv)
		if iv.End > idx.maxEnd {
			idx.maxEnd = iv.End
		}
	}
	sort.SliceStable(idx.byStart, func(i, j int) bool {
		return idx.byStart[i].Start < idx.byStart[j].Start
	})
	sort.SliceStable(idx.byEnd, func(i, j int) bool {
		return idx.byEnd[i].End < idx.byEnd[j].End
	})
	return idx
}

// peekStart returns the next unprocessed interval in start order
func (idx *orderIndex) peekStart() (*Interval, bool) {
	if idx.startCur >= len(idx.byStart) {
		return nil, false
	}
	return idx.byStart[idx.startCur], true
}

// peekEnd returns the next unprocessed interval in end order. Intervals
// reaching the maximal end live until function exit and are never returned.
func (idx *orderIndex) peekEnd() (*Interval, bool) {
	if idx.endCur >= len(idx.byEnd) {
		return nil, false
	}
	iv := idx.byEnd[idx.endCur]
	if iv.End == idx.maxEnd {
		return nil, false
	}
	return iv, true
}

// next returns the position of the next event and which kinds fire there
func (idx *orderIndex) next() (pos int, start, end, ok bool) {
	s, hasStart := idx.peekStart()
	e, hasEnd := idx.peekEnd()
	switch {
	case hasStart && hasEnd:
		pos = min(s.Start, e.End+1)
	case hasStart:
		pos = s.Start
	case hasEnd:
		pos = e.End + 1
	default:
		return 0, false, false, false
	}
	return pos, hasStart && s.Start == pos, hasEnd && e.End+1 == pos, true
}
