// Package remap interns per-function variable names into dense slot ids.
// Names get slots in order of first appearance, so interning the
// parameters first places them at slots 0..argc-1.
package remap

import "github.com/raymyers/ralph-ilc/pkg/il"

// Table maps variable names to slots for a single function
type Table struct {
	slots map[string]il.Slot
	names []string
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{slots: make(map[string]il.Slot)}
}

// Slot returns the slot for name, assigning the next free slot on first use
func (t *Table) Slot(name string) il.Slot {
	if s, ok := t.slots[name]; ok {
		return s
	}
	s := il.Slot(len(t.names))
	t.slots[name] = s
	t.names = append(t.names, name)
	return s
}

// Lookup returns the slot for name without interning it
func (t *Table) Lookup(name string) (il.Slot, bool) {
	s, ok := t.slots[name]
	return s, ok
}

// Name returns the source name of a slot
func (t *Table) Name(s il.Slot) string {
	return t.names[s]
}

// Len returns the number of slots assigned so far
func (t *Table) Len() int {
	return len(t.names)
}

// Names returns a copy of the slot -> name table
func (t *Table) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}
