// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package vm

// tableMaxLoad is the load-factor threshold (count of live+tombstone
// entries over capacity) that triggers a rehash, per spec.md §4.3.
const tableMaxLoad = 0.75

// entry is one slot of a Table. Three states distinguish a slot:
//   - empty:     Key == nil, Value.IsNil()
//   - tombstone: Key == nil, Value is Bool(true)
//   - live:      Key != nil
type entry struct {
	Key   *Obj // *Obj wrapping an ObjString, or nil
	Value Value
}

func (e entry) isEmpty() bool     { return e.Key == nil && e.Value.IsNil() }
func (e entry) isTombstone() bool { return e.Key == nil && !e.Value.IsNil() }

// Table is the open-addressed, linear-probed hash map used for globals,
// instance fields, class method tables, and the string intern pool
// (spec.md §4.3). count includes tombstones for growth accounting.
type Table struct {
	count   int
	entries []entry
}

// findEntry locates the slot a key belongs in: the first tombstone seen, or
// the first empty slot if no tombstone was encountered, so Set can reclaim
// tombstone slots. Termination is guaranteed by capping load factor below
// tableMaxLoad on every insert.
func findEntry(entries []entry, key *Obj) *entry {
	cap := len(entries)
	index := int(key.Str.hash) % cap
	var tombstone *entry
	for {
		e := &entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				// Empty slot: prefer an earlier tombstone if we found one.
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.Key == key {
			return e
		}
		index = (index + 1) % cap
	}
}

func (t *Table) adjustCapacity(newCap int) {
	entries := make([]entry, newCap)
	for i := range entries {
		entries[i] = entry{Value: NilVal()}
	}

	t.count = 0
	for _, old := range t.entries {
		if old.Key == nil {
			continue
		}
		dst := findEntry(entries, old.Key)
		dst.Key = old.Key
		dst.Value = old.Value
		t.count++
	}

	t.entries = entries
}

// Set inserts or updates key -> value. It returns true iff the key had no
// live entry before the call (tombstones do not count as live), regardless
// of whether a tombstone slot was reclaimed.
func (t *Table) Set(key *Obj, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		newCap := growCapacity(len(t.entries))
		t.adjustCapacity(newCap)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.Key == nil
	if isNewKey && e.Value.IsNil() {
		t.count++
	}

	e.Key = key
	e.Value = value
	return isNewKey
}

// Get looks up key, reporting whether it was found.
func (t *Table) Get(key *Obj) (Value, bool) {
	if len(t.entries) == 0 {
		return NilVal(), false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return NilVal(), false
	}
	return e.Value, true
}

// Delete replaces a live entry with a tombstone. The count is not
// decremented: tombstones keep occupying their slot so later probes that
// pass through them still reach keys that were inserted after.
func (t *Table) Delete(key *Obj) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.Key == nil {
		return false
	}
	e.Key = nil
	e.Value = BoolVal(true)
	return true
}

// AddAll copies every live entry of src into dst, used by OP_INHERIT to
// seed a subclass's method table from its superclass.
func AddAll(src, dst *Table) {
	for _, e := range src.entries {
		if e.Key != nil {
			dst.Set(e.Key, e.Value)
		}
	}
}

// FindString is the interner's special lookup: it has no String object to
// compare by identity yet, so it compares by length, hash, then bytes.
func (t *Table) FindString(s string, hash uint32) *Obj {
	if len(t.entries) == 0 {
		return nil
	}
	cap := len(t.entries)
	index := int(hash) % cap
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if e.Value.IsNil() {
				return nil
			}
		} else if e.Key.Str.hash == hash && e.Key.Str.chars == s {
			return e.Key
		}
		index = (index + 1) % cap
	}
}

// removeWhiteEntries implements the GC's weak-reference pass over the
// intern table: entries whose key is unmarked are deleted before sweep runs,
// so the sweep can free them without leaving a dangling pointer behind
// (spec.md §4.9 step 3).
func (t *Table) removeWhiteEntries() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.Marked {
			e.Key = nil
			e.Value = BoolVal(true)
		}
	}
}

// growCapacity implements the allocator's array growth policy (spec.md §4.1):
// cap < 8 -> 8, else cap * 2.
func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

// Entries exposes every slot of the table (live, empty, and tombstone
// alike) for iteration helpers; callers skip slots whose Key is nil and
// must not mutate the returned slice. GC marking (gc.go's markTable) reads
// the slots directly rather than through Entries.
func (t *Table) Entries() []entry { return t.entries }
