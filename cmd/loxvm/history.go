// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package main

import (
	"encoding/binary"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
)

// replHistory persists every REPL line across process runs, keyed by a
// monotonic sequence number, the same leveldb-backed storage idiom the
// wider tree uses for its own key/value state (probedb/leveldb).
type replHistory struct {
	db   *leveldb.DB
	next uint64
}

func openHistory(dir string) (*replHistory, error) {
	db, err := leveldb.OpenFile(filepath.Join(dir, "repl_history.ldb"), nil)
	if err != nil {
		return nil, err
	}
	h := &replHistory{db: db}
	iter := db.NewIterator(nil, nil)
	for iter.Next() {
		h.next++
	}
	iter.Release()
	return h, iter.Error()
}

// Append records line under the next sequence key.
func (h *replHistory) Append(line string) error {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, h.next)
	if err := h.db.Put(key, []byte(line), nil); err != nil {
		return err
	}
	h.next++
	return nil
}

// Lines returns every recorded line in order, oldest first, for seeding
// liner's in-memory up-arrow history at startup.
func (h *replHistory) Lines() ([]string, error) {
	var lines []string
	iter := h.db.NewIterator(nil, nil)
	for iter.Next() {
		lines = append(lines, string(iter.Value()))
	}
	iter.Release()
	return lines, iter.Error()
}

func (h *replHistory) Close() error { return h.db.Close() }
