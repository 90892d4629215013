// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

package store

import (
	"sync"
)

// MemDB is a memory storage that implements the store.Interface.
// Because it's a transient storage you will loose all the data once the
// process exits. It's not completely useless though. You can use it when a
// temporary sharing is needed or in tests.
//
// The collection is kept encoded, the same way FileStore keeps it on disk,
// so callers never share slices with the store.
type MemDB struct {
	doc []byte
	sync.RWMutex
}

// Fail if the struct does not match the Interface.
var _ = Interface(&MemDB{})

// NewMemDB initialises and returns an instance of MemDB.
func NewMemDB() *MemDB {
	return &MemDB{}
}

// Initialize sets the document to an empty array unless it already has one.
func (m *MemDB) Initialize() error {
	m.Lock()
	defer m.Unlock()

	if m.doc == nil {
		m.doc = []byte("[]")
	}

	return nil
}

// LoadAll returns all the pastes.
func (m *MemDB) LoadAll() []Paste {
	m.RLock()
	defer m.RUnlock()

	return decode(m.doc)
}

// SaveAll replaces all the pastes.
func (m *MemDB) SaveAll(pastes []Paste) error {
	m.Lock()
	defer m.Unlock()

	return m.save(pastes)
}

// Get returns a paste by ID.
func (m *MemDB) Get(id string) (Paste, bool) {
	return find(m.LoadAll(), id)
}

// Update applies fn to the pastes under the write lock.
func (m *MemDB) Update(fn func([]Paste) ([]Paste, error)) error {
	m.Lock()
	defer m.Unlock()

	pastes, err := fn(decode(m.doc))
	if err != nil {
		return err
	}

	return m.save(pastes)
}

func (m *MemDB) save(pastes []Paste) error {
	doc, err := encode(pastes)
	if err != nil {
		return err
	}
	m.doc = doc

	return nil
}
