// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/peterbourgon/diskv/v3"
)

// ErrNoFile is returned by NewFileStore when the file path is empty.
var ErrNoFile = errors.New("backing file path is empty")

const (
	defaultDirMode = 0o755
	tempDirName    = ".tmp"
)

// FileConfig is the input configuration for the file storage of pastes.
type FileConfig struct {
	// File is the path of the JSON document holding all the pastes.
	File string
	// The file mode given to new folders. Uses a sane default it omitted.
	DirMode os.FileMode
}

// FileStore keeps all the pastes in a single JSON file. Writes go to a
// temporary file first and are renamed over the document, so readers see
// either the old or the new collection and never a partial one.
type FileStore struct {
	disk *diskv.Diskv
	key  string
	sync.RWMutex
}

// Fail if the struct does not match the Interface.
var _ = Interface(&FileStore{})

// NewFileStore should be called once on startup to initialize a file
// storage backend for pastes. The directory of the file is created if
// needed, the file itself is left alone until Initialize or SaveAll.
func NewFileStore(config *FileConfig) (*FileStore, error) {
	if config.File == "" {
		return nil, ErrNoFile
	}
	if config.DirMode == 0 {
		config.DirMode = defaultDirMode
	}

	dir, key := filepath.Split(filepath.Clean(config.File))
	if dir == "" {
		dir = "."
	}

	if err := os.MkdirAll(dir, config.DirMode); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dirStat, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data dir missing? %w", err)
	}
	if !dirStat.IsDir() {
		return nil, fmt.Errorf("data dir is not a directory: %s", dirStat.Name())
	}

	return &FileStore{
		key: key,
		disk: diskv.New(diskv.Options{
			BasePath: dir,
			TempDir:  filepath.Join(dir, tempDirName),
			PathPerm: config.DirMode,
		}),
	}, nil
}

// Initialize creates the backing file with an empty array if it doesn't
// exist. An existing file is never touched, valid or not.
func (f *FileStore) Initialize() error {
	f.Lock()
	defer f.Unlock()

	if f.disk.Has(f.key) {
		return nil
	}

	if err := f.disk.Write(f.key, []byte("[]")); err != nil {
		return fmt.Errorf("disk.Initialize: %w", err)
	}

	return nil
}

// LoadAll returns all the pastes in the order they are stored. A missing or
// unreadable file results in an empty list.
func (f *FileStore) LoadAll() []Paste {
	f.RLock()
	defer f.RUnlock()

	return f.load()
}

// SaveAll overwrites the file with the given pastes.
func (f *FileStore) SaveAll(pastes []Paste) error {
	f.Lock()
	defer f.Unlock()

	return f.save(pastes)
}

// Get returns the first paste with the given id.
func (f *FileStore) Get(id string) (Paste, bool) {
	return find(f.LoadAll(), id)
}

// Update loads all the pastes, passes them to fn and saves whatever fn
// returns. No other write can happen in between. Nothing is saved if fn
// returns an error.
func (f *FileStore) Update(fn func([]Paste) ([]Paste, error)) error {
	f.Lock()
	defer f.Unlock()

	pastes, err := fn(f.load())
	if err != nil {
		return err
	}

	return f.save(pastes)
}

func (f *FileStore) load() []Paste {
	r, err := f.disk.ReadStream(f.key, true)
	if err != nil {
		return []Paste{}
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return []Paste{}
	}

	return decode(data)
}

func (f *FileStore) save(pastes []Paste) error {
	data, err := encode(pastes)
	if err != nil {
		return fmt.Errorf("disk.SaveAll: encoding: %w", err)
	}

	if err := f.disk.WriteStream(f.key, bytes.NewReader(data), true); err != nil {
		return fmt.Errorf("disk.SaveAll: writing %s: %w", f.key, err)
	}

	return nil
}
