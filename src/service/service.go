// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

// Package service provides methods to work with pastes.
// Methods of this package do not log or print out anything, they return
// errors instead. It is up to the user of the Service to handle the errors
// and provide useful information to the end user.
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iliafrenkel/go-pastes/src/store"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Default values for the optional paste fields.
const (
	DefaultTitle  = "Untitled"
	DefaultAuthor = "Anonymous"
)

// ErrPasteNotFound and other common errors.
var (
	ErrPasteNotFound = errors.New("paste not found")
	ErrEmptyContent  = errors.New("content is empty")
	ErrStoreFailure  = errors.New("store operation failed")
)

// Service type provides method to work with pastes.
type Service struct {
	store store.Interface
	now   func() time.Time
	newID func() string
}

// PasteRequest is an input to NewPaste method, normally comes from a web form.
type PasteRequest struct {
	Title   string `json:"title" form:"title"`
	Content string `json:"content" form:"content"`
	Author  string `json:"author" form:"author"`
}

// New returns new Service with provided store as a back-end storage.
func New(store store.Interface) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NewWithMemDB returns new Service with memory as a store.
func NewWithMemDB() *Service {
	return New(store.NewMemDB())
}

// NewWithFile returns new Service that keeps pastes in the given file. The
// file is created with an empty list if it doesn't exist.
func NewWithFile(file string) (*Service, error) {
	s, err := store.NewFileStore(&store.FileConfig{File: file})
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return New(s), nil
}

// NewPaste creates new Paste from the request and saves it in the store.
// Paste.Content is mandatory, Title and Author get default values when
// empty. All fields are trimmed.
func (s Service) NewPaste(pr PasteRequest) (store.Paste, error) {
	content := clean(pr.Content)
	// Check that content is not empty
	if content == "" {
		return store.Paste{}, ErrEmptyContent
	}

	paste := store.Paste{
		ID:        s.newID(),
		Title:     clean(pr.Title),
		Content:   content,
		Author:    clean(pr.Author),
		CreatedAt: store.NewTimestamp(s.now()),
	}
	if paste.Title == "" {
		paste.Title = DefaultTitle
	}
	if paste.Author == "" {
		paste.Author = DefaultAuthor
	}

	err := s.store.Update(func(pastes []store.Paste) ([]store.Paste, error) {
		return append(pastes, paste), nil
	})
	if err != nil {
		return store.Paste{}, fmt.Errorf("Service.NewPaste: %w: (%v)", ErrStoreFailure, err)
	}

	return paste, nil
}

// GetPaste returns a paste by its id.
func (s Service) GetPaste(id string) (store.Paste, error) {
	p, ok := s.store.Get(id)
	if !ok {
		return store.Paste{}, fmt.Errorf("Service.GetPaste: %w: id [%s]", ErrPasteNotFound, id)
	}
	return p, nil
}

// DeletePaste removes all pastes with the given id. Deleting a paste that
// doesn't exist is not an error.
func (s Service) DeletePaste(id string) error {
	err := s.store.Update(func(pastes []store.Paste) ([]store.Paste, error) {
		kept := make([]store.Paste, 0, len(pastes))
		for _, p := range pastes {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
	if err != nil {
		return fmt.Errorf("Service.DeletePaste: %w: (%v)", ErrStoreFailure, err)
	}
	return nil
}

// Search returns pastes with title, content or author containing the query,
// ignoring case and Unicode normalisation form, in the order they are stored.
// An empty query finds nothing.
func (s Service) Search(query string) []store.Paste {
	results := []store.Paste{}

	query = clean(query)
	if query == "" {
		return results
	}

	q := searchable(query)
	for _, p := range s.store.LoadAll() {
		if strings.Contains(searchable(p.Title), q) ||
			strings.Contains(searchable(p.Content), q) ||
			strings.Contains(searchable(p.Author), q) {
			results = append(results, p)
		}
	}

	return results
}

// Pastes returns all pastes in the order they are stored.
func (s Service) Pastes() []store.Paste {
	return s.store.LoadAll()
}

// Count returns total count of pastes.
func (s Service) Count() int {
	return len(s.store.LoadAll())
}

// clean trims the white space. Anything else is stored as typed.
func clean(str string) string {
	return strings.TrimSpace(str)
}

// searchable folds the case of NFC-normalised text, so that the same text
// typed on different systems compares equal.
func searchable(str string) string {
	return cases.Fold().String(norm.NFC.String(str))
}
