// Copyright 2021 Ilia Frenkel. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE.txt file.

// Package store defines a common interface that any concrete storage
// implementation must implement. Along with some supporting types.
// It provides two implementations of store.Interface - FileStore and MemDB.
//
// Every implementation keeps the whole collection as one JSON array. Reads
// never fail: a missing document or one that is not a JSON array is an empty
// collection. Writes replace the document in full.
package store

import (
	"bytes"
	"encoding/json"
	"time"
)

// TimestampLayout is the format of Paste.CreatedAt: ISO-8601 local time with
// microseconds and no zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Interface defines methods that an implementation of a concrete storage
// must provide.
type Interface interface {
	Initialize() error                              // make sure the backing document exists
	LoadAll() []Paste                               // all pastes in stored order, never nil
	SaveAll(pastes []Paste) error                   // replace the whole collection
	Get(id string) (Paste, bool)                    // first paste with the id
	Update(fn func([]Paste) ([]Paste, error)) error // locked read-modify-write
}

// Paste represents a single paste.
//
// A paste read from a document that doesn't fit the five fields exactly
// (unknown members, missing members, non-string values or not an object at
// all) remembers the element it was read from and writes it back as is
// while the fields stay unchanged.
type Paste struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt Timestamp `json:"created_at"`

	raw  string      // element as read, empty for pastes that fit the fields
	orig pasteFields // field values at the time raw was read
}

// pasteFields is the plain JSON shape of a paste.
type pasteFields struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt Timestamp `json:"created_at"`
}

// fieldNames in the order they are written.
var fieldNames = [...]string{"id", "title", "content", "author", "created_at"}

func (p Paste) fields() pasteFields {
	return pasteFields{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    p.Author,
		CreatedAt: p.CreatedAt,
	}
}

func (p *Paste) targets() [len(fieldNames)]*string {
	return [...]*string{&p.ID, &p.Title, &p.Content, &p.Author, (*string)(&p.CreatedAt)}
}

// UnmarshalJSON reads the string members it knows about and never fails,
// so one odd element can't make the rest of the document unreadable.
func (p *Paste) UnmarshalJSON(data []byte) error {
	*p = Paste{}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		p.raw = string(data)
		return nil
	}

	exact := len(members) == len(fieldNames)
	targets := p.targets()
	for i, name := range fieldNames {
		v, ok := members[name]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) {
			exact = false
			continue
		}
		if err := json.Unmarshal(v, targets[i]); err != nil {
			exact = false
		}
	}

	if !exact {
		p.raw = string(data)
		p.orig = p.fields()
	}
	return nil
}

// MarshalJSON writes the element the paste was read from if nothing changed.
// Otherwise the fields are written over the members of that element.
func (p Paste) MarshalJSON() ([]byte, error) {
	if p.raw == "" {
		return marshal(p.fields())
	}
	if p.fields() == p.orig {
		return []byte(p.raw), nil
	}

	members := map[string]json.RawMessage{}
	_ = json.Unmarshal([]byte(p.raw), &members) // not an object, nothing to keep
	if members == nil {
		members = map[string]json.RawMessage{}
	}
	for i, name := range fieldNames {
		v, err := marshal(*p.targets()[i])
		if err != nil {
			return nil, err
		}
		members[name] = v
	}

	return marshal(members)
}

// Timestamp is a creation time kept exactly as it was written to the
// document. Older documents may carry a different precision, so the value
// is not re-formatted on load.
type Timestamp string

// NewTimestamp formats t as a local Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Local().Format(TimestampLayout))
}

// Time parses the timestamp in the local time zone. It returns zero time
// if the value can't be parsed.
func (ts Timestamp) Time() time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", string(ts), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// String returns a human-friendly representation of the timestamp.
func (ts Timestamp) String() string {
	t := ts.Time()
	if t.IsZero() {
		return string(ts)
	}
	return t.Format("2006-01-02 15:04")
}

// marshal is json.Marshal without HTML escaping.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// encode serialises pastes as a pretty-printed JSON array. Non-ASCII
// characters and HTML-sensitive characters are written as is.
func encode(pastes []Paste) ([]byte, error) {
	if pastes == nil {
		pastes = []Paste{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(pastes); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decode parses a document. Anything that is not a JSON array, including
// null, results in an empty collection. Elements of an array are never
// dropped, see Paste.UnmarshalJSON.
func decode(data []byte) []Paste {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil || elems == nil {
		return []Paste{}
	}

	pastes := make([]Paste, len(elems))
	for i, elem := range elems {
		_ = pastes[i].UnmarshalJSON(elem) // never fails
	}
	return pastes
}

// find returns the first paste with the given id.
func find(pastes []Paste, id string) (Paste, bool) {
	for _, p := range pastes {
		if p.ID == id {
			return p, true
		}
	}
	return Paste{}, false
}
