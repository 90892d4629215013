package store

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

// randomString generates a random string of letters of length n.
func randomString(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// randomPaste generates a paste with random fields.
func randomPaste() Paste {
	return Paste{
		ID:        fmt.Sprintf("%s-%d", randomString(8), rand.Int63()),
		Title:     randomString(10),
		Content:   randomString(rand.Intn(200) + 1),
		Author:    randomString(6),
		CreatedAt: NewTimestamp(time.Now().Add(-time.Duration(rand.Intn(1000)) * time.Minute)),
	}
}

func randomPastes(n int) []Paste {
	pastes := make([]Paste, n)
	for i := range pastes {
		pastes[i] = randomPaste()
	}
	return pastes
}

func equalPastes(t *testing.T, want, got []Paste) {
	t.Helper()

	if len(want) != len(got) {
		t.Fatalf("expected %d pastes, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("paste #%d differs, want [%+v], got [%+v]", i, want[i], got[i])
		}
	}
}

func TestEncodeKeepsUnicodeAndHTML(t *testing.T) {
	t.Parallel()

	doc, err := encode([]Paste{{ID: "1", Title: "Привет <b>&</b>", Content: "日本語"}})
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	got := string(doc)
	for _, want := range []string{"Привет <b>&</b>", "日本語", "\n  {\n    \"id\": \"1\","} {
		if !strings.Contains(got, want) {
			t.Errorf("expected document to contain [%s], got [%s]", want, got)
		}
	}
}

func TestEncodeNilIsArray(t *testing.T) {
	t.Parallel()

	doc, err := encode(nil)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if got := strings.TrimSpace(string(doc)); got != "[]" {
		t.Errorf("expected an empty array, got [%s]", got)
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want int
	}{
		{name: "Empty document", doc: "", want: 0},
		{name: "Invalid JSON", doc: "[{\"id\": ", want: 0},
		{name: "Object", doc: `{"id": "1", "title": "t"}`, want: 0},
		{name: "Null", doc: "null", want: 0},
		{name: "Scalar", doc: "42", want: 0},
		{name: "Array of scalars", doc: "[1, 2]", want: 2},
		{name: "Empty array", doc: "[]", want: 0},
		{name: "Two pastes", doc: `[{"id": "1"}, {"id": "2", "extra": true}]`, want: 2},
		{name: "Bad element", doc: `[{"id": 7}, {"id": "2", "title": null}, "x"]`, want: 3},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := decode([]byte(tc.doc))
			if got == nil {
				t.Fatal("expected a non-nil slice")
			}
			if len(got) != tc.want {
				t.Errorf("expected %d pastes, got %d", tc.want, len(got))
			}
		})
	}
}

func TestDecodeKeepsMembers(t *testing.T) {
	t.Parallel()

	doc := `[
		{"id": "a", "title": "t", "content": "c", "author": "au", "created_at": "2024-01-02T03:04:05.000006"},
		{"id": "b", "content": "c", "views": 3, "tags": ["x"]},
		{"id": 7, "title": null},
		"not a paste"
	]`
	pastes := decode([]byte(doc))
	if len(pastes) != 4 {
		t.Fatalf("expected 4 pastes, got %d", len(pastes))
	}
	if pastes[0].raw != "" {
		t.Errorf("expected a complete paste to carry no raw element, got [%s]", pastes[0].raw)
	}
	if pastes[1].ID != "b" || pastes[1].Content != "c" {
		t.Errorf("expected known members to be read, got [%+v]", pastes[1])
	}
	if pastes[2].ID != "" {
		t.Errorf("expected non-string id to be empty, got [%s]", pastes[2].ID)
	}

	out, err := encode(pastes)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	var got []interface{}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("failed to parse encoded document: %v", err)
	}
	var want []interface{}
	if err := json.Unmarshal([]byte(doc), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("expected document to survive, want [%v], got [%v]", want, got)
	}
}

func TestPasteChangedKeepsUnknownMembers(t *testing.T) {
	t.Parallel()

	pastes := decode([]byte(`[{"id": "b", "title": null, "views": 3}]`))
	pastes[0].Title = "<new>"

	out, err := encode(pastes)
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	var got []map[string]interface{}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("failed to parse encoded document: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 element, got %d", len(got))
	}
	if got[0]["title"] != "<new>" || got[0]["id"] != "b" {
		t.Errorf("expected changed fields to be written, got [%v]", got[0])
	}
	if got[0]["views"] != float64(3) {
		t.Errorf("expected unknown member to survive, got [%v]", got[0])
	}
	if !strings.Contains(string(out), "<new>") {
		t.Errorf("expected HTML characters as is, got [%s]", out)
	}
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 14, 7, 9, 123456000, time.Local)
	ts := NewTimestamp(now)
	if ts != "2024-03-05T14:07:09.123456" {
		t.Errorf("unexpected timestamp format: %s", ts)
	}
	if !ts.Time().Equal(now) {
		t.Errorf("expected %v, got %v", now, ts.Time())
	}
	if got := Timestamp("2024-03-05T14:07:09").Time(); got.Second() != 9 {
		t.Errorf("expected timestamp without fraction to parse, got %v", got)
	}
	if got := ts.String(); got != "2024-03-05 14:07" {
		t.Errorf("unexpected string: %s", got)
	}
	if got := Timestamp("yesterday").String(); got != "yesterday" {
		t.Errorf("expected unparsable timestamp as is, got %s", got)
	}
}
