package model

import (
	"reflect"
	"testing"
)

func listingPhrase(id, title string) *Phrase {
	return &Phrase{
		ID:       id,
		Title:    title,
		URL:      "https://example.com/todays-phrase/ep-" + id,
		ImageURL: "https://example.com/images/" + id + ".jpg",
	}
}

func completePhrase(id, title, desc string, sentences ...string) *Phrase {
	p := listingPhrase(id, title)
	p.ApplyDetail(&Detail{Description: desc, Sentences: sentences})
	return p
}

// TestCollection tests the ordered identity-keyed collection.
func TestCollection(t *testing.T) {
	t.Parallel()

	t.Run("keeps insertion order", func(t *testing.T) {
		t.Parallel()

		c := NewCollection()
		c.Put(listingPhrase("b", "B"))
		c.Put(listingPhrase("a", "A"))
		c.Put(listingPhrase("c", "C"))

		if got := c.IDs(); !reflect.DeepEqual(got, []string{"b", "a", "c"}) {
			t.Errorf("unexpected order: %v", got)
		}
		if c.Len() != 3 {
			t.Errorf("expected 3 phrases, got %d", c.Len())
		}
	})

	t.Run("replacing keeps position", func(t *testing.T) {
		t.Parallel()

		c := NewCollection()
		c.Put(listingPhrase("a", "A"))
		c.Put(listingPhrase("b", "B"))
		c.Put(listingPhrase("a", "A2"))

		if got := c.IDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("unexpected order: %v", got)
		}
		if c.Get("a").Title != "A2" {
			t.Errorf("expected replaced title, got %q", c.Get("a").Title)
		}
	})

	t.Run("get returns nil for unknown id", func(t *testing.T) {
		t.Parallel()

		c := NewCollection()
		if c.Get("missing") != nil {
			t.Error("expected nil")
		}
		if c.Has("missing") {
			t.Error("expected Has to be false")
		}
	})

	t.Run("counts complete phrases", func(t *testing.T) {
		t.Parallel()

		c := NewCollection()
		c.Put(listingPhrase("a", "A"))
		c.Put(completePhrase("b", "B", "desc"))
		c.Put(completePhrase("c", "C", "desc", "s1"))

		if c.CompleteCount() != 2 {
			t.Errorf("expected 2 complete phrases, got %d", c.CompleteCount())
		}
	})
}

// TestPhraseApplyDetail tests populating detail fields.
func TestPhraseApplyDetail(t *testing.T) {
	t.Parallel()

	t.Run("marks phrase complete", func(t *testing.T) {
		t.Parallel()

		p := listingPhrase("1", "One")
		if p.IsComplete() {
			t.Fatal("listing phrase should be incomplete")
		}

		p.ApplyDetail(&Detail{Description: "D1", Sentences: []string{"s1", "s2"}})

		if !p.IsComplete() {
			t.Error("expected phrase to be complete")
		}
		if *p.Description != "D1" {
			t.Errorf("expected description D1, got %q", *p.Description)
		}
		if !reflect.DeepEqual(p.Sentences, []string{"s1", "s2"}) {
			t.Errorf("unexpected sentences: %v", p.Sentences)
		}
	})

	t.Run("no sentences yields empty slice", func(t *testing.T) {
		t.Parallel()

		p := listingPhrase("1", "One")
		p.ApplyDetail(&Detail{Description: ""})

		if p.Sentences == nil {
			t.Error("expected non-nil sentences")
		}
		if !p.IsComplete() {
			t.Error("empty description still completes the phrase")
		}
	})
}

// TestMerge tests combining a fresh listing with persisted phrases.
func TestMerge(t *testing.T) {
	t.Parallel()

	t.Run("existing detail survives and listing fields are refreshed", func(t *testing.T) {
		t.Parallel()

		existing := NewCollection()
		old := completePhrase("A", "old title", "kept", "s1", "s2")
		old.URL = "https://old.example.com/ep-A"
		old.ImageURL = "https://old.example.com/A.jpg"
		existing.Put(old)

		fresh := listingPhrase("A", "new title")

		merged := Merge(existing, []*Phrase{fresh})
		got := merged.Get("A")

		if got.Title != "new title" || got.URL != fresh.URL || got.ImageURL != fresh.ImageURL {
			t.Errorf("listing fields not adopted: %+v", got)
		}
		if got.Description == nil || *got.Description != "kept" {
			t.Errorf("description not preserved: %v", got.Description)
		}
		if !reflect.DeepEqual(got.Sentences, []string{"s1", "s2"}) {
			t.Errorf("sentences not preserved: %v", got.Sentences)
		}
	})

	t.Run("existing-only phrases are retained after listing order", func(t *testing.T) {
		t.Parallel()

		existing := NewCollection()
		existing.Put(completePhrase("old1", "Old 1", "d"))
		existing.Put(listingPhrase("shared", "Shared"))
		existing.Put(listingPhrase("old2", "Old 2"))

		listing := []*Phrase{
			listingPhrase("new1", "New 1"),
			listingPhrase("shared", "Shared v2"),
		}

		merged := Merge(existing, listing)

		want := []string{"new1", "shared", "old1", "old2"}
		if got := merged.IDs(); !reflect.DeepEqual(got, want) {
			t.Errorf("expected order %v, got %v", want, got)
		}
		if !merged.Get("old1").IsComplete() {
			t.Error("existing-only phrase lost its detail")
		}
	})

	t.Run("incomplete existing phrase stays incomplete", func(t *testing.T) {
		t.Parallel()

		existing := NewCollection()
		existing.Put(listingPhrase("A", "A"))

		merged := Merge(existing, []*Phrase{listingPhrase("A", "A")})
		if merged.Get("A").IsComplete() {
			t.Error("expected phrase to stay incomplete")
		}
	})

	t.Run("duplicate listing ids keep first occurrence", func(t *testing.T) {
		t.Parallel()

		merged := Merge(NewCollection(), []*Phrase{
			listingPhrase("A", "first"),
			listingPhrase("A", "second"),
		})

		if merged.Len() != 1 {
			t.Fatalf("expected 1 phrase, got %d", merged.Len())
		}
		if merged.Get("A").Title != "first" {
			t.Errorf("expected first occurrence, got %q", merged.Get("A").Title)
		}
	})

	t.Run("nil existing behaves as empty", func(t *testing.T) {
		t.Parallel()

		merged := Merge(nil, []*Phrase{listingPhrase("A", "A")})
		if merged.Len() != 1 {
			t.Errorf("expected 1 phrase, got %d", merged.Len())
		}
	})

	t.Run("inputs are not modified", func(t *testing.T) {
		t.Parallel()

		existing := NewCollection()
		existing.Put(completePhrase("A", "old", "d", "s"))
		fresh := listingPhrase("A", "new")

		merged := Merge(existing, []*Phrase{fresh})
		merged.Get("A").Sentences[0] = "changed"
		*merged.Get("A").Description = "changed"

		if fresh.IsComplete() {
			t.Error("listing phrase was modified")
		}
		if existing.Get("A").Sentences[0] != "s" || *existing.Get("A").Description != "d" {
			t.Error("existing phrase was modified")
		}
		if existing.Get("A").Title != "old" {
			t.Error("existing title was modified")
		}
	})
}
