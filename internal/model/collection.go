package model

// Collection is an identity-keyed set of phrases that remembers insertion order.
// It is owned by a single crawl run and is not safe for concurrent use.
type Collection struct {
	order []string
	items map[string]*Phrase
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		order: make([]string, 0),
		items: make(map[string]*Phrase),
	}
}

// Get returns the phrase with the given id, or nil.
func (c *Collection) Get(id string) *Phrase {
	return c.items[id]
}

// Has reports whether a phrase with the given id exists.
func (c *Collection) Has(id string) bool {
	_, ok := c.items[id]
	return ok
}

// Put inserts or replaces a phrase. A replaced phrase keeps its position.
func (c *Collection) Put(p *Phrase) {
	if _, ok := c.items[p.ID]; !ok {
		c.order = append(c.order, p.ID)
	}
	c.items[p.ID] = p
}

// Len returns the number of phrases.
func (c *Collection) Len() int {
	return len(c.order)
}

// IDs returns the ids in insertion order.
func (c *Collection) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Phrases returns the phrases in insertion order.
// The returned pointers are the ones held by the collection.
func (c *Collection) Phrases() []*Phrase {
	phrases := make([]*Phrase, 0, len(c.order))
	for _, id := range c.order {
		phrases = append(phrases, c.items[id])
	}
	return phrases
}

// CompleteCount returns the number of phrases with detail fields populated.
func (c *Collection) CompleteCount() int {
	n := 0
	for _, p := range c.items {
		if p.IsComplete() {
			n++
		}
	}
	return n
}

// Merge combines a fresh listing with the previously persisted phrases.
//
// Each listed phrase takes its title, URL and image URL from the listing and
// keeps the description and sentences of the existing phrase with the same
// id when those are present. Phrases found only in existing are retained
// unchanged. The result holds the listing order followed by the
// existing-only phrases in their previous order. When the listing contains
// an id twice, the first occurrence wins.
//
// Neither argument is modified.
func Merge(existing *Collection, listing []*Phrase) *Collection {
	merged := NewCollection()

	for _, fresh := range listing {
		if merged.Has(fresh.ID) {
			continue
		}

		p := fresh.Clone()
		if existing != nil {
			if prev := existing.Get(fresh.ID); prev != nil {
				if prev.Description != nil {
					desc := *prev.Description
					p.Description = &desc
				}
				if prev.Sentences != nil {
					p.Sentences = make([]string, len(prev.Sentences))
					copy(p.Sentences, prev.Sentences)
				}
			}
		}
		merged.Put(p)
	}

	if existing != nil {
		for _, prev := range existing.Phrases() {
			if !merged.Has(prev.ID) {
				merged.Put(prev.Clone())
			}
		}
	}

	return merged
}
