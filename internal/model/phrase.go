package model

import (
	"bytes"
	"encoding/json"
)

// Phrase represents one lesson item ("today's phrase").
// A phrase is created from the listing page with only the listing fields set.
// It becomes complete once its detail page has been fetched, at which point
// Description and Sentences are populated.
type Phrase struct {
	// ID is the stable identifier extracted from the detail URL.
	// It is unique across a Collection.
	ID string `json:"id"`

	// Title is the display title shown on the listing page.
	Title string `json:"title"`

	// URL is the absolute URL of the detail page.
	URL string `json:"url"`

	// ImageURL is the absolute URL of the thumbnail shown on the listing page.
	ImageURL string `json:"imageURL"`

	// Description is the long-form description from the detail page.
	// Nil until the detail page has been fetched successfully.
	Description *string `json:"desc,omitempty"`

	// Sentences are the example sentences from the detail page, in page order.
	// Nil until the detail page has been fetched successfully; may be empty
	// afterwards when the page has no example section.
	Sentences []string `json:"sentences,omitempty"`
}

// Detail holds the fields extracted from a phrase's detail page.
type Detail struct {
	// Description is the text of the first paragraph of the rich-text block.
	Description string

	// Sentences are the example sentences, with line breaks as "\n".
	Sentences []string
}

// IsComplete reports whether the phrase has its detail fields populated.
// Incomplete phrases are the ones the crawler fetches detail pages for.
func (p *Phrase) IsComplete() bool {
	return p.Description != nil
}

// ApplyDetail populates the detail fields of the phrase.
// Sentences is never left nil, so a completed phrase with no example
// sentences serializes as an empty array.
func (p *Phrase) ApplyDetail(d *Detail) {
	desc := d.Description
	p.Description = &desc

	sentences := make([]string, len(d.Sentences))
	copy(sentences, d.Sentences)
	p.Sentences = sentences
}

// Clone returns a deep copy of the phrase.
func (p *Phrase) Clone() *Phrase {
	c := *p
	if p.Description != nil {
		desc := *p.Description
		c.Description = &desc
	}
	if p.Sentences != nil {
		c.Sentences = make([]string, len(p.Sentences))
		copy(c.Sentences, p.Sentences)
	}
	return &c
}

// MarshalJSON encodes the phrase with HTML left unescaped, since sentences
// carry inline markup. A complete phrase always has a sentences array.
func (p Phrase) MarshalJSON() ([]byte, error) {
	type plain Phrase
	w := struct {
		plain
		Sentences *[]string `json:"sentences,omitempty"`
	}{plain: plain(p)}

	if p.Description != nil || len(p.Sentences) > 0 {
		s := p.Sentences
		if s == nil {
			s = []string{}
		}
		w.Sentences = &s
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes a phrase. A phrase with a description but no
// sentences key gets an empty, non-nil Sentences slice.
func (p *Phrase) UnmarshalJSON(data []byte) error {
	type plain Phrase
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Phrase(v)
	if p.Description != nil && p.Sentences == nil {
		p.Sentences = []string{}
	}
	return nil
}
