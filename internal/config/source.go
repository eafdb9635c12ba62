package config

// ListingSelectors describes how phrases are found on the listing page.
// Each field is a CSS selector understood by goquery.
type ListingSelectors struct {
	// Item selects one container element per phrase.
	Item string `yaml:"item,omitempty"`

	// Link selects, within an item, the heading anchor carrying the detail
	// link (href) and the title (text).
	Link string `yaml:"link,omitempty"`

	// Image selects, within an item, the thumbnail image element.
	Image string `yaml:"image,omitempty"`

	// ImageAttr is the attribute of Image holding the thumbnail URL.
	ImageAttr string `yaml:"imageAttr,omitempty"`
}

// DetailSelectors describes how the description and example sentences are
// found on a detail page.
type DetailSelectors struct {
	// Description selects the paragraph(s) of the rich-text block.
	// The first match is used.
	Description string `yaml:"description,omitempty"`

	// SentencesHeading selects candidate headings of the example section.
	SentencesHeading string `yaml:"sentencesHeading,omitempty"`

	// SentencesMarker is the text a heading must contain to start the
	// example section.
	SentencesMarker string `yaml:"sentencesMarker,omitempty"`

	// Sentence is the selector each sibling following the heading must match
	// to be collected as an example sentence.
	Sentence string `yaml:"sentence,omitempty"`
}

// Source is the declarative description of the site being crawled.
type Source struct {
	// ListingURL is the absolute URL of the page listing all phrases.
	ListingURL string `yaml:"listingURL,omitempty"`

	// IDMarker is the token in a detail link that precedes the phrase id.
	IDMarker string `yaml:"idMarker,omitempty"`

	// Listing holds the listing page selectors.
	Listing ListingSelectors `yaml:"listing,omitempty"`

	// Detail holds the detail page selectors.
	Detail DetailSelectors `yaml:"detail,omitempty"`
}

// DefaultSource returns the source for BBC Learning English "Today's phrase".
func DefaultSource() Source {
	return Source{
		ListingURL: DefaultListingURL,
		IDMarker:   DefaultIDMarker,
		Listing: ListingSelectors{
			Item:      ".course-content-item",
			Link:      ".text h2 a",
			Image:     ".img a img",
			ImageAttr: "src",
		},
		Detail: DetailSelectors{
			Description:      ".widget-richtext .text p",
			SentencesHeading: "h3",
			SentencesMarker:  "例句",
			Sentence:         "p",
		},
	}
}

// Merge returns s with every non-empty field of override applied on top.
func (s Source) Merge(override Source) Source {
	result := s

	setIfNotEmpty(&result.ListingURL, override.ListingURL)
	setIfNotEmpty(&result.IDMarker, override.IDMarker)

	setIfNotEmpty(&result.Listing.Item, override.Listing.Item)
	setIfNotEmpty(&result.Listing.Link, override.Listing.Link)
	setIfNotEmpty(&result.Listing.Image, override.Listing.Image)
	setIfNotEmpty(&result.Listing.ImageAttr, override.Listing.ImageAttr)

	setIfNotEmpty(&result.Detail.Description, override.Detail.Description)
	setIfNotEmpty(&result.Detail.SentencesHeading, override.Detail.SentencesHeading)
	setIfNotEmpty(&result.Detail.SentencesMarker, override.Detail.SentencesMarker)
	setIfNotEmpty(&result.Detail.Sentence, override.Detail.Sentence)

	return result
}

// validate checks that every selector needed for extraction is set.
func (s Source) validate() error {
	required := []string{
		s.IDMarker,
		s.Listing.Item,
		s.Listing.Link,
		s.Listing.Image,
		s.Listing.ImageAttr,
		s.Detail.Description,
		s.Detail.SentencesHeading,
		s.Detail.SentencesMarker,
		s.Detail.Sentence,
	}
	for _, v := range required {
		if v == "" {
			return ErrMissingSelector
		}
	}
	return nil
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
