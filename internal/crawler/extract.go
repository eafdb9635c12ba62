package crawler

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/phrasecrawl/internal/config"
	"github.com/nao1215/phrasecrawl/internal/model"
)

// ErrDuplicateID is reported for a listing item whose id was already seen
// earlier in the same listing.
var ErrDuplicateID = errors.New("duplicate phrase id in listing")

// Listing is the result of parsing the listing page.
type Listing struct {
	// Phrases are the listing-only phrases in document order.
	Phrases []*model.Phrase

	// Skipped are the items that could not be used.
	Skipped []SkippedItem
}

// SkippedItem describes a listing item that was dropped.
type SkippedItem struct {
	Link  string
	Title string
	Err   error
}

// ParseListing extracts the listing-only phrases from a listing document.
// Links and thumbnails are resolved against pageURL. Items without a usable
// id and repeated ids are reported in Skipped; the first occurrence of an id
// wins.
func ParseListing(body []byte, pageURL string, src config.Source) (*Listing, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listing URL %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	imageAttr := src.Listing.ImageAttr
	if imageAttr == "" {
		imageAttr = "src"
	}

	listing := &Listing{Phrases: []*model.Phrase{}}
	seen := make(map[string]bool)

	doc.Find(src.Listing.Item).Each(func(_ int, item *goquery.Selection) {
		link := item.Find(src.Listing.Link).First()
		href, _ := link.Attr("href")
		href = strings.TrimSpace(href)
		title := cleanText(link.Text())

		id, err := model.ExtractID(linkPath(href), src.IDMarker)
		if err != nil {
			listing.Skipped = append(listing.Skipped, SkippedItem{Link: href, Title: title, Err: err})
			return
		}
		if seen[id] {
			listing.Skipped = append(listing.Skipped, SkippedItem{
				Link:  href,
				Title: title,
				Err:   fmt.Errorf("%w: %s", ErrDuplicateID, id),
			})
			return
		}
		seen[id] = true

		image, _ := item.Find(src.Listing.Image).First().Attr(imageAttr)

		listing.Phrases = append(listing.Phrases, &model.Phrase{
			ID:       id,
			Title:    title,
			URL:      resolve(base, href),
			ImageURL: resolve(base, image),
		})
	})

	return listing, nil
}

// ParseDetail extracts the description and the example sentences from a
// detail document. A page without the example section yields an empty,
// non-nil Sentences slice.
func ParseDetail(body []byte, src config.Source) (*model.Detail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse detail page: %w", err)
	}

	detail := &model.Detail{
		Description: cleanText(doc.Find(src.Detail.Description).First().Text()),
		Sentences:   []string{},
	}

	heading := doc.Find(src.Detail.SentencesHeading).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), src.Detail.SentencesMarker)
	}).First()
	if heading.Length() == 0 {
		return detail, nil
	}

	for sib := heading.Next(); sib.Length() > 0 && sib.Is(src.Detail.Sentence); sib = sib.Next() {
		detail.Sentences = append(detail.Sentences, cleanText(renderInner(sib.Nodes[0])))
	}

	return detail, nil
}

// resolve returns ref as an absolute URL relative to base.
// Empty and unparsable references are returned as they are.
func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// cleanText trims s and normalizes it to NFC.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// linkPath cuts the query string and fragment off a listing link so that they
// never end up in an identifier.
func linkPath(href string) string {
	if i := strings.IndexAny(href, "?#"); i >= 0 {
		return href[:i]
	}
	return href
}

// renderInner serializes the children of n. Line breaks become "\n", text is
// escaped and other elements are kept as markup.
func renderInner(n *html.Node) string {
	var b strings.Builder
	writeChildren(&b, n)
	return b.String()
}

func writeChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			b.WriteString(html.EscapeString(c.Data))
		case html.ElementNode:
			if c.DataAtom == atom.Br {
				b.WriteString("\n")
				continue
			}
			writeElement(b, c)
		default:
			// comments and doctypes carry no sentence text
		}
	}
}

func writeElement(b *strings.Builder, n *html.Node) {
	b.WriteString("<")
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteString(" ")
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteString(`"`)
	}
	b.WriteString(">")

	if isVoidElement(n.DataAtom) {
		return
	}

	writeChildren(b, n)
	b.WriteString("</")
	b.WriteString(n.Data)
	b.WriteString(">")
}

func isVoidElement(a atom.Atom) bool {
	switch a {
	case atom.Img, atom.Hr, atom.Wbr, atom.Input, atom.Source, atom.Area, atom.Embed, atom.Col, atom.Meta, atom.Link:
		return true
	default:
		return false
	}
}
