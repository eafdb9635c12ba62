package model

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultIDMarker is the token that precedes the identifier in detail links,
// e.g. "/learningenglish/chinese/features/todays-phrase/ep-240101".
const DefaultIDMarker = "/ep-"

// ErrNoIDMarker is returned by ExtractID when a link carries no identifier.
var ErrNoIDMarker = errors.New("link has no id marker")

// ExtractID returns everything in link after the first occurrence of marker,
// verbatim. It returns an error wrapping ErrNoIDMarker when the marker is absent or
// nothing follows it.
func ExtractID(link, marker string) (string, error) {
	if marker == "" {
		marker = DefaultIDMarker
	}

	i := strings.Index(link, marker)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrNoIDMarker, link)
	}

	id := link[i+len(marker):]
	if id == "" {
		return "", fmt.Errorf("%w: nothing after %q in %q", ErrNoIDMarker, marker, link)
	}
	return id, nil
}
