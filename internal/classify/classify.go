package classify

import (
	"net/url"
	"strings"

	"pagecache/internal/domain"
)

var imageExtensions = map[string]struct{}{
	"apng": {},
	"avif": {},
	"gif":  {},
	"jpeg": {},
	"png":  {},
	"webp": {},
}

// Hosts that serve a raw image even when the URL carries no extension.
var imageHosts = map[string]struct{}{
	"imgur.com":           {},
	"i.imgur.com":         {},
	"i.redd.it":           {},
	"picsum.photos":       {},
	"images.unsplash.com": {},
	"media.giphy.com":     {},
}

// Checker classifies click URLs into coarse content types.
type Checker struct{}

func New() *Checker {
	return &Checker{}
}

// Classify maps a URL to IMAGE or OTHER. It is a pure function: no I/O,
// safe on any goroutine. Malformed URLs classify as OTHER.
func (c *Checker) Classify(rawURL string) domain.ContentType {
	// A URL without a dot degenerates to the whole string here, which
	// simply never matches a known extension.
	ext := rawURL[strings.LastIndex(rawURL, ".")+1:]
	if _, ok := imageExtensions[strings.ToLower(ext)]; ok {
		return domain.ContentTypeImage
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return domain.ContentTypeOther
	}
	if _, ok := imageHosts[strings.ToLower(u.Hostname())]; ok {
		return domain.ContentTypeImage
	}

	return domain.ContentTypeOther
}
