package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrSizeNotFound       = errors.New("size not offered for product")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusSoldOut   Status = "sold_out"
)

type EditionType string

const (
	EditionLimited     EditionType = "limited"
	EditionOpen        EditionType = "open"
	EditionArtistProof EditionType = "ap"
)

// PlaceholderImage is shown whenever a product or collection has no usable media.
const PlaceholderImage = "https://images.unsplash.com/photo-1516426122078-c23e76319801?w=800&q=80"

type Collection struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Featured    bool   `json:"featured"`
	Order       int    `json:"order"`
	Status      Status `json:"status"`
}

type Size struct {
	Name       string `json:"name"`
	Dimensions string `json:"dimensions"`
	Price      int64  `json:"price"`
}

type Edition struct {
	Type  EditionType `json:"type"`
	Total int         `json:"total,omitempty"`
	Sold  int         `json:"sold"`
}

type Product struct {
	Slug           string   `json:"slug"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	CollectionSlug string   `json:"collection"`
	Images         []string `json:"images"`
	Sizes          []Size   `json:"sizes"`
	Edition        Edition  `json:"edition"`
	Details        []string `json:"details"`
	Featured       bool     `json:"featured"`
	Order          int      `json:"order"`
	Status         Status   `json:"status"`
}

func (p *Product) Size(name string) (Size, error) {
	for _, s := range p.Sizes {
		if s.Name == name {
			return s, nil
		}
	}
	return Size{}, fmt.Errorf("%w: %q for %s", ErrSizeNotFound, name, p.Slug)
}

// Image is the first product image, or the placeholder.
func (p *Product) Image() string {
	if len(p.Images) == 0 {
		return PlaceholderImage
	}
	return ImageURL(p.Images[0])
}

// Label is the short label shown next to a print: "Limited Edition".
func (e Edition) Label() string {
	switch e.Type {
	case EditionOpen:
		return "Open Edition"
	case EditionArtistProof:
		return "Artist Proof"
	default:
		return "Limited Edition"
	}
}

// Remaining is the number of prints still available in a limited edition,
// or -1 when the edition is not limited.
func (e Edition) Remaining() int {
	if e.Type != EditionLimited || e.Total == 0 {
		return -1
	}
	if e.Sold >= e.Total {
		return 0
	}
	return e.Total - e.Sold
}

// ImageURL resolves a stored media reference: absolute URLs and rooted paths
// pass through, bare filenames are served from /media, empty references get
// the placeholder.
func ImageURL(media string) string {
	if media == "" {
		return PlaceholderImage
	}
	if strings.HasPrefix(media, "/") {
		return media
	}
	if u, err := url.Parse(media); err == nil && u.Scheme != "" && u.Host != "" {
		return media
	}
	return "/media/" + media
}
