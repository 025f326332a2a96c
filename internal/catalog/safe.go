// Package catalog turns possibly malformed backend products into values
// that are always safe to render.
package catalog

import (
	"math/big"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

const (
	FallbackName        = "Unnamed Product"
	FallbackDescription = "No description available"
)

// DirectURL resolves b to a loadable URL. It reports false when b is
// absent, cannot be resolved, or resolves to an empty string, and never
// panics.
func DirectURL(b blob.Blob) (url string, ok bool) {
	defer func() {
		if recover() != nil {
			url, ok = "", false
		}
	}()

	var err error
	switch v := b.(type) {
	case nil:
		return "", false
	case *blob.Bytes:
		if v == nil {
			return "", false
		}
		url, err = v.DirectURL()
	case *blob.Remote:
		if v == nil {
			return "", false
		}
		url, err = v.DirectURL()
	default:
		return "", false
	}

	if err != nil || url == "" {
		return "", false
	}
	return url, true
}

// PhotoURL returns the URL of the product's primary photo.
func PhotoURL(p *domain.Product) (string, bool) {
	if p == nil || p.Photo == nil {
		return "", false
	}
	return DirectURL(p.Photo)
}

// GalleryURLs returns the resolvable gallery URLs in gallery order.
func GalleryURLs(p *domain.Product) []string {
	if p == nil || len(p.Gallery) == 0 {
		return []string{}
	}
	urls := make([]string, 0, len(p.Gallery))
	for _, b := range p.Gallery {
		if u, ok := DirectURL(b); ok {
			urls = append(urls, u)
		}
	}
	return urls
}

// AllImageURLs returns the primary photo URL, if any, followed by the
// gallery URLs.
func AllImageURLs(p *domain.Product) []string {
	urls := make([]string, 0, 1+galleryLen(p))
	if u, ok := PhotoURL(p); ok {
		urls = append(urls, u)
	}
	return append(urls, GalleryURLs(p)...)
}

func DisplayName(p *domain.Product) string {
	if p == nil || strings.TrimSpace(p.Name) == "" {
		return FallbackName
	}
	return p.Name
}

func DisplayDescription(p *domain.Product) string {
	if p == nil || strings.TrimSpace(p.Description) == "" {
		return FallbackDescription
	}
	return p.Description
}

// DisplayPrice returns a copy of the price, or zero when it is missing
// or negative.
func DisplayPrice(p *domain.Product) *big.Int {
	if p == nil || p.Price == nil || p.Price.Sign() < 0 {
		return new(big.Int)
	}
	return new(big.Int).Set(p.Price)
}

func galleryLen(p *domain.Product) int {
	if p == nil {
		return 0
	}
	return len(p.Gallery)
}
