package catalog

import (
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

func TestPhotoURL_Missing(t *testing.T) {
	var nilBytes *blob.Bytes
	cases := map[string]*domain.Product{
		"nil product":      nil,
		"no photo":         {Name: "Wrench"},
		"typed nil photo":  {Photo: nilBytes},
		"empty remote url": {Photo: blob.FromURL("")},
		"empty bytes":      {Photo: blob.FromBytes(nil)},
	}

	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if u, ok := PhotoURL(p); ok || u != "" {
				t.Errorf("Expected no url, got %q", u)
			}
		})
	}
}

func TestGalleryURLs_DropsUnresolvableKeepsOrder(t *testing.T) {
	p := &domain.Product{
		Gallery: []blob.Blob{
			blob.FromURL(""),
			blob.FromURL("https://x/b.png"),
			nil,
			blob.FromURL("https://x/c.png"),
			blob.FromBytes(nil),
		},
	}

	got := GalleryURLs(p)
	want := []string{"https://x/b.png", "https://x/c.png"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if len(got) > len(p.Gallery) {
		t.Errorf("Result longer than input")
	}
}

func TestGalleryURLs_Empty(t *testing.T) {
	if got := GalleryURLs(nil); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice for nil product, got %v", got)
	}
	if got := GalleryURLs(&domain.Product{}); len(got) != 0 {
		t.Errorf("Expected empty slice for missing gallery, got %v", got)
	}
}

func TestAllImageURLs(t *testing.T) {
	p := &domain.Product{
		Photo: blob.FromURL("A"),
		Gallery: []blob.Blob{
			blob.FromURL(""),
			blob.FromURL("B"),
			blob.FromURL("C"),
		},
	}

	got := AllImageURLs(p)
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	p.Photo = nil
	if got := AllImageURLs(p); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Errorf("Expected gallery only without a photo, got %v", got)
	}
}

func TestAllImageURLs_BytesPhoto(t *testing.T) {
	p := &domain.Product{Photo: blob.FromBytes([]byte("raw"))}
	got := AllImageURLs(p)
	if len(got) != 1 || !strings.HasPrefix(got[0], "data:") {
		t.Errorf("Expected a single data url, got %v", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(&domain.Product{Name: ""}); got != FallbackName {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := DisplayName(&domain.Product{Name: "   "}); got != FallbackName {
		t.Errorf("Expected fallback for whitespace, got %q", got)
	}
	if got := DisplayName(&domain.Product{Name: "Wrench"}); got != "Wrench" {
		t.Errorf("Expected Wrench, got %q", got)
	}
	if got := DisplayName(nil); got != FallbackName {
		t.Errorf("Expected fallback for nil, got %q", got)
	}
}

func TestDisplayDescription(t *testing.T) {
	if got := DisplayDescription(&domain.Product{}); got != FallbackDescription {
		t.Errorf("Expected fallback, got %q", got)
	}
	if got := DisplayDescription(&domain.Product{Description: "Steel"}); got != "Steel" {
		t.Errorf("Expected Steel, got %q", got)
	}
}

func TestDisplayPrice(t *testing.T) {
	if got := DisplayPrice(&domain.Product{}); got.Sign() != 0 {
		t.Errorf("Expected 0 for missing price, got %s", got)
	}
	if got := DisplayPrice(&domain.Product{Price: big.NewInt(-5)}); got.Sign() != 0 {
		t.Errorf("Expected 0 for negative price, got %s", got)
	}
	if got := DisplayPrice(nil); got.Sign() != 0 {
		t.Errorf("Expected 0 for nil product, got %s", got)
	}

	p := &domain.Product{Price: big.NewInt(150)}
	got := DisplayPrice(p)
	if got.Int64() != 150 {
		t.Errorf("Expected 150, got %s", got)
	}
	got.SetInt64(1)
	if p.Price.Int64() != 150 {
		t.Errorf("DisplayPrice must not alias the product price")
	}
}

type foreignBlob struct{ blob.Blob }

func TestDirectURL_UnknownVariant(t *testing.T) {
	if _, ok := DirectURL(foreignBlob{}); ok {
		t.Errorf("Expected unknown variant to be unresolvable")
	}
}
