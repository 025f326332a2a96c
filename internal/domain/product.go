package domain

import (
	"errors"
	"math/big"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/blob"
)

var (
	ErrInvalidProductName        = errors.New("product name is required")
	ErrInvalidProductDescription = errors.New("product description is required")
	ErrInvalidProductPrice       = errors.New("product price must be a non-negative whole number")
	ErrMissingPhoto              = errors.New("please select a product photo")
)

// Product is a catalog entry as returned by the backend.
// Any field may be missing or malformed; render through the catalog
// accessors rather than reading fields directly.
type Product struct {
	ID          uint64
	Name        string
	Description string
	Price       *big.Int
	Photo       blob.Blob
	Gallery     []blob.Blob
}

// ProductInput is the payload of create and update calls.
type ProductInput struct {
	Name        string
	Description string
	Price       *big.Int
	Photo       blob.Blob
	Gallery     []blob.Blob
}

// Validate performs business validation on the input
func (in *ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidProductName
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrInvalidProductDescription
	}
	if in.Price == nil || in.Price.Sign() < 0 {
		return ErrInvalidProductPrice
	}
	if in.Photo == nil {
		return ErrMissingPhoto
	}
	return nil
}

// Input returns the product's fields as an update payload.
func (p *Product) Input() ProductInput {
	in := ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Photo:       p.Photo,
	}
	if p.Price != nil {
		in.Price = new(big.Int).Set(p.Price)
	}
	if len(p.Gallery) > 0 {
		in.Gallery = append([]blob.Blob(nil), p.Gallery...)
	}
	return in
}

// Clone returns a copy that shares blob references but not slices or prices.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Price != nil {
		cp.Price = new(big.Int).Set(p.Price)
	}
	if p.Gallery != nil {
		cp.Gallery = append([]blob.Blob(nil), p.Gallery...)
	}
	return &cp
}
