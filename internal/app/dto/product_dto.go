package dto

import (
	"math/big"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/catalog"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

// ProductForm is the text part of the product editor.
type ProductForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// ParsePrice parses the price field as a non-negative whole number.
func (f ProductForm) ParsePrice() (*big.Int, bool) {
	s := strings.TrimSpace(f.Price)
	if s == "" {
		return nil, false
	}
	price, ok := new(big.Int).SetString(s, 10)
	if !ok || price.Sign() < 0 {
		return nil, false
	}
	return price, true
}

// FormFromProduct prefills the editor from an existing product.
func FormFromProduct(p *domain.Product) ProductForm {
	if p == nil {
		return ProductForm{}
	}
	form := ProductForm{
		Name:        p.Name,
		Description: p.Description,
	}
	if p.Price != nil {
		form.Price = catalog.DisplayPrice(p).String()
	}
	return form
}

// ProductResponse is a display-ready product.
type ProductResponse struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	PriceLabel  string   `json:"price_label"`
	PhotoURL    string   `json:"photo_url,omitempty"`
	GalleryURLs []string `json:"gallery_urls"`
	ImageURLs   []string `json:"image_urls"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	resp := &ProductResponse{
		Name:        catalog.DisplayName(p),
		Description: catalog.DisplayDescription(p),
		Price:       catalog.DisplayPrice(p).String(),
		PriceLabel:  catalog.PriceLabel(p),
		GalleryURLs: catalog.GalleryURLs(p),
		ImageURLs:   catalog.AllImageURLs(p),
	}
	if p != nil {
		resp.ID = p.ID
	}
	if u, ok := catalog.PhotoURL(p); ok {
		resp.PhotoURL = u
	}
	return resp
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []*domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		responses = append(responses, ToProductResponse(p))
	}
	return responses
}

// BuyResponse is the order view of one product.
type BuyResponse struct {
	Product    *ProductResponse `json:"product"`
	Quantity   int64            `json:"quantity"`
	Total      string           `json:"total"`
	TotalLabel string           `json:"total_label"`
}

func ToBuyResponse(p *domain.Product, quantity int64) *BuyResponse {
	if quantity < 1 {
		quantity = 1
	}
	total := catalog.LineTotal(p, quantity)
	return &BuyResponse{
		Product:    ToProductResponse(p),
		Quantity:   quantity,
		Total:      total.String(),
		TotalLabel: catalog.FormatPrice(total),
	}
}

// GalleryImage is one entry of the flattened store gallery.
type GalleryImage struct {
	URL         string `json:"url"`
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	IsPrimary   bool   `json:"is_primary"`
}

// GalleryResponse lists every resolvable image of every product.
type GalleryResponse struct {
	Images   []GalleryImage `json:"images"`
	Selected *int           `json:"selected,omitempty"`
}

// ToGalleryImages flattens product images in product order. The first
// image of a product is flagged primary.
func ToGalleryImages(products []*domain.Product) []GalleryImage {
	images := make([]GalleryImage, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		name := catalog.DisplayName(p)
		for i, u := range catalog.AllImageURLs(p) {
			images = append(images, GalleryImage{
				URL:         u,
				ProductID:   p.ID,
				ProductName: name,
				IsPrimary:   i == 0,
			})
		}
	}
	return images
}

// BulkResponse reports a bulk create.
type BulkResponse struct {
	Created int    `json:"created"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
}

// CallerResponse describes the current caller.
type CallerResponse struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
}

type ProfileRequest struct {
	Name string `json:"name"`
}
