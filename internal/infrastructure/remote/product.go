package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
)

// productPayload is the body of create and update calls. Images are sent
// as URLs; local content is uploaded first.
type productPayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Photo       string   `json:"photo"`
	Gallery     []string `json:"gallery"`
}

// wireProduct decodes a product leniently: a field of the wrong type is
// left at its zero value instead of failing the whole response.
type wireProduct struct {
	product domain.Product
	client  *http.Client
}

func (w *wireProduct) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		// Not an object at all: keep the zero product.
		return nil
	}

	var id json.Number
	if json.Unmarshal(fields["id"], &id) == nil {
		if v, err := strconv.ParseUint(id.String(), 10, 64); err == nil {
			w.product.ID = v
		}
	}
	_ = json.Unmarshal(fields["name"], &w.product.Name)
	_ = json.Unmarshal(fields["description"], &w.product.Description)
	w.product.Price = decodePrice(fields["price"])
	w.product.Photo = w.decodeBlob(fields["photo"])

	var gallery []json.RawMessage
	if json.Unmarshal(fields["gallery"], &gallery) == nil {
		for _, raw := range gallery {
			if b := w.decodeBlob(raw); b != nil {
				w.product.Gallery = append(w.product.Gallery, b)
			}
		}
	}
	return nil
}

// decodePrice accepts a JSON number or a decimal string. Anything else is
// nil and renders as zero.
func decodePrice(raw json.RawMessage) *big.Int {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		var n json.Number
		if json.Unmarshal(raw, &n) != nil {
			return nil
		}
		s = n.String()
	}
	price, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil
	}
	return price
}

func (w *wireProduct) decodeBlob(raw json.RawMessage) blob.Blob {
	var u string
	if json.Unmarshal(raw, &u) != nil || u == "" {
		return nil
	}
	return blob.FromURLWithClient(u, w.client)
}

type blobResponse struct {
	URL string `json:"url"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

func (c *Client) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	var wire []json.RawMessage
	if err := c.doJSON(ctx, "listProducts", http.MethodGet, "/products", nil, &wire); err != nil {
		return nil, err
	}

	products := make([]*domain.Product, 0, len(wire))
	for _, raw := range wire {
		w := wireProduct{client: c.http}
		if err := json.Unmarshal(raw, &w); err != nil {
			continue
		}
		p := w.product
		products = append(products, &p)
	}

	c.logger.InfoContext(ctx, "Products retrieved from backend",
		slog.Int("count", len(products)),
	)
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	w := wireProduct{client: c.http}
	if err := c.doJSON(ctx, "getProduct", http.MethodGet, productPath(id), nil, &w); err != nil {
		return nil, err
	}
	return &w.product, nil
}

func (c *Client) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	payload, err := c.payload(ctx, input)
	if err != nil {
		return nil, err
	}

	w := wireProduct{client: c.http}
	if err := c.doJSON(ctx, "createProduct", http.MethodPost, "/products", payload, &w); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Product created in backend",
		slog.Uint64("product_id", w.product.ID),
		slog.String("product_name", w.product.Name),
	)
	return &w.product, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id uint64, input domain.ProductInput) (*domain.Product, error) {
	payload, err := c.payload(ctx, input)
	if err != nil {
		return nil, err
	}

	w := wireProduct{client: c.http}
	if err := c.doJSON(ctx, "updateProduct", http.MethodPut, productPath(id), payload, &w); err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Product updated in backend",
		slog.Uint64("product_id", id),
	)
	return &w.product, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id uint64) error {
	var resp deleteResponse
	if err := c.doJSON(ctx, "deleteProduct", http.MethodDelete, productPath(id), nil, &resp); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Product deleted in backend",
		slog.Uint64("product_id", id),
	)
	return nil
}

// payload uploads local blobs in order and returns the create/update body.
func (c *Client) payload(ctx context.Context, input domain.ProductInput) (*productPayload, error) {
	photo, err := c.upload(ctx, input.Photo)
	if err != nil {
		return nil, err
	}

	gallery := make([]string, 0, len(input.Gallery))
	for _, b := range input.Gallery {
		u, err := c.upload(ctx, b)
		if err != nil {
			return nil, err
		}
		gallery = append(gallery, u)
	}

	price := "0"
	if input.Price != nil {
		price = input.Price.String()
	}
	return &productPayload{
		Name:        input.Name,
		Description: input.Description,
		Price:       price,
		Photo:       photo,
		Gallery:     gallery,
	}, nil
}

// upload stores local content with the service and returns its URL.
// Remote references are passed through.
func (c *Client) upload(ctx context.Context, b blob.Blob) (string, error) {
	switch v := b.(type) {
	case *blob.Bytes:
		data, err := v.Bytes(ctx)
		if err != nil {
			return "", err
		}
		body := blob.NewProgressReader(v.Reader(), int64(len(data)), v.Progress())

		var resp blobResponse
		if err := c.do(ctx, "uploadBlob", http.MethodPost, "/blobs", body, blob.MediaType(data), &resp); err != nil {
			return "", err
		}
		if resp.URL == "" {
			return "", fmt.Errorf("uploadBlob: %w", blob.ErrInvalidURL)
		}
		return resp.URL, nil
	case *blob.Remote:
		u, err := v.DirectURL()
		if err != nil {
			return "", err
		}
		blob.ReportComplete(v)
		return u, nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("%w: %T", blob.ErrUnsupported, b)
}

func productPath(id uint64) string {
	return "/products/" + strconv.FormatUint(id, 10)
}
