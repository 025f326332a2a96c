package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrops-br/hardware-storefront/internal/app/cache"
	"github.com/mrops-br/hardware-storefront/internal/app/dto"
	"github.com/mrops-br/hardware-storefront/internal/app/service"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/config"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/handler"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/response"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/repository/memory"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace/noop"
)

const adminToken = "admin-token"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracer := noop.NewTracerProvider().Tracer("test")
	meterProvider := metricnoop.NewMeterProvider()
	meter := meterProvider.Meter("test")

	repo := memory.NewProductRepository(tracer, logger, adminToken)
	productCache := cache.New(cache.Options{ReadAttempts: 1}, tracer, meter, logger)
	svc := service.NewProductService(repo, productCache, tracer, meter, logger)

	server := NewServer(&config.ServerConfig{Host: "127.0.0.1", Port: "0"}, Handlers{
		Products: handler.NewProductHandler(svc, logger),
		Admin:    handler.NewAdminHandler(svc, logger, "https://cdn.example.com/wrench.png"),
		Account:  handler.NewAccountHandler(svc, logger),
	}, logger, meterProvider)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, values map[string][]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatalf("Failed to write field: %v", err)
			}
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		_, _ = fw.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func do(t *testing.T, method, url, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return v
}

func createWrench(t *testing.T, ts *httptest.Server, gallery ...formFile) *dto.ProductResponse {
	t.Helper()
	files := append([]formFile{{"photo", "wrench.png", pngHeader}}, gallery...)
	body, ct := multipartBody(t, map[string][]string{
		"name":        {"Wrench"},
		"description": {"Chrome-vanadium steel"},
		"price":       {"150"},
	}, files...)

	resp := do(t, http.MethodPost, ts.URL+"/admin/products", adminToken, body, ct)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	return decode[*dto.ProductResponse](t, resp)
}

func TestAdmin_Gate(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"non-admin", "someone", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, map[string][]string{"name": {"x"}})
			resp := do(t, http.MethodPost, ts.URL+"/admin/products", tt.token, body, ct)
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestAdmin_CreateAndShop(t *testing.T) {
	ts := setupTestServer(t)

	created := createWrench(t, ts, formFile{"gallery", "g1.png", pngHeader})
	if created.ID != 1 || created.Name != "Wrench" || created.PriceLabel != "₹150" {
		t.Errorf("Unexpected created product %+v", created)
	}
	if !strings.HasPrefix(created.PhotoURL, "data:image/png;base64,") {
		t.Errorf("Expected data URL photo, got %q", created.PhotoURL)
	}
	if len(created.GalleryURLs) != 1 || len(created.ImageURLs) != 2 {
		t.Errorf("Unexpected images %+v", created)
	}

	resp := do(t, http.MethodGet, ts.URL+"/shop", "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(handler.ViewHeader); got != "shop" {
		t.Errorf("Expected shop view, got %q", got)
	}
	list := decode[[]*dto.ProductResponse](t, resp)
	if len(list) != 1 || list[0].Name != "Wrench" {
		t.Errorf("Unexpected shop list %+v", list)
	}
}

func TestAdmin_CreateMissingPhoto(t *testing.T) {
	ts := setupTestServer(t)

	body, ct := multipartBody(t, map[string][]string{
		"name":        {"Wrench"},
		"description": {"Steel"},
		"price":       {"150"},
	})
	resp := do(t, http.MethodPost, ts.URL+"/admin/products", adminToken, body, ct)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", resp.StatusCode)
	}
	errResp := decode[response.ErrorResponse](t, resp)
	if errResp.Message != "please select a product photo" {
		t.Errorf("Unexpected message %q", errResp.Message)
	}

	list := decode[[]*dto.ProductResponse](t, do(t, http.MethodGet, ts.URL+"/shop", "", nil, ""))
	if len(list) != 0 {
		t.Errorf("Expected no product to be created")
	}
}

func TestShop_Buy(t *testing.T) {
	ts := setupTestServer(t)
	createWrench(t, ts)

	resp := do(t, http.MethodGet, ts.URL+"/shop/1?quantity=10", "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(handler.ViewHeader); got != "buy(1)" {
		t.Errorf("Expected buy view, got %q", got)
	}
	buy := decode[dto.BuyResponse](t, resp)
	if buy.Quantity != 10 || buy.Total != "1500" || buy.TotalLabel != "₹1,500" {
		t.Errorf("Unexpected buy response %+v", buy)
	}

	resp = do(t, http.MethodGet, ts.URL+"/shop/99", "", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, ts.URL+"/shop/0", "", nil, "")
	if resp.StatusCode != http.StatusNotFound || resp.Header.Get(handler.ViewHeader) != "invalid" {
		t.Errorf("Expected invalid view for product 0, got %d %q", resp.StatusCode, resp.Header.Get(handler.ViewHeader))
	}
}

func TestGallery_ClampsSelection(t *testing.T) {
	ts := setupTestServer(t)
	createWrench(t, ts, formFile{"gallery", "g1.png", pngHeader})

	gallery := decode[dto.GalleryResponse](t, do(t, http.MethodGet, ts.URL+"/gallery?selected=7", "", nil, ""))
	if len(gallery.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(gallery.Images))
	}
	if !gallery.Images[0].IsPrimary || gallery.Images[1].IsPrimary {
		t.Errorf("Expected only the first image to be primary")
	}
	if gallery.Selected == nil || *gallery.Selected != 1 {
		t.Errorf("Expected selection clamped to 1, got %v", gallery.Selected)
	}
}

func TestAdmin_UpdateKeepsListedGallery(t *testing.T) {
	ts := setupTestServer(t)
	created := createWrench(t, ts, formFile{"gallery", "g1.png", pngHeader}, formFile{"gallery", "g2.png", append(append([]byte{}, pngHeader...), 0x01)})
	if len(created.GalleryURLs) != 2 {
		t.Fatalf("Expected 2 gallery images, got %d", len(created.GalleryURLs))
	}

	body, ct := multipartBody(t, map[string][]string{
		"name":         {"Renamed"},
		"description":  {"Steel"},
		"price":        {"200"},
		"keep_gallery": {created.GalleryURLs[1]},
	}, formFile{"gallery", "g3.png", pngHeader})
	resp := do(t, http.MethodPut, ts.URL+"/admin/products/1", adminToken, body, ct)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	updated := decode[*dto.ProductResponse](t, resp)
	if updated.Name != "Renamed" || updated.Price != "200" {
		t.Errorf("Unexpected update %+v", updated)
	}
	if updated.PhotoURL != created.PhotoURL {
		t.Errorf("Expected photo to be kept")
	}
	if len(updated.GalleryURLs) != 2 || updated.GalleryURLs[0] != created.GalleryURLs[1] {
		t.Errorf("Expected kept image followed by the new one, got %v", updated.GalleryURLs)
	}

	buy := decode[dto.BuyResponse](t, do(t, http.MethodGet, ts.URL+"/shop/1", "", nil, ""))
	if buy.Product.Name != "Renamed" {
		t.Errorf("Expected cache to serve the updated product, got %q", buy.Product.Name)
	}
}

func TestAdmin_Delete(t *testing.T) {
	ts := setupTestServer(t)
	createWrench(t, ts)

	resp := do(t, http.MethodDelete, ts.URL+"/admin/products/1", adminToken, nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, ts.URL+"/admin/products/1", adminToken, nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	list := decode[[]*dto.ProductResponse](t, do(t, http.MethodGet, ts.URL+"/shop", "", nil, ""))
	if len(list) != 0 {
		t.Errorf("Expected empty shop after delete")
	}
}

func TestAdmin_SeedOpenEndWrenches(t *testing.T) {
	ts := setupTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/admin/products/seed/open-end-wrenches", adminToken, nil, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", resp.StatusCode)
	}
	bulk := decode[dto.BulkResponse](t, resp)
	if bulk.Created != 10 || bulk.Total != 10 || bulk.Error != "" {
		t.Errorf("Unexpected bulk response %+v", bulk)
	}

	list := decode[[]*dto.ProductResponse](t, do(t, http.MethodGet, ts.URL+"/shop", "", nil, ""))
	if len(list) != 10 || list[0].Name != "Open End Wrench 6x7 mm" {
		t.Errorf("Unexpected seeded list (%d items)", len(list))
	}
}

func TestAccount(t *testing.T) {
	ts := setupTestServer(t)

	me := decode[dto.CallerResponse](t, do(t, http.MethodGet, ts.URL+"/me", "", nil, ""))
	if me.Role != "guest" {
		t.Errorf("Expected guest role, got %q", me.Role)
	}

	resp := do(t, http.MethodPut, ts.URL+"/me/profile", "someone", strings.NewReader(`{"name":" "}`), "application/json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty name, got %d", resp.StatusCode)
	}
	resp = do(t, http.MethodPut, ts.URL+"/me/profile", "someone", strings.NewReader(`{"name":"Asha"}`), "application/json")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", resp.StatusCode)
	}

	me = decode[dto.CallerResponse](t, do(t, http.MethodGet, ts.URL+"/me", "someone", nil, ""))
	if me.Role != "user" || me.Name != "Asha" {
		t.Errorf("Unexpected caller %+v", me)
	}
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/health", "", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}
