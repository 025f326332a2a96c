package domain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/mrops-br/hardware-storefront/internal/blob"
)

func TestProductInput_Validate(t *testing.T) {
	photo := blob.FromURL("https://cdn.example.com/p.png")

	tests := []struct {
		name  string
		input ProductInput
		want  error
	}{
		{"valid", ProductInput{Name: "Wrench", Description: "Steel", Price: big.NewInt(150), Photo: photo}, nil},
		{"zero price", ProductInput{Name: "Wrench", Description: "Steel", Price: big.NewInt(0), Photo: photo}, nil},
		{"blank name", ProductInput{Name: "  ", Description: "Steel", Price: big.NewInt(1), Photo: photo}, ErrInvalidProductName},
		{"blank description", ProductInput{Name: "Wrench", Description: "", Price: big.NewInt(1), Photo: photo}, ErrInvalidProductDescription},
		{"missing price", ProductInput{Name: "Wrench", Description: "Steel", Photo: photo}, ErrInvalidProductPrice},
		{"negative price", ProductInput{Name: "Wrench", Description: "Steel", Price: big.NewInt(-1), Photo: photo}, ErrInvalidProductPrice},
		{"missing photo", ProductInput{Name: "Wrench", Description: "Steel", Price: big.NewInt(1)}, ErrMissingPhoto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestProduct_CloneIsIndependent(t *testing.T) {
	p := &Product{
		ID:      7,
		Name:    "Hammer",
		Price:   big.NewInt(300),
		Gallery: []blob.Blob{blob.FromURL("https://x/1.png")},
	}

	cp := p.Clone()
	cp.Price.SetInt64(1)
	cp.Gallery[0] = nil

	if p.Price.Int64() != 300 {
		t.Errorf("Clone shares the price")
	}
	if p.Gallery[0] == nil {
		t.Errorf("Clone shares the gallery slice")
	}
}

func TestRejectError(t *testing.T) {
	err := &RejectError{Op: "getProduct", Code: 404, Message: "Product not found"}
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected 404 rejection to match ErrProductNotFound")
	}

	other := &RejectError{Op: "createProduct", Code: 500, Message: "boom"}
	if errors.Is(other, ErrProductNotFound) {
		t.Errorf("Did not expect 500 rejection to match ErrProductNotFound")
	}
}

func TestRejectError_Unauthorized(t *testing.T) {
	err := &RejectError{Op: "createProduct", Code: 403, Message: "Unauthorized: Only admins can add products"}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected 403 rejection to match ErrUnauthorized")
	}
}

func TestCallerFromContext(t *testing.T) {
	if !CallerFromContext(context.Background()).Anonymous() {
		t.Errorf("Expected anonymous caller without context value")
	}
	ctx := WithCaller(context.Background(), Caller{Token: "abc"})
	if c := CallerFromContext(ctx); c.Token != "abc" || c.Anonymous() {
		t.Errorf("Unexpected caller %+v", c)
	}
}
