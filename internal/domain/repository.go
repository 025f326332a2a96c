package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnauthorized    = errors.New("caller is not authorized")
)

// UserRole is the caller's role as reported by the backend.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
	RoleGuest UserRole = "guest"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	}
	return false
}

type UserProfile struct {
	Name string
}

// Backend defines the contract of the remote catalog service.
type Backend interface {
	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, id uint64) (*Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*Product, error)
	UpdateProduct(ctx context.Context, id uint64, input ProductInput) (*Product, error)
	DeleteProduct(ctx context.Context, id uint64) error

	CallerUserRole(ctx context.Context) (UserRole, error)
	IsCallerAdmin(ctx context.Context) (bool, error)
	CallerUserProfile(ctx context.Context) (*UserProfile, error)
	SaveCallerUserProfile(ctx context.Context, profile UserProfile) error
}

// RejectError is a call the backend refused.
type RejectError struct {
	Op      string
	Code    int
	Message string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%s rejected (code %d), Reject text: %s", e.Op, e.Code, e.Message)
}

// Is maps 404 rejections to ErrProductNotFound and 401/403 rejections to
// ErrUnauthorized.
func (e *RejectError) Is(target error) bool {
	switch target {
	case ErrProductNotFound:
		return e.Code == 404
	case ErrUnauthorized:
		return e.Code == 401 || e.Code == 403
	}
	return false
}
