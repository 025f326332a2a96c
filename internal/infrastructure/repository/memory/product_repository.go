package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sort"
	"sync"

	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ domain.Backend = (*ProductRepository)(nil)

// ProductRepository is an in-memory implementation of domain.Backend.
// Mutations require an admin caller; reads are open to everyone.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[uint64]*domain.Product
	profiles map[string]domain.UserProfile
	admins   map[string]bool
	nextID   uint64
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository. Callers
// whose token is listed in adminTokens get the admin role.
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger, adminTokens ...string) *ProductRepository {
	admins := make(map[string]bool, len(adminTokens))
	for _, t := range adminTokens {
		if t != "" {
			admins[t] = true
		}
	}
	return &ProductRepository{
		products: make(map[uint64]*domain.Product),
		profiles: make(map[string]domain.UserProfile),
		admins:   admins,
		nextID:   1,
		tracer:   tracer,
		logger:   logger,
	}
}

// CreateProduct stores a new product under the next id
func (r *ProductRepository) CreateProduct(ctx context.Context, input domain.ProductInput) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.CreateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.name", input.Name))

	if err := r.requireAdmin(ctx, "createProduct", "add products"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unauthorized")
		return nil, err
	}
	stored, err := r.store(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store blobs")
		return nil, err
	}

	r.mu.Lock()
	product := &domain.Product{
		ID:          r.nextID,
		Name:        stored.Name,
		Description: stored.Description,
		Price:       stored.Price,
		Photo:       stored.Photo,
		Gallery:     stored.Gallery,
	}
	r.products[product.ID] = product
	r.nextID++
	r.mu.Unlock()

	span.SetAttributes(attribute.Int64("product.id", int64(product.ID)))
	r.logger.InfoContext(ctx, "Product created in repository",
		slog.Uint64("product_id", product.ID),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product.Clone(), nil
}

// UpdateProduct replaces every field of an existing product
func (r *ProductRepository) UpdateProduct(ctx context.Context, id uint64, input domain.ProductInput) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.UpdateProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	if err := r.requireAdmin(ctx, "updateProduct", "update products"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unauthorized")
		return nil, err
	}
	stored, err := r.store(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to store blobs")
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		err := notFound("updateProduct")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.Uint64("product_id", id),
		)
		return nil, err
	}

	product := &domain.Product{
		ID:          id,
		Name:        stored.Name,
		Description: stored.Description,
		Price:       stored.Price,
		Photo:       stored.Photo,
		Gallery:     stored.Gallery,
	}
	r.products[id] = product

	r.logger.InfoContext(ctx, "Product updated in repository",
		slog.Uint64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return product.Clone(), nil
}

// DeleteProduct removes a product
func (r *ProductRepository) DeleteProduct(ctx context.Context, id uint64) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	if err := r.requireAdmin(ctx, "deleteProduct", "delete products"); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unauthorized")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		err := notFound("deleteProduct")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		return err
	}
	delete(r.products, id)

	r.logger.InfoContext(ctx, "Product deleted from repository",
		slog.Uint64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// GetProduct retrieves a product by ID
func (r *ProductRepository) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		err := notFound("getProduct")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.WarnContext(ctx, "Product not found",
			slog.Uint64("product_id", id),
		)
		return nil, err
	}

	r.logger.DebugContext(ctx, "Product found in repository",
		slog.Uint64("product_id", id),
		slog.String("product_name", product.Name),
	)

	span.SetStatus(codes.Ok, "Product found")
	return product.Clone(), nil
}

// ListProducts retrieves all products ordered by id
func (r *ProductRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.ListProducts")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product.Clone())
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	span.SetAttributes(attribute.Int("product.count", len(products)))

	r.logger.InfoContext(ctx, "Products retrieved from repository",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return products, nil
}

func (r *ProductRepository) CallerUserRole(ctx context.Context) (domain.UserRole, error) {
	caller := domain.CallerFromContext(ctx)
	switch {
	case caller.Anonymous():
		return domain.RoleGuest, nil
	case r.admins[caller.Token]:
		return domain.RoleAdmin, nil
	default:
		return domain.RoleUser, nil
	}
}

func (r *ProductRepository) IsCallerAdmin(ctx context.Context) (bool, error) {
	role, err := r.CallerUserRole(ctx)
	return role == domain.RoleAdmin, err
}

func (r *ProductRepository) CallerUserProfile(ctx context.Context) (*domain.UserProfile, error) {
	caller := domain.CallerFromContext(ctx)
	if caller.Anonymous() {
		return nil, &domain.RejectError{Op: "getCallerUserProfile", Code: http.StatusForbidden, Message: "Unauthorized: Only users can view profiles"}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	profile, ok := r.profiles[caller.Token]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (r *ProductRepository) SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error {
	caller := domain.CallerFromContext(ctx)
	if caller.Anonymous() {
		return &domain.RejectError{Op: "saveCallerUserProfile", Code: http.StatusForbidden, Message: "Unauthorized: Only users can save profiles"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[caller.Token] = profile
	return nil
}

func (r *ProductRepository) requireAdmin(ctx context.Context, op, action string) error {
	if admin, _ := r.IsCallerAdmin(ctx); admin {
		return nil
	}
	r.logger.WarnContext(ctx, "Rejected non-admin mutation",
		slog.String("operation", op),
	)
	return &domain.RejectError{
		Op:      op,
		Code:    http.StatusForbidden,
		Message: fmt.Sprintf("Unauthorized: Only admins can %s", action),
	}
}

// store materializes local blobs so that stored products never hold a
// caller's progress callback.
func (r *ProductRepository) store(ctx context.Context, input domain.ProductInput) (domain.ProductInput, error) {
	photo, err := r.storeBlob(ctx, input.Photo)
	if err != nil {
		return input, err
	}
	gallery := make([]blob.Blob, 0, len(input.Gallery))
	for _, b := range input.Gallery {
		stored, err := r.storeBlob(ctx, b)
		if err != nil {
			return input, err
		}
		gallery = append(gallery, stored)
	}

	out := input
	out.Photo = photo
	out.Gallery = gallery
	if input.Price != nil {
		out.Price = new(big.Int).Set(input.Price)
	}
	return out, nil
}

func (r *ProductRepository) storeBlob(ctx context.Context, b blob.Blob) (blob.Blob, error) {
	switch v := b.(type) {
	case *blob.Bytes:
		data, err := v.Bytes(ctx)
		if err != nil {
			return nil, err
		}
		// Drain through the progress reader so callers observe the transfer.
		if fn := v.Progress(); fn != nil {
			_, _ = io.Copy(io.Discard, blob.NewProgressReader(v.Reader(), int64(v.Len()), fn))
		}
		return blob.FromBytes(data), nil
	case *blob.Remote:
		blob.ReportComplete(v)
		return blob.FromURL(v.URL()), nil
	default:
		return b, nil
	}
}

func notFound(op string) error {
	return &domain.RejectError{Op: op, Code: http.StatusNotFound, Message: "Product not found"}
}
