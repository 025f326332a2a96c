package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mrops-br/hardware-storefront/internal/app/cache"
	"github.com/mrops-br/hardware-storefront/internal/app/dto"
	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService reads the catalog through the cache and runs product
// mutations against the backend, one at a time.
type ProductService struct {
	backend           domain.Backend
	cache             *cache.Cache
	tracer            trace.Tracer
	logger            *slog.Logger
	productOperations metric.Int64Counter
	bulkProgress      metric.Int64Counter

	// writeMu keeps at most one mutation in flight.
	writeMu sync.Mutex
}

// NewProductService creates a new product service
func NewProductService(
	backend domain.Backend,
	productCache *cache.Cache,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	bulkProgress, _ := meter.Int64Counter(
		"products.bulk.created",
		metric.WithDescription("Total number of products created by bulk operations"),
	)

	return &ProductService{
		backend:           backend,
		cache:             productCache,
		tracer:            tracer,
		logger:            logger,
		productOperations: productOperations,
		bulkProgress:      bulkProgress,
	}
}

// SubmitRequest is one save of the product editor.
type SubmitRequest struct {
	Form dto.ProductForm
	// Photo is a newly selected primary photo, if any.
	Photo blob.File
	// Gallery holds newly selected gallery files in selection order.
	Gallery []blob.File
	// KeptGallery holds the existing gallery references the user kept,
	// in their original order.
	KeptGallery []blob.Blob
	// Editing is the product being updated, nil when creating.
	Editing *domain.Product
	// OnProgress observes the upload of a newly selected photo.
	OnProgress blob.ProgressFunc
}

// ListProducts returns the product list, from cache when fresh
func (s *ProductService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := cache.Get(ctx, s.cache, cache.ProductsKey(), s.backend.ListProducts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to retrieve products")
		s.logger.ErrorContext(ctx, "Failed to list products",
			slog.String("error", err.Error()),
		)
		s.count(ctx, "list", "failure")
		return nil, err
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.count(ctx, "list", "success")

	out := make([]*domain.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out, nil
}

// GetProduct returns one product, from cache when fresh
func (s *ProductService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	product, err := cache.Get(ctx, s.cache, cache.ProductKey(id), func(ctx context.Context) (*domain.Product, error) {
		return s.backend.GetProduct(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Product not found")
		s.logger.WarnContext(ctx, "Failed to get product",
			slog.Uint64("product_id", id),
			slog.String("error", err.Error()),
		)
		result := "failure"
		if errors.Is(err, domain.ErrProductNotFound) {
			result = "not_found"
		}
		s.count(ctx, "read", result)
		return nil, err
	}

	s.count(ctx, "read", "success")
	return product.Clone(), nil
}

// Submit validates the form, converts selected files to blobs and issues
// exactly one create or update call. Invalid input never reaches the
// backend. On success the product list, and for updates the product
// itself, are invalidated; on failure the cache is left untouched.
func (s *ProductService) Submit(ctx context.Context, req SubmitRequest) (*domain.Product, error) {
	op := "create"
	if req.Editing != nil {
		op = "update"
	}

	ctx, span := s.tracer.Start(ctx, "ProductService.Submit")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.operation", op),
		attribute.String("product.name", req.Form.Name),
		attribute.Int("product.gallery.new", len(req.Gallery)),
		attribute.Int("product.gallery.kept", len(req.KeptGallery)),
	)

	s.logger.InfoContext(ctx, "Submitting product",
		slog.String("operation", op),
		slog.String("name", req.Form.Name),
	)

	input, err := s.buildInput(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Validation failed")
		s.logger.WarnContext(ctx, "Product input rejected before submit",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		s.count(ctx, op, "invalid")
		return nil, err
	}

	s.writeMu.Lock()
	var product *domain.Product
	if req.Editing != nil {
		span.SetAttributes(attribute.Int64("product.id", int64(req.Editing.ID)))
		product, err = s.backend.UpdateProduct(ctx, req.Editing.ID, input)
	} else {
		product, err = s.backend.CreateProduct(ctx, input)
	}
	s.writeMu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Backend rejected product")
		s.logger.ErrorContext(ctx, "Failed to save product",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		s.count(ctx, op, "failure")
		return nil, err
	}

	keys := []cache.Key{cache.ProductsKey()}
	if req.Editing != nil {
		keys = append(keys, cache.ProductKey(req.Editing.ID))
	}
	s.cache.Invalidate(ctx, keys...)

	s.count(ctx, op, "success")
	if product != nil {
		span.SetAttributes(attribute.Int64("product.id", int64(product.ID)))
		s.logger.InfoContext(ctx, "Product saved successfully",
			slog.String("operation", op),
			slog.Uint64("product_id", product.ID),
		)
	}

	span.SetStatus(codes.Ok, "Product saved successfully")
	return product, nil
}

func (s *ProductService) buildInput(ctx context.Context, req SubmitRequest) (domain.ProductInput, error) {
	var input domain.ProductInput

	if strings.TrimSpace(req.Form.Name) == "" {
		return input, invalid(domain.ErrInvalidProductName)
	}
	if strings.TrimSpace(req.Form.Description) == "" {
		return input, invalid(domain.ErrInvalidProductDescription)
	}
	price, ok := req.Form.ParsePrice()
	if !ok {
		return input, invalid(domain.ErrInvalidProductPrice)
	}
	if req.Photo == nil && (req.Editing == nil || req.Editing.Photo == nil) {
		return input, invalid(domain.ErrMissingPhoto)
	}

	var photo blob.Blob
	if req.Photo != nil {
		b, err := s.convert(ctx, req.Photo)
		if err != nil {
			return input, err
		}
		photo = b
		if req.OnProgress != nil {
			photo = b.WithUploadProgress(req.OnProgress)
		}
	} else {
		photo = req.Editing.Photo
	}

	gallery := make([]blob.Blob, 0, len(req.KeptGallery)+len(req.Gallery))
	gallery = append(gallery, req.KeptGallery...)
	for _, f := range req.Gallery {
		b, err := s.convert(ctx, f)
		if err != nil {
			return input, err
		}
		gallery = append(gallery, b)
	}

	input = domain.ProductInput{
		Name:        req.Form.Name,
		Description: req.Form.Description,
		Price:       price,
		Photo:       photo,
		Gallery:     gallery,
	}
	if err := input.Validate(); err != nil {
		return input, invalid(err)
	}
	return input, nil
}

// convert reads a selected file and checks that it is a supported image.
func (s *ProductService) convert(ctx context.Context, f blob.File) (*blob.Bytes, error) {
	b, err := blob.FromFile(ctx, f)
	if err != nil {
		return nil, err
	}
	data, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	if err := blob.ValidateImage(data); err != nil {
		return nil, invalid(err)
	}
	s.logger.DebugContext(ctx, "Converted file to blob",
		slog.String("file", f.Name()),
		slog.Int("bytes", b.Len()),
	)
	return b, nil
}

// BulkCreate creates inputs one after another and stops at the first
// failure. Products created before the failure are kept. onProgress, if
// set, is called after each success with the number created so far.
func (s *ProductService) BulkCreate(ctx context.Context, inputs []domain.ProductInput, onProgress func(done, total int)) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.BulkCreate")
	defer span.End()

	total := len(inputs)
	span.SetAttributes(attribute.Int("bulk.total", total))

	s.logger.InfoContext(ctx, "Starting bulk create",
		slog.Int("total", total),
	)

	created := 0
	defer func() {
		if created > 0 {
			s.cache.Invalidate(ctx, cache.ProductsKey())
		}
	}()

	for i, input := range inputs {
		err := input.Validate()
		if err == nil {
			s.writeMu.Lock()
			_, err = s.backend.CreateProduct(ctx, input)
			s.writeMu.Unlock()
		} else {
			err = invalid(err)
		}

		if err != nil {
			bulkErr := &BulkError{
				Item:    i + 1,
				Total:   total,
				Name:    input.Name,
				Created: created,
				Err:     err,
			}
			span.RecordError(bulkErr)
			span.SetStatus(codes.Error, "Bulk create stopped")
			s.logger.ErrorContext(ctx, "Bulk create stopped",
				slog.Int("item", i+1),
				slog.String("name", input.Name),
				slog.Int("created", created),
				slog.String("error", err.Error()),
			)
			s.count(ctx, "bulk_create", "failure")
			return created, bulkErr
		}

		created++
		s.bulkProgress.Add(ctx, 1)
		if onProgress != nil {
			onProgress(created, total)
		}
	}

	s.count(ctx, "bulk_create", "success")
	s.logger.InfoContext(ctx, "Bulk create finished",
		slog.Int("created", created),
	)
	span.SetStatus(codes.Ok, "Bulk create finished")
	return created, nil
}

// Delete removes a product. The list is invalidated only after the
// backend confirms.
func (s *ProductService) Delete(ctx context.Context, id uint64) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", int64(id)))

	s.writeMu.Lock()
	err := s.backend.DeleteProduct(ctx, id)
	s.writeMu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete product")
		s.logger.ErrorContext(ctx, "Failed to delete product",
			slog.Uint64("product_id", id),
			slog.String("error", err.Error()),
		)
		s.count(ctx, "delete", "failure")
		return err
	}

	s.cache.Invalidate(ctx, cache.ProductsKey(), cache.ProductKey(id))

	s.count(ctx, "delete", "success")
	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.Uint64("product_id", id),
	)
	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

func (s *ProductService) count(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}
