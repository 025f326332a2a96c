package handler

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/hardware-storefront/internal/app/dto"
	"github.com/mrops-br/hardware-storefront/internal/app/service"
	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/catalog"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/response"
)

const maxUploadMemory = 32 << 20

// AdminHandler serves product management
type AdminHandler struct {
	service        *service.ProductService
	logger         *slog.Logger
	wrenchImageURL string
}

// NewAdminHandler creates a new admin handler. wrenchImageURL is the photo
// used by the open-end wrench seed.
func NewAdminHandler(service *service.ProductService, logger *slog.Logger, wrenchImageURL string) *AdminHandler {
	return &AdminHandler{
		service:        service,
		logger:         logger,
		wrenchImageURL: wrenchImageURL,
	}
}

// RequireAdmin lets only admin callers through.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mode, err := h.service.Gate(r.Context())
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		switch mode {
		case service.GateGranted:
			next.ServeHTTP(w, r)
		case service.GateLoginRequired:
			response.Error(w, http.StatusUnauthorized, "Please log in to manage products")
		case service.GateAccessDenied:
			response.Error(w, http.StatusForbidden, "Only admins can manage products")
		default:
			response.Error(w, http.StatusForbidden, "Only admins can manage products")
		}
	})
}

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	sess := service.NewSession()
	defer sess.Close()

	if err := h.fillSession(r, sess); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.service.SubmitSession(r.Context(), sess)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// UpdateProduct handles PUT /admin/products/{id}. Existing gallery images
// are kept only if their URL is listed in keep_gallery; without any
// keep_gallery field the whole gallery is kept.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	existing, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	sess := service.BeginEdit(existing)
	defer sess.Close()

	if err := h.fillSession(r, sess); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if keep, ok := r.MultipartForm.Value["keep_gallery"]; ok {
		kept := make(map[string]bool, len(keep))
		for _, u := range keep {
			kept[u] = true
		}
		for i, b := range existing.Gallery {
			if u, ok := catalog.DirectURL(b); !ok || !kept[u] {
				sess.RemoveExistingGalleryImage(i)
			}
		}
	}

	product, err := h.service.SubmitSession(r.Context(), sess)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// DeleteProduct handles DELETE /admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SeedOpenEndWrenches handles POST /admin/products/seed/open-end-wrenches
func (h *AdminHandler) SeedOpenEndWrenches(w http.ResponseWriter, r *http.Request) {
	inputs := catalog.OpenEndWrenchProducts(h.wrenchImageURL)

	created, err := h.service.BulkCreate(r.Context(), inputs, func(done, total int) {
		h.logger.DebugContext(r.Context(), "Seed progress",
			slog.Int("created", done),
			slog.Int("total", total),
		)
	})

	resp := dto.BulkResponse{Created: created, Total: len(inputs)}
	if err != nil {
		resp.Error = service.UserMessage(err)
		response.JSON(w, statusFor(err), resp)
		return
	}
	response.JSON(w, http.StatusCreated, resp)
}

var errNotMultipart = errors.New("expected a multipart form")

// fillSession copies the text fields and selected files of the request
// into sess.
func (h *AdminHandler) fillSession(r *http.Request, sess *service.EditSession) error {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return errNotMultipart
	}

	form := sess.Form()
	for field, dst := range map[string]*string{
		"name":        &form.Name,
		"description": &form.Description,
		"price":       &form.Price,
	} {
		if v, ok := r.MultipartForm.Value[field]; ok && len(v) > 0 {
			*dst = v[0]
		}
	}
	sess.SetForm(form)

	if photos := r.MultipartForm.File["photo"]; len(photos) > 0 {
		sess.SelectPhoto(blob.FormFile(photos[0]))
	}
	sess.AddGalleryFiles(formFiles(r.MultipartForm.File["gallery"])...)
	return nil
}

func formFiles(headers []*multipart.FileHeader) []blob.File {
	files := make([]blob.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, blob.FormFile(fh))
	}
	return files
}
