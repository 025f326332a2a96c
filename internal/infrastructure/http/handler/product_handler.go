package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/hardware-storefront/internal/app/dto"
	"github.com/mrops-br/hardware-storefront/internal/app/service"
	"github.com/mrops-br/hardware-storefront/internal/app/view"
	"github.com/mrops-br/hardware-storefront/internal/catalog"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/response"
)

// ViewHeader carries the storefront screen a response renders.
const ViewHeader = "X-Storefront-View"

// ProductHandler serves the public storefront
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /shop
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	setView(w, view.Transition(view.Initial(), view.Navigate{To: view.Shop}))
	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// GetProduct handles GET /shop/{id}, the buy screen of one product.
// ?quantity= sets the order quantity, at least 1.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	state := view.Transition(view.State{Kind: view.Shop}, view.BuyProduct{ID: id})
	if err != nil || state.Kind == view.Invalid {
		setView(w, view.State{Kind: view.Invalid})
		response.Error(w, http.StatusNotFound, "Product not found")
		return
	}

	quantity := int64(1)
	if q := r.URL.Query().Get("quantity"); q != "" {
		if v, err := strconv.ParseInt(q, 10, 64); err == nil {
			quantity = v
		}
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	setView(w, state)
	response.JSON(w, http.StatusOK, dto.ToBuyResponse(product, quantity))
}

// Gallery handles GET /gallery. ?selected= is clamped onto the current
// image list.
func (h *ProductHandler) Gallery(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := dto.GalleryResponse{Images: dto.ToGalleryImages(products)}
	if s := r.URL.Query().Get("selected"); s != "" {
		if idx, err := strconv.Atoi(s); err == nil {
			if clamped, ok := catalog.ClampSelection(idx, len(resp.Images)); ok {
				resp.Selected = &clamped
			}
		}
	}

	setView(w, view.Transition(view.Initial(), view.Navigate{To: view.Gallery}))
	response.JSON(w, http.StatusOK, resp)
}

func setView(w http.ResponseWriter, s view.State) {
	w.Header().Set(ViewHeader, s.String())
}
