package handler

import (
	"log/slog"
	"net/http"

	"github.com/mrops-br/hardware-storefront/internal/app/dto"
	"github.com/mrops-br/hardware-storefront/internal/app/service"
	"github.com/mrops-br/hardware-storefront/internal/domain"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/response"
)

// AccountHandler serves the caller's role and profile
type AccountHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

func NewAccountHandler(service *service.ProductService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: logger}
}

// Me handles GET /me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	role, err := h.service.CallerRole(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	resp := dto.CallerResponse{Role: string(role)}
	if !domain.CallerFromContext(r.Context()).Anonymous() {
		profile, err := h.service.Profile(r.Context())
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if profile != nil {
			resp.Name = profile.Name
		}
	}
	response.JSON(w, http.StatusOK, resp)
}

// SaveProfile handles PUT /me/profile
func (h *AccountHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.ProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.SaveProfile(r.Context(), req.Name); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
