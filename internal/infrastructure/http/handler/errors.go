package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mrops-br/hardware-storefront/internal/app/service"
	"github.com/mrops-br/hardware-storefront/internal/blob"
	"github.com/mrops-br/hardware-storefront/internal/domain"
	"github.com/mrops-br/hardware-storefront/internal/infrastructure/http/response"
)

// statusFor maps a service error to an HTTP status. Validation problems
// and unreadable uploads are the client's; rejections and transport
// failures are the backend's.
func statusFor(err error) int {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, blob.ErrReadFile):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, service.ErrSubmitInProgress), errors.Is(err, service.ErrSessionClosed):
		return http.StatusConflict
	}
	return http.StatusBadGateway
}

func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
	}
	response.Error(w, status, service.UserMessage(err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
