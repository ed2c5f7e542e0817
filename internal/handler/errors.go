package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"cglreviews/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeServiceError maps service failures onto responses. Anything not
// recognised is logged and reported as a server error.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		WriteError(w, validationErrs.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidRating),
		errors.Is(err, service.ErrUnknownSortField),
		errors.Is(err, service.ErrUnknownTable):
		WriteError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, "user not found", http.StatusNotFound)
	default:
		h.Logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}

// decode reads a JSON body into dst and validates it.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize)).Decode(dst); err != nil {
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		h.writeServiceError(w, r, err)
		return false
	}
	return true
}
