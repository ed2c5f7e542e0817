package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"cglreviews/internal/middleware"
	"cglreviews/internal/models"
)

type MeResponse struct {
	User   *models.User `json:"user"`
	Status string       `json:"status"`
}

type UpdateUserRequest struct {
	Firstname string `json:"firstname" validate:"required,max=255"`
	Lastname  string `json:"lastname" validate:"required,max=255"`
}

type StatusChangeRequest struct {
	StatusID int `json:"statusId" validate:"required"`
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	status, err := h.Services.User.GetUserStatusName(r.Context(), me.ID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, MeResponse{User: me, Status: status}, http.StatusOK)
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	me := middleware.UserFromContext(r.Context())
	if err := h.Services.User.UpdateUser(r.Context(), me.ID, req.Firstname, req.Lastname); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DeleteMe(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	if err := h.Services.User.DeleteUser(r.Context(), me.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMyImage replaces the profile image with the raw image in the request body.
func (h *Handlers) SetMyImage(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readImage(w, r)
	if !ok {
		return
	}

	me := middleware.UserFromContext(r.Context())
	imageID, err := h.Services.User.SetUserImage(r.Context(), me.ID, data)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]string{"imageId": imageID}, http.StatusOK)
}

func (h *Handlers) DeleteMyImage(w http.ResponseWriter, r *http.Request) {
	me := middleware.UserFromContext(r.Context())
	if err := h.Services.User.DeleteUserImage(r.Context(), me.ID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RequestStatusChange(w http.ResponseWriter, r *http.Request) {
	var req StatusChangeRequest
	if !h.decode(w, r, &req) {
		return
	}

	valid, err := h.Services.UserStatus.ValidStatus(r.Context(), req.StatusID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !valid {
		WriteError(w, "unknown status", http.StatusBadRequest)
		return
	}

	me := middleware.UserFromContext(r.Context())
	requestID, err := h.Services.UserStatusChange.CreateRequest(r.Context(), me.ID, req.StatusID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]string{"requestId": requestID}, http.StatusAccepted)
}

func (h *Handlers) Programs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Services.Program.GetPrograms(r.Context())
	h.writeList(w, r, rows, err)
}

func (h *Handlers) LocationTypes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Services.LocationType.GetLocationTypes(r.Context())
	h.writeList(w, r, rows, err)
}

func (h *Handlers) Statuses(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Services.UserStatus.GetStatuses(r.Context())
	h.writeList(w, r, rows, err)
}

func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	image, err := h.Services.Image.GetImage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if image == nil {
		WriteError(w, "image not found", http.StatusNotFound)
		return
	}
	writeImage(w, image.Data)
}

func (h *Handlers) writeList(w http.ResponseWriter, r *http.Request, rows any, err error) {
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, rows, http.StatusOK)
}

// readImage reads an image body of at most MaxUploadSize bytes.
func (h *Handlers) readImage(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.Cfg.MaxUploadSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, "image is too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		WriteError(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		WriteError(w, "body is not an image", http.StatusUnsupportedMediaType)
		return nil, false
	}
	return data, true
}

func writeImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
