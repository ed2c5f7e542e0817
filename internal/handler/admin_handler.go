package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"cglreviews/internal/middleware"
	"cglreviews/internal/service"
)

type SuspendRequest struct {
	Days int `json:"days" validate:"required,min=1,max=3650"`
}

type AdminFlagRequest struct {
	Admin *bool `json:"admin" validate:"required"`
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Services.Admin.Stats(r.Context())
	h.writeList(w, r, stats, err)
}

// AdminRecords counts the rows of one table.
func (h *Handlers) AdminRecords(w http.ResponseWriter, r *http.Request) {
	table, err := service.ParseTable(mux.Vars(r)["table"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	count, err := h.Services.Admin.GetRecords(r.Context(), table)
	h.writeList(w, r, map[string]int64{"count": count}, err)
}

func (h *Handlers) AdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Services.Admin.GetUsers(r.Context())
	h.writeList(w, r, users, err)
}

func (h *Handlers) UnapprovedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Services.User.GetUnapproved(r.Context())
	h.writeList(w, r, users, err)
}

func (h *Handlers) ApproveUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.existingUser(w, r)
	if !ok {
		return
	}
	if err := h.Services.User.SetApproved(r.Context(), userID, true); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DenyUser rejects a registration by deleting the account.
func (h *Handlers) DenyUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.existingUser(w, r)
	if !ok {
		return
	}
	if err := h.Services.User.DeleteUser(r.Context(), userID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SetAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.existingUser(w, r)
	if !ok {
		return
	}
	var req AdminFlagRequest
	if !h.decode(w, r, &req) {
		return
	}
	if me := middleware.UserFromContext(r.Context()); me.ID == userID && !*req.Admin {
		WriteError(w, "admins cannot revoke their own access", http.StatusBadRequest)
		return
	}
	if err := h.Services.User.SetAdmin(r.Context(), userID, *req.Admin); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SuspendUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.existingUser(w, r)
	if !ok {
		return
	}
	var req SuspendRequest
	if !h.decode(w, r, &req) {
		return
	}

	until := h.now().Add(time.Duration(req.Days) * 24 * time.Hour).Unix()
	suspensionID, ok, err := h.Services.Suspended.SuspendUser(r.Context(), userID, until)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !ok {
		WriteError(w, "user is already suspended", http.StatusConflict)
		return
	}
	WriteSuccess(w, map[string]any{"suspensionId": suspensionID, "suspendedUntil": until}, http.StatusCreated)
}

func (h *Handlers) UnsuspendUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.Suspended.DeleteUserSuspension(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SuspendedUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Services.Suspended.SuspendedUsers(r.Context())
	h.writeList(w, r, users, err)
}

func (h *Handlers) AdminPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Services.Admin.GetPosts(r.Context())
	h.writeList(w, r, posts, err)
}

func (h *Handlers) UnapprovedPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Services.Post.GetUnapproved(r.Context())
	h.writeList(w, r, posts, err)
}

func (h *Handlers) ApprovePost(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.existingPost(w, r)
	if !ok {
		return
	}
	if err := h.Services.Post.SetApproved(r.Context(), postID, true); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DenyPost rejects a post by deleting it.
func (h *Handlers) DenyPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.existingPost(w, r)
	if !ok {
		return
	}
	if err := h.Services.Post.DeletePost(r.Context(), postID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Favorite(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.existingPost(w, r)
	if !ok {
		return
	}
	favoriteID, created, err := h.Services.AdminFavorites.Favorite(r.Context(), postID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !created {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteSuccess(w, map[string]string{"favoriteId": favoriteID}, http.StatusCreated)
}

func (h *Handlers) Unfavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.AdminFavorites.Unfavorite(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) StatusChanges(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Services.UserStatusChange.GetUserRequests(r.Context())
	h.writeList(w, r, requests, err)
}

func (h *Handlers) ApproveStatusChange(w http.ResponseWriter, r *http.Request) {
	approved, err := h.Services.UserStatusChange.ApproveRequest(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !approved {
		WriteError(w, "request not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) DenyStatusChange(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.UserStatusChange.DenyRequest(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) existingUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := mux.Vars(r)["id"]
	exists, err := h.Services.User.UserExists(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return "", false
	}
	if !exists {
		WriteError(w, "user not found", http.StatusNotFound)
		return "", false
	}
	return userID, true
}

func (h *Handlers) existingPost(w http.ResponseWriter, r *http.Request) (string, bool) {
	postID := mux.Vars(r)["id"]
	exists, err := h.Services.Post.PostExists(r.Context(), postID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return "", false
	}
	if !exists {
		WriteError(w, "post not found", http.StatusNotFound)
		return "", false
	}
	return postID, true
}
