package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cglreviews/internal/middleware"
)

// NewRouter wires every route behind the shared middleware stack.
func NewRouter(h *Handlers) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify/{id}", h.Verify).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/password-reset", h.RequestPasswordReset).Methods(http.MethodPost)
	api.HandleFunc("/auth/password-reset/{id}", h.ResetPassword).Methods(http.MethodPost)
	api.Handle("/auth/email-change", user(h.RequestEmailChange)).Methods(http.MethodPost)
	api.HandleFunc("/auth/email-change/{id}", h.ConfirmEmailChange).Methods(http.MethodGet)

	api.Handle("/me", user(h.Me)).Methods(http.MethodGet)
	api.Handle("/me", user(h.UpdateMe)).Methods(http.MethodPut)
	api.Handle("/me", user(h.DeleteMe)).Methods(http.MethodDelete)
	api.Handle("/me/image", user(h.SetMyImage)).Methods(http.MethodPut)
	api.Handle("/me/image", user(h.DeleteMyImage)).Methods(http.MethodDelete)
	api.Handle("/me/status-change", user(h.RequestStatusChange)).Methods(http.MethodPost)

	api.HandleFunc("/programs", h.Programs).Methods(http.MethodGet)
	api.HandleFunc("/location-types", h.LocationTypes).Methods(http.MethodGet)
	api.HandleFunc("/statuses", h.Statuses).Methods(http.MethodGet)

	api.HandleFunc("/posts", h.ListPosts).Methods(http.MethodGet)
	api.Handle("/posts", user(h.CreatePost)).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id}", h.GetPost).Methods(http.MethodGet)
	api.Handle("/posts/{id}", user(h.EditPost)).Methods(http.MethodPatch)
	api.Handle("/posts/{id}", user(h.DeletePost)).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id}/images/{index:[0-9]+}", h.GetPostImage).Methods(http.MethodGet)
	api.Handle("/posts/{id}/images/{index:[0-9]+}", user(h.DeletePostImage)).Methods(http.MethodDelete)
	api.Handle("/posts/{id}/vote", user(h.Vote)).Methods(http.MethodPost)
	api.Handle("/posts/{id}/vote", user(h.Unvote)).Methods(http.MethodDelete)
	api.HandleFunc("/favorites", h.Favorites).Methods(http.MethodGet)
	api.HandleFunc("/images/{id}", h.GetImage).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/stats", h.AdminStats).Methods(http.MethodGet)
	admin.HandleFunc("/records/{table}", h.AdminRecords).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.AdminUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/unapproved", h.UnapprovedUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/approve", h.ApproveUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/deny", h.DenyUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/admin", h.SetAdmin).Methods(http.MethodPut)
	admin.HandleFunc("/users/{id}/suspend", h.SuspendUser).Methods(http.MethodPost)
	admin.HandleFunc("/users/{id}/suspend", h.UnsuspendUser).Methods(http.MethodDelete)
	admin.HandleFunc("/suspended", h.SuspendedUsers).Methods(http.MethodGet)
	admin.HandleFunc("/posts", h.AdminPosts).Methods(http.MethodGet)
	admin.HandleFunc("/posts/unapproved", h.UnapprovedPosts).Methods(http.MethodGet)
	admin.HandleFunc("/posts/{id}/approve", h.ApprovePost).Methods(http.MethodPost)
	admin.HandleFunc("/posts/{id}/deny", h.DenyPost).Methods(http.MethodPost)
	admin.HandleFunc("/posts/{id}/favorite", h.Favorite).Methods(http.MethodPost)
	admin.HandleFunc("/posts/{id}/favorite", h.Unfavorite).Methods(http.MethodDelete)
	admin.HandleFunc("/status-changes", h.StatusChanges).Methods(http.MethodGet)
	admin.HandleFunc("/status-changes/{id}/approve", h.ApproveStatusChange).Methods(http.MethodPost)
	admin.HandleFunc("/status-changes/{id}/deny", h.DenyStatusChange).Methods(http.MethodPost)

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.Logging(h.Logger),
		middleware.CORS,
		middleware.Session(h.Auth, h.Logger),
	)
}

func user(fn http.HandlerFunc) http.Handler {
	return middleware.RequireUser(fn)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Services.HealthCheck(r.Context()); err != nil {
		h.Logger.ErrorContext(r.Context(), "health check failed", "error", err)
		WriteError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	WriteSuccess(w, map[string]string{"status": "ok"}, http.StatusOK)
}
