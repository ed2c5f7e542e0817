package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"cglreviews/internal/mailer"
	"cglreviews/internal/middleware"
	"cglreviews/internal/service"
)

type RegisterRequest struct {
	Firstname string `json:"firstname" validate:"required,max=255"`
	Lastname  string `json:"lastname" validate:"required,max=255"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	StatusID  int    `json:"statusId" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates an unverified account and mails its verification link.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
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

	verifyID, userID, ok, err := h.Services.Verify.RegisterUser(r.Context(), service.CreateUserRequest{
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Email:     req.Email,
		Password:  req.Password,
		StatusID:  req.StatusID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !ok {
		WriteError(w, "email is already registered", http.StatusConflict)
		return
	}

	h.send(r, mailer.VerifyMessage(req.Email, h.link("/api/auth/verify/"+verifyID)))
	WriteSuccess(w, map[string]string{"userId": userID}, http.StatusCreated)
}

func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	verified, err := h.Services.Verify.VerifyUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !verified {
		WriteError(w, "verification link is invalid or expired", http.StatusNotFound)
		return
	}
	WriteSuccess(w, map[string]bool{"verified": true}, http.StatusOK)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	token, status, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	switch status {
	case service.LoginSuccess:
		WriteSuccess(w, LoginResponse{Token: token}, http.StatusOK)
	case service.LoginAccountSuspended:
		WriteError(w, "account is suspended", http.StatusForbidden)
	default:
		WriteError(w, "invalid email or password", http.StatusUnauthorized)
	}
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.Logout(r.Context(), middleware.BearerToken(r)); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestPasswordReset answers the same way whether or not the address is
// known, so it cannot be used to probe for accounts.
func (h *Handlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	resetID, ok, err := h.Services.PasswordReset.CreatePasswordReset(r.Context(), req.Email)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if ok {
		h.send(r, mailer.PasswordResetMessage(req.Email, h.link("/api/auth/password-reset/"+resetID)))
	}
	WriteSuccess(w, map[string]string{"status": "if the address is registered, a reset link was sent"}, http.StatusAccepted)
}

func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	reset, err := h.Services.PasswordReset.ResetPassword(r.Context(), mux.Vars(r)["id"], req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !reset {
		WriteError(w, "reset link is invalid or expired", http.StatusNotFound)
		return
	}
	WriteSuccess(w, map[string]bool{"reset": true}, http.StatusOK)
}

func (h *Handlers) RequestEmailChange(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	me := middleware.UserFromContext(r.Context())
	changeID, ok, err := h.Services.EmailChange.CreateEmailChange(r.Context(), me.ID, req.Email)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !ok {
		WriteError(w, "email is already registered", http.StatusConflict)
		return
	}

	h.send(r, mailer.EmailChangeMessage(req.Email, h.link("/api/auth/email-change/"+changeID)))
	WriteSuccess(w, map[string]string{"status": "confirmation sent"}, http.StatusAccepted)
}

func (h *Handlers) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	changed, err := h.Services.EmailChange.ChangeEmail(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !changed {
		WriteError(w, "confirmation link is invalid or expired", http.StatusNotFound)
		return
	}
	WriteSuccess(w, map[string]bool{"changed": true}, http.StatusOK)
}

// send delivers mail on a best-effort basis; the record it links to stays valid either way.
func (h *Handlers) send(r *http.Request, msg mailer.Message) {
	if err := h.Mailer.Send(r.Context(), msg); err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to send mail", "subject", msg.Subject, "error", err)
	}
}
