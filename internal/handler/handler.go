package handlers

import (
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"cglreviews/internal/config"
	"cglreviews/internal/mailer"
	"cglreviews/internal/service"
)

type Handlers struct {
	Services *service.Manager
	Auth     service.AuthService
	Mailer   mailer.Mailer
	Cfg      *config.Config
	Validate *validator.Validate
	Logger   *slog.Logger
}

func NewHandlers(services *service.Manager, mail mailer.Mailer, cfg *config.Config) *Handlers {
	return &Handlers{
		Services: services,
		Auth:     service.NewAuthService(services, cfg.JWTSecretKey, cfg.TokenDuration),
		Mailer:   mail,
		Cfg:      cfg,
		Validate: validator.New(),
		Logger:   services.Logger(),
	}
}

func (h *Handlers) link(path string) string {
	return h.Cfg.BaseURL + path
}

func (h *Handlers) now() time.Time {
	return time.Unix(h.Services.Now(), 0)
}
