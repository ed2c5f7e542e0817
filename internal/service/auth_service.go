package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cglreviews/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthService carries sessions to clients as signed bearer tokens. The token
// only names the session; the sessions table stays the source of truth.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, LoginStatus, error)
	Logout(ctx context.Context, token string) error
	Authenticate(ctx context.Context, token string) (*models.User, error)
	SessionID(token string) (string, error)
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type authService struct {
	m        *Manager
	secret   []byte
	duration time.Duration
}

func NewAuthService(m *Manager, secret string, duration time.Duration) AuthService {
	return &authService{
		m:        m,
		secret:   []byte(secret),
		duration: duration,
	}
}

// Login opens a session when the credentials are accepted and returns its token.
func (s *authService) Login(ctx context.Context, email, password string) (string, LoginStatus, error) {
	status, err := s.m.User.Login(ctx, email, password)
	if err != nil || status != LoginSuccess {
		return "", status, err
	}

	user, err := s.m.User.GetUserByEmail(ctx, email)
	if err != nil {
		return "", LoginBadLogin, err
	}
	if user == nil {
		return "", LoginBadLogin, nil
	}

	sessionID, err := s.m.Session.CreateSession(ctx, user.ID)
	if err != nil {
		return "", LoginBadLogin, err
	}

	token, err := s.sign(sessionID)
	if err != nil {
		return "", LoginBadLogin, err
	}
	return token, LoginSuccess, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.SessionID(token)
	if err != nil {
		return nil
	}
	return s.m.Session.DeleteSession(ctx, sessionID)
}

// Authenticate resolves the user behind token and touches the session. A bad
// token or a dead session yields nil without an error.
func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	sessionID, err := s.SessionID(token)
	if err != nil {
		return nil, nil
	}

	user, err := s.m.Session.GetUserBySession(ctx, sessionID)
	if err != nil || user == nil {
		return nil, err
	}
	if err := s.m.Session.UpdateSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *authService) SessionID(token string) (string, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}

func (s *authService) sign(sessionID string) (string, error) {
	now := s.clock()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *authService) clock() time.Time {
	return time.Unix(s.m.now(), 0)
}
