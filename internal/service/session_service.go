package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type SessionService interface {
	CreateSession(ctx context.Context, userID string) (string, error)
	SessionExists(ctx context.Context, sessionID string) (bool, error)
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateSession(ctx context.Context, sessionID string) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteUserSessions(ctx context.Context, userID string) error
	GetUserBySession(ctx context.Context, sessionID string) (*models.User, error)
	PruneSession(ctx context.Context, sessionID string) error
	PruneSessions(ctx context.Context) error
}

type sessionService struct {
	m *Manager
}

func NewSessionService(m *Manager) SessionService {
	return &sessionService{m: m}
}

// CreateSession opens a session for userID and arms its expiry.
func (s *sessionService) CreateSession(ctx context.Context, userID string) (string, error) {
	sessionID, err := s.m.NewUniqueID(ctx, TableSessions, TokenLength)
	if err != nil {
		return "", err
	}

	now := s.m.now()
	_, err = s.m.exec.Exec(ctx, `
		INSERT INTO sessions (id, user_id, create_time, update_time)
		VALUES (?, ?, ?, ?)`, sessionID, userID, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	if err := s.m.armPrune(ctx, sessionExpiry, sessionID, now); err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *sessionService) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM sessions WHERE id = ?`, sessionID)
}

func (s *sessionService) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	found, err := s.m.exec.Get(ctx, &session, `SELECT * FROM sessions WHERE id = ?`, sessionID)
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// UpdateSession touches the session so its expiry counts from now. The
// pending prune job notices the new time and re-arms itself.
func (s *sessionService) UpdateSession(ctx context.Context, sessionID string) error {
	if _, err := s.m.exec.Exec(ctx, `UPDATE sessions SET update_time = ? WHERE id = ?`, s.m.now(), sessionID); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

func (s *sessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *sessionService) DeleteUserSessions(ctx context.Context, userID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// GetUserBySession resolves the account behind a live session. Unknown and
// expired sessions both resolve to nil.
func (s *sessionService) GetUserBySession(ctx context.Context, sessionID string) (*models.User, error) {
	age, err := s.m.age(ctx, sessionExpiry)
	if err != nil {
		return nil, err
	}

	var user models.User
	found, err := s.m.exec.Get(ctx, &user, `
		SELECT users.* FROM users
		JOIN sessions ON sessions.user_id = users.id
		WHERE sessions.id = ? AND sessions.update_time + ? > ?`,
		sessionID, age, s.m.now())
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *sessionService) PruneSession(ctx context.Context, sessionID string) error {
	return s.m.prune(ctx, sessionExpiry, sessionID)
}

func (s *sessionService) PruneSessions(ctx context.Context) error {
	return s.m.pruneAll(ctx, sessionExpiry)
}
