package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type SuspendedService interface {
	SuspendUser(ctx context.Context, userID string, until int64) (string, bool, error)
	SuspensionExists(ctx context.Context, suspensionID string) (bool, error)
	GetSuspension(ctx context.Context, suspensionID string) (*models.Suspension, error)
	GetUserSuspension(ctx context.Context, userID string) (*models.Suspension, error)
	UserIsSuspended(ctx context.Context, userID string) (bool, error)
	DeleteSuspension(ctx context.Context, suspensionID string) error
	DeleteUserSuspension(ctx context.Context, userID string) error
	SuspendedUsers(ctx context.Context) ([]models.SuspendedUser, error)
	PruneSuspension(ctx context.Context, suspensionID string) error
	PruneSuspensions(ctx context.Context) error
}

type suspendedService struct {
	m *Manager
}

func NewSuspendedService(m *Manager) SuspendedService {
	return &suspendedService{m: m}
}

// SuspendUser blocks userID from logging in until the epoch second until and
// ends their open sessions. It reports false if the user is already suspended.
func (s *suspendedService) SuspendUser(ctx context.Context, userID string, until int64) (string, bool, error) {
	var suspensionID string
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		var id string
		exists, err := tx.exec.Get(ctx, &id, `SELECT id FROM suspended WHERE user_id = ?`, userID)
		if err != nil || exists {
			return err
		}

		newID, err := tx.NewUniqueID(ctx, TableSuspended, IDLength)
		if err != nil {
			return err
		}
		_, err = tx.exec.Exec(ctx, `
			INSERT INTO suspended (id, user_id, suspended_until, create_time)
			VALUES (?, ?, ?, ?)`, newID, userID, until, tx.now())
		if err != nil {
			return fmt.Errorf("failed to suspend user: %w", err)
		}

		if err := tx.Session.DeleteUserSessions(ctx, userID); err != nil {
			return err
		}
		tx.arm(suspensionExpiry, newID, until)
		suspensionID = newID
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return suspensionID, suspensionID != "", nil
}

func (s *suspendedService) SuspensionExists(ctx context.Context, suspensionID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM suspended WHERE id = ?`, suspensionID)
}

func (s *suspendedService) GetSuspension(ctx context.Context, suspensionID string) (*models.Suspension, error) {
	var suspension models.Suspension
	found, err := s.m.exec.Get(ctx, &suspension, `SELECT * FROM suspended WHERE id = ?`, suspensionID)
	if err != nil || !found {
		return nil, err
	}
	return &suspension, nil
}

func (s *suspendedService) GetUserSuspension(ctx context.Context, userID string) (*models.Suspension, error) {
	var suspension models.Suspension
	found, err := s.m.exec.Get(ctx, &suspension, `SELECT * FROM suspended WHERE user_id = ?`, userID)
	if err != nil || !found {
		return nil, err
	}
	return &suspension, nil
}

// UserIsSuspended ignores a suspension that has run out but not been pruned yet.
func (s *suspendedService) UserIsSuspended(ctx context.Context, userID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id,
		`SELECT id FROM suspended WHERE user_id = ? AND suspended_until > ?`, userID, s.m.now())
}

func (s *suspendedService) DeleteSuspension(ctx context.Context, suspensionID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM suspended WHERE id = ?`, suspensionID); err != nil {
		return fmt.Errorf("failed to delete suspension: %w", err)
	}
	return nil
}

func (s *suspendedService) DeleteUserSuspension(ctx context.Context, userID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM suspended WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user suspension: %w", err)
	}
	return nil
}

// SuspendedUsers lists suspended accounts, soonest release first.
func (s *suspendedService) SuspendedUsers(ctx context.Context) ([]models.SuspendedUser, error) {
	users := []models.SuspendedUser{}
	err := s.m.exec.Select(ctx, &users, `
		SELECT suspended.id AS suspension_id, users.id AS user_id, users.firstname,
			users.lastname, users.email, suspended.suspended_until, suspended.create_time
		FROM suspended
		JOIN users ON users.id = suspended.user_id
		ORDER BY suspended.suspended_until`)
	return users, err
}

func (s *suspendedService) PruneSuspension(ctx context.Context, suspensionID string) error {
	return s.m.prune(ctx, suspensionExpiry, suspensionID)
}

func (s *suspendedService) PruneSuspensions(ctx context.Context) error {
	return s.m.pruneAll(ctx, suspensionExpiry)
}
