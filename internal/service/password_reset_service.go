package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type PasswordResetService interface {
	CreatePasswordReset(ctx context.Context, email string) (string, bool, error)
	PasswordResetExists(ctx context.Context, resetID string) (bool, error)
	GetPasswordReset(ctx context.Context, resetID string) (*models.PasswordReset, error)
	ResetPassword(ctx context.Context, resetID, password string) (bool, error)
	DeletePasswordReset(ctx context.Context, resetID string) error
	PrunePasswordReset(ctx context.Context, resetID string) error
	PrunePasswordResets(ctx context.Context) error
}

type passwordResetService struct {
	m *Manager
}

func NewPasswordResetService(m *Manager) PasswordResetService {
	return &passwordResetService{m: m}
}

// CreatePasswordReset opens a reset for the account owning email. It reports
// false when no such account exists or a reset is already pending.
func (s *passwordResetService) CreatePasswordReset(ctx context.Context, email string) (string, bool, error) {
	user, err := s.m.User.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return "", false, err
	}

	var id string
	pending, err := s.m.exec.Get(ctx, &id, `SELECT id FROM password_resets WHERE email = ?`, email)
	if err != nil || pending {
		return "", false, err
	}

	resetID, err := s.m.NewUniqueID(ctx, TablePasswordResets, TokenLength)
	if err != nil {
		return "", false, err
	}

	now := s.m.now()
	if _, err := s.m.exec.Exec(ctx, `INSERT INTO password_resets (id, email, create_time) VALUES (?, ?, ?)`,
		resetID, email, now); err != nil {
		return "", false, fmt.Errorf("failed to create password reset: %w", err)
	}

	if err := s.m.armPrune(ctx, passwordResetExpiry, resetID, now); err != nil {
		return "", false, err
	}
	return resetID, true, nil
}

func (s *passwordResetService) PasswordResetExists(ctx context.Context, resetID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM password_resets WHERE id = ?`, resetID)
}

func (s *passwordResetService) GetPasswordReset(ctx context.Context, resetID string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	found, err := s.m.exec.Get(ctx, &reset, `SELECT * FROM password_resets WHERE id = ?`, resetID)
	if err != nil || !found {
		return nil, err
	}
	return &reset, nil
}

// ResetPassword applies password to the account behind the reset and consumes it.
func (s *passwordResetService) ResetPassword(ctx context.Context, resetID, password string) (bool, error) {
	var reset bool
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		record, err := tx.PasswordReset.GetPasswordReset(ctx, resetID)
		if err != nil || record == nil {
			return err
		}
		user, err := tx.User.GetUserByEmail(ctx, record.Email)
		if err != nil || user == nil {
			return err
		}

		if err := tx.User.SetUserPassword(ctx, user.ID, password); err != nil {
			return err
		}
		if err := tx.PasswordReset.DeletePasswordReset(ctx, resetID); err != nil {
			return err
		}
		reset = true
		return nil
	})
	return reset, err
}

func (s *passwordResetService) DeletePasswordReset(ctx context.Context, resetID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM password_resets WHERE id = ?`, resetID); err != nil {
		return fmt.Errorf("failed to delete password reset: %w", err)
	}
	return nil
}

func (s *passwordResetService) PrunePasswordReset(ctx context.Context, resetID string) error {
	return s.m.prune(ctx, passwordResetExpiry, resetID)
}

func (s *passwordResetService) PrunePasswordResets(ctx context.Context) error {
	return s.m.pruneAll(ctx, passwordResetExpiry)
}
