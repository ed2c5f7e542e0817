package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type EmailChangeService interface {
	CreateEmailChange(ctx context.Context, userID, newEmail string) (string, bool, error)
	EmailChangeExists(ctx context.Context, changeID string) (bool, error)
	UserEmailChangeExists(ctx context.Context, userID string) (bool, error)
	GetEmailChange(ctx context.Context, changeID string) (*models.EmailChange, error)
	GetUserEmailChange(ctx context.Context, userID string) (*models.EmailChange, error)
	EditEmailChange(ctx context.Context, userID, newEmail string) (string, bool, error)
	ChangeEmail(ctx context.Context, changeID string) (bool, error)
	DeleteEmailChange(ctx context.Context, changeID string) error
	DeleteUserEmailChanges(ctx context.Context, userID string) error
	PruneEmailChange(ctx context.Context, changeID string) error
	PruneEmailChanges(ctx context.Context) error
}

type emailChangeService struct {
	m *Manager
}

func NewEmailChangeService(m *Manager) EmailChangeService {
	return &emailChangeService{m: m}
}

// CreateEmailChange requests moving userID to newEmail. A request already
// pending for the user is edited in place and keeps its id. It reports false
// when newEmail belongs to an account or the user does not exist.
func (s *emailChangeService) CreateEmailChange(ctx context.Context, userID, newEmail string) (string, bool, error) {
	unused, err := s.m.User.UniqueEmail(ctx, newEmail)
	if err != nil || !unused {
		return "", false, err
	}

	if changeID, ok, err := s.EditEmailChange(ctx, userID, newEmail); err != nil || ok {
		return changeID, ok, err
	}

	exists, err := s.m.User.UserExists(ctx, userID)
	if err != nil || !exists {
		return "", false, err
	}

	changeID, err := s.m.NewUniqueID(ctx, TableEmailChanges, TokenLength)
	if err != nil {
		return "", false, err
	}

	now := s.m.now()
	_, err = s.m.exec.Exec(ctx, `
		INSERT INTO email_changes (id, user_id, new_email, create_time)
		VALUES (?, ?, ?, ?)`, changeID, userID, newEmail, now)
	if err != nil {
		return "", false, fmt.Errorf("failed to create email change: %w", err)
	}

	if err := s.m.armPrune(ctx, emailChangeExpiry, changeID, now); err != nil {
		return "", false, err
	}
	return changeID, true, nil
}

func (s *emailChangeService) EmailChangeExists(ctx context.Context, changeID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM email_changes WHERE id = ?`, changeID)
}

func (s *emailChangeService) UserEmailChangeExists(ctx context.Context, userID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM email_changes WHERE user_id = ?`, userID)
}

func (s *emailChangeService) GetEmailChange(ctx context.Context, changeID string) (*models.EmailChange, error) {
	return s.get(ctx, `SELECT * FROM email_changes WHERE id = ?`, changeID)
}

func (s *emailChangeService) GetUserEmailChange(ctx context.Context, userID string) (*models.EmailChange, error) {
	return s.get(ctx, `SELECT * FROM email_changes WHERE user_id = ?`, userID)
}

func (s *emailChangeService) get(ctx context.Context, query string, arg string) (*models.EmailChange, error) {
	var change models.EmailChange
	found, err := s.m.exec.Get(ctx, &change, query, arg)
	if err != nil || !found {
		return nil, err
	}
	return &change, nil
}

// EditEmailChange points the user's pending request at newEmail. It reports
// false when nothing is pending.
func (s *emailChangeService) EditEmailChange(ctx context.Context, userID, newEmail string) (string, bool, error) {
	change, err := s.GetUserEmailChange(ctx, userID)
	if err != nil || change == nil {
		return "", false, err
	}
	if _, err := s.m.exec.Exec(ctx, `UPDATE email_changes SET new_email = ? WHERE id = ?`, newEmail, change.ID); err != nil {
		return "", false, fmt.Errorf("failed to edit email change: %w", err)
	}
	return change.ID, true, nil
}

// ChangeEmail applies the request and consumes it. It reports false when the
// request or its user is missing.
func (s *emailChangeService) ChangeEmail(ctx context.Context, changeID string) (bool, error) {
	var changed bool
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		change, err := tx.EmailChange.GetEmailChange(ctx, changeID)
		if err != nil || change == nil {
			return err
		}
		exists, err := tx.User.UserExists(ctx, change.UserID)
		if err != nil || !exists {
			return err
		}

		if err := tx.User.SetUserEmail(ctx, change.UserID, change.NewEmail); err != nil {
			return err
		}
		if err := tx.EmailChange.DeleteEmailChange(ctx, changeID); err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}

func (s *emailChangeService) DeleteEmailChange(ctx context.Context, changeID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM email_changes WHERE id = ?`, changeID); err != nil {
		return fmt.Errorf("failed to delete email change: %w", err)
	}
	return nil
}

func (s *emailChangeService) DeleteUserEmailChanges(ctx context.Context, userID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM email_changes WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user email changes: %w", err)
	}
	return nil
}

func (s *emailChangeService) PruneEmailChange(ctx context.Context, changeID string) error {
	return s.m.prune(ctx, emailChangeExpiry, changeID)
}

func (s *emailChangeService) PruneEmailChanges(ctx context.Context) error {
	return s.m.pruneAll(ctx, emailChangeExpiry)
}
