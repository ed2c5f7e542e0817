package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type UserStatusChangeService interface {
	CreateRequest(ctx context.Context, userID string, newStatusID int) (string, error)
	RequestExists(ctx context.Context, requestID string) (bool, error)
	GetRequest(ctx context.Context, requestID string) (*models.UserStatusChange, error)
	GetRequests(ctx context.Context) ([]models.UserStatusChange, error)
	GetUserRequests(ctx context.Context) ([]models.StatusChangeRequest, error)
	ApproveRequest(ctx context.Context, requestID string) (bool, error)
	DenyRequest(ctx context.Context, requestID string) error
	DeleteRequest(ctx context.Context, requestID string) error
	DeleteUserRequest(ctx context.Context, userID string) error
}

type userStatusChangeService struct {
	m *Manager
}

func NewUserStatusChangeService(m *Manager) UserStatusChangeService {
	return &userStatusChangeService{m: m}
}

// CreateRequest asks for userID to move to newStatusID. A user has at most
// one pending request; asking again retargets it.
func (s *userStatusChangeService) CreateRequest(ctx context.Context, userID string, newStatusID int) (string, error) {
	var requestID string
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		found, err := tx.exec.Get(ctx, &requestID, `SELECT id FROM user_status_changes WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		if found {
			_, err := tx.exec.Exec(ctx, `UPDATE user_status_changes SET new_status_id = ? WHERE id = ?`,
				newStatusID, requestID)
			if err != nil {
				return fmt.Errorf("failed to update status change request: %w", err)
			}
			return nil
		}

		requestID, err = tx.NewUniqueID(ctx, TableUserStatusChanges, IDLength)
		if err != nil {
			return err
		}
		_, err = tx.exec.Exec(ctx, `
			INSERT INTO user_status_changes (id, user_id, new_status_id, create_time)
			VALUES (?, ?, ?, ?)`, requestID, userID, newStatusID, tx.now())
		if err != nil {
			return fmt.Errorf("failed to create status change request: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return requestID, nil
}

func (s *userStatusChangeService) RequestExists(ctx context.Context, requestID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM user_status_changes WHERE id = ?`, requestID)
}

func (s *userStatusChangeService) GetRequest(ctx context.Context, requestID string) (*models.UserStatusChange, error) {
	var request models.UserStatusChange
	found, err := s.m.exec.Get(ctx, &request, `SELECT * FROM user_status_changes WHERE id = ?`, requestID)
	if err != nil || !found {
		return nil, err
	}
	return &request, nil
}

func (s *userStatusChangeService) GetRequests(ctx context.Context) ([]models.UserStatusChange, error) {
	requests := []models.UserStatusChange{}
	err := s.m.exec.Select(ctx, &requests, `SELECT * FROM user_status_changes ORDER BY create_time`)
	return requests, err
}

// GetUserRequests is the moderation queue, oldest request first.
func (s *userStatusChangeService) GetUserRequests(ctx context.Context) ([]models.StatusChangeRequest, error) {
	requests := []models.StatusChangeRequest{}
	err := s.m.exec.Select(ctx, &requests, `
		SELECT user_status_changes.id, users.id AS user_id, users.firstname, users.lastname,
			users.email, current.name AS current_status, requested.name AS new_status,
			user_status_changes.create_time
		FROM user_status_changes
		JOIN users ON users.id = user_status_changes.user_id
		JOIN user_statuses AS current ON current.id = users.status_id
		JOIN user_statuses AS requested ON requested.id = user_status_changes.new_status_id
		ORDER BY user_status_changes.create_time`)
	return requests, err
}

// ApproveRequest applies the requested status and consumes the request.
func (s *userStatusChangeService) ApproveRequest(ctx context.Context, requestID string) (bool, error) {
	var approved bool
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		request, err := tx.UserStatusChange.GetRequest(ctx, requestID)
		if err != nil || request == nil {
			return err
		}
		if err := tx.User.SetStatus(ctx, request.UserID, request.NewStatusID); err != nil {
			return err
		}
		if err := tx.UserStatusChange.DeleteRequest(ctx, requestID); err != nil {
			return err
		}
		approved = true
		return nil
	})
	return approved, err
}

func (s *userStatusChangeService) DenyRequest(ctx context.Context, requestID string) error {
	return s.DeleteRequest(ctx, requestID)
}

func (s *userStatusChangeService) DeleteRequest(ctx context.Context, requestID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM user_status_changes WHERE id = ?`, requestID); err != nil {
		return fmt.Errorf("failed to delete status change request: %w", err)
	}
	return nil
}

func (s *userStatusChangeService) DeleteUserRequest(ctx context.Context, userID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM user_status_changes WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user status change request: %w", err)
	}
	return nil
}
