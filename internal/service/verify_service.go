package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type VerifyService interface {
	CreateVerifyRecord(ctx context.Context, email string) (string, bool, error)
	RegisterUser(ctx context.Context, req CreateUserRequest) (verifyID, userID string, ok bool, err error)
	VerifyRecordExists(ctx context.Context, verifyID string) (bool, error)
	GetVerifyRecord(ctx context.Context, verifyID string) (*models.Verify, error)
	VerifyUser(ctx context.Context, verifyID string) (bool, error)
	DeleteVerifyRecord(ctx context.Context, verifyID string) error
	DeleteUnverifiedUser(ctx context.Context, verifyID string) error
	PruneVerifyRecord(ctx context.Context, verifyID string) error
	PruneVerifyRecords(ctx context.Context) error
}

type verifyService struct {
	m *Manager
}

func NewVerifyService(m *Manager) VerifyService {
	return &verifyService{m: m}
}

// CreateVerifyRecord opens a verification for email. It reports false when
// the address already belongs to an account or has a verification pending.
func (s *verifyService) CreateVerifyRecord(ctx context.Context, email string) (string, bool, error) {
	var id string
	pending, err := s.m.exec.Get(ctx, &id, `SELECT id FROM verify WHERE email = ?`, email)
	if err != nil {
		return "", false, err
	}
	unused, err := s.m.User.UniqueEmail(ctx, email)
	if err != nil {
		return "", false, err
	}
	if pending || !unused {
		return "", false, nil
	}

	verifyID, err := s.m.NewUniqueID(ctx, TableVerify, TokenLength)
	if err != nil {
		return "", false, err
	}

	now := s.m.now()
	if _, err := s.m.exec.Exec(ctx, `INSERT INTO verify (id, email, create_time) VALUES (?, ?, ?)`,
		verifyID, email, now); err != nil {
		return "", false, fmt.Errorf("failed to create verify record: %w", err)
	}

	if err := s.m.armPrune(ctx, verifyExpiry, verifyID, now); err != nil {
		return "", false, err
	}
	return verifyID, true, nil
}

// RegisterUser creates the verification and the unverified account together.
func (s *verifyService) RegisterUser(ctx context.Context, req CreateUserRequest) (verifyID, userID string, ok bool, err error) {
	err = s.m.WithTx(ctx, func(tx *Manager) error {
		verifyID, ok, err = tx.Verify.CreateVerifyRecord(ctx, req.Email)
		if err != nil || !ok {
			return err
		}
		userID, err = tx.User.CreateUser(ctx, req)
		return err
	})
	if err != nil {
		return "", "", false, err
	}
	return verifyID, userID, ok, nil
}

func (s *verifyService) VerifyRecordExists(ctx context.Context, verifyID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM verify WHERE id = ?`, verifyID)
}

func (s *verifyService) GetVerifyRecord(ctx context.Context, verifyID string) (*models.Verify, error) {
	var record models.Verify
	found, err := s.m.exec.Get(ctx, &record, `SELECT * FROM verify WHERE id = ?`, verifyID)
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

// VerifyUser marks the account behind the record verified and consumes the
// record. It reports false, leaving everything untouched, when the record or
// the account is missing.
func (s *verifyService) VerifyUser(ctx context.Context, verifyID string) (bool, error) {
	var verified bool
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		record, err := tx.Verify.GetVerifyRecord(ctx, verifyID)
		if err != nil || record == nil {
			return err
		}
		user, err := tx.User.GetUserByEmail(ctx, record.Email)
		if err != nil || user == nil {
			return err
		}

		if err := tx.User.SetVerified(ctx, user.ID, true); err != nil {
			return err
		}
		if err := tx.Verify.DeleteVerifyRecord(ctx, verifyID); err != nil {
			return err
		}
		verified = true
		return nil
	})
	return verified, err
}

func (s *verifyService) DeleteVerifyRecord(ctx context.Context, verifyID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM verify WHERE id = ?`, verifyID); err != nil {
		return fmt.Errorf("failed to delete verify record: %w", err)
	}
	return nil
}

// DeleteUnverifiedUser drops an expired verification together with the
// account it was opened for, unless that account has been verified since.
func (s *verifyService) DeleteUnverifiedUser(ctx context.Context, verifyID string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		record, err := tx.Verify.GetVerifyRecord(ctx, verifyID)
		if err != nil || record == nil {
			return err
		}

		user, err := tx.User.GetUserByEmail(ctx, record.Email)
		if err != nil {
			return err
		}
		if user != nil && !user.Verified {
			if err := tx.User.DeleteUser(ctx, user.ID); err != nil {
				return err
			}
		}
		return tx.Verify.DeleteVerifyRecord(ctx, verifyID)
	})
}

func (s *verifyService) PruneVerifyRecord(ctx context.Context, verifyID string) error {
	return s.m.prune(ctx, verifyExpiry, verifyID)
}

func (s *verifyService) PruneVerifyRecords(ctx context.Context) error {
	return s.m.pruneAll(ctx, verifyExpiry)
}
