package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type LoginStatus int

const (
	LoginSuccess LoginStatus = iota
	LoginBadLogin
	LoginAccountSuspended
)

func (s LoginStatus) String() string {
	switch s {
	case LoginSuccess:
		return "Success"
	case LoginBadLogin:
		return "BadLogin"
	case LoginAccountSuspended:
		return "AccountSuspended"
	default:
		return fmt.Sprintf("LoginStatus(%d)", int(s))
	}
}

type CreateUserRequest struct {
	Firstname string
	Lastname  string
	Email     string
	Password  string
	StatusID  int
}

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (string, error)
	UserExists(ctx context.Context, userID string) (bool, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UniqueEmail(ctx context.Context, email string) (bool, error)
	DeleteUser(ctx context.Context, userID string) error
	Login(ctx context.Context, email, password string) (LoginStatus, error)
	CheckPassword(ctx context.Context, userID, password string) (bool, error)
	GetUserStatusName(ctx context.Context, userID string) (string, error)
	SetStatus(ctx context.Context, userID string, statusID int) error
	SetVerified(ctx context.Context, userID string, verified bool) error
	SetApproved(ctx context.Context, userID string, approved bool) error
	SetAdmin(ctx context.Context, userID string, admin bool) error
	GetUnapproved(ctx context.Context) ([]models.UnapprovedUser, error)
	GetUserImage(ctx context.Context, userID string) (*models.Image, error)
	SetUserImage(ctx context.Context, userID string, data []byte) (string, error)
	DeleteUserImage(ctx context.Context, userID string) error
	SetUserPassword(ctx context.Context, userID, password string) error
	SetUserEmail(ctx context.Context, userID, email string) error
	UpdateUser(ctx context.Context, userID, firstname, lastname string) error
	UpdateLastPostTime(ctx context.Context, userID string) error
}

type userService struct {
	m *Manager
}

func NewUserService(m *Manager) UserService {
	return &userService{m: m}
}

// CreateUser inserts an unverified, unapproved, non-admin account and returns its id.
func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (string, error) {
	hashedPassword, err := s.m.hashPassword(ctx, req.Password)
	if err != nil {
		return "", err
	}

	userID, err := s.m.NewUniqueID(ctx, TableUsers, IDLength)
	if err != nil {
		return "", err
	}

	_, err = s.m.exec.Exec(ctx, `
		INSERT INTO users (
			id, firstname, lastname, email, password_hash, status_id, verified, approved, admin, join_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, req.Firstname, req.Lastname, req.Email, hashedPassword, req.StatusID,
		false, false, false, s.m.now(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	return userID, nil
}

func (s *userService) UserExists(ctx context.Context, userID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM users WHERE id = ?`, userID)
}

func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	found, err := s.m.exec.Get(ctx, &user, `SELECT * FROM users WHERE id = ?`, userID)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	found, err := s.m.exec.Get(ctx, &user, `SELECT * FROM users WHERE email = ?`, email)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *userService) UniqueEmail(ctx context.Context, email string) (bool, error) {
	var found string
	exists, err := s.m.exec.Get(ctx, &found, `SELECT email FROM users WHERE email = ?`, email)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// DeleteUser removes the account and everything that references it.
func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		if err := tx.Session.DeleteUserSessions(ctx, userID); err != nil {
			return err
		}
		if err := tx.PostVote.DeleteUserVotes(ctx, userID); err != nil {
			return err
		}
		if err := tx.Post.DeleteUserPosts(ctx, userID); err != nil {
			return err
		}
		if err := tx.EmailChange.DeleteUserEmailChanges(ctx, userID); err != nil {
			return err
		}
		if err := tx.UserStatusChange.DeleteUserRequest(ctx, userID); err != nil {
			return err
		}
		if err := tx.Suspended.DeleteUserSuspension(ctx, userID); err != nil {
			return err
		}
		if err := tx.User.DeleteUserImage(ctx, userID); err != nil {
			return err
		}

		if _, err := tx.exec.Exec(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
}

// Login only matches verified and approved accounts. The password is checked
// even when no account matches, and a suspended account never has its login
// time updated.
func (s *userService) Login(ctx context.Context, email, password string) (LoginStatus, error) {
	var row struct {
		ID           string `db:"id"`
		PasswordHash string `db:"password_hash"`
	}
	found, err := s.m.exec.Get(ctx, &row,
		`SELECT id, password_hash FROM users WHERE email = ? AND verified = ? AND approved = ?`,
		email, true, true)
	if err != nil {
		return LoginBadLogin, err
	}

	if !found {
		if row.PasswordHash, err = s.m.placeholderHash(ctx); err != nil {
			return LoginBadLogin, err
		}
	}
	same, err := s.m.hasher.Check(ctx, password, row.PasswordHash)
	if err != nil {
		return LoginBadLogin, err
	}
	if !found || !same {
		return LoginBadLogin, nil
	}

	suspended, err := s.m.Suspended.UserIsSuspended(ctx, row.ID)
	if err != nil {
		return LoginBadLogin, err
	}
	if suspended {
		return LoginAccountSuspended, nil
	}

	if _, err := s.m.exec.Exec(ctx, `UPDATE users SET last_login_time = ? WHERE id = ?`, s.m.now(), row.ID); err != nil {
		return LoginBadLogin, fmt.Errorf("failed to update login time: %w", err)
	}
	return LoginSuccess, nil
}

func (s *userService) CheckPassword(ctx context.Context, userID, password string) (bool, error) {
	var hash string
	found, err := s.m.exec.Get(ctx, &hash, `SELECT password_hash FROM users WHERE id = ?`, userID)
	if err != nil || !found {
		return false, err
	}
	return s.m.hasher.Check(ctx, password, hash)
}

func (s *userService) GetUserStatusName(ctx context.Context, userID string) (string, error) {
	var name string
	_, err := s.m.exec.Get(ctx, &name, `
		SELECT user_statuses.name FROM users
		JOIN user_statuses ON users.status_id = user_statuses.id
		WHERE users.id = ?`, userID)
	return name, err
}

func (s *userService) SetStatus(ctx context.Context, userID string, statusID int) error {
	return s.set(ctx, "status_id", statusID, userID)
}

func (s *userService) SetVerified(ctx context.Context, userID string, verified bool) error {
	return s.set(ctx, "verified", verified, userID)
}

func (s *userService) SetApproved(ctx context.Context, userID string, approved bool) error {
	return s.set(ctx, "approved", approved, userID)
}

func (s *userService) SetAdmin(ctx context.Context, userID string, admin bool) error {
	return s.set(ctx, "admin", admin, userID)
}

func (s *userService) SetUserEmail(ctx context.Context, userID, email string) error {
	return s.set(ctx, "email", email, userID)
}

// set writes one column; column is always a literal from this file.
func (s *userService) set(ctx context.Context, column string, value any, userID string) error {
	if _, err := s.m.exec.Exec(ctx, `UPDATE users SET `+column+` = ? WHERE id = ?`, value, userID); err != nil {
		return fmt.Errorf("failed to update user %s: %w", column, err)
	}
	return nil
}

// GetUnapproved lists verified accounts waiting for approval, oldest first.
func (s *userService) GetUnapproved(ctx context.Context) ([]models.UnapprovedUser, error) {
	users := []models.UnapprovedUser{}
	err := s.m.exec.Select(ctx, &users, `
		SELECT users.id, users.firstname, users.lastname, users.email,
			user_statuses.name AS status, users.join_time
		FROM users
		JOIN user_statuses ON users.status_id = user_statuses.id
		WHERE users.verified = ? AND users.approved = ?
		ORDER BY users.join_time`, true, false)
	return users, err
}

func (s *userService) GetUserImage(ctx context.Context, userID string) (*models.Image, error) {
	imageID, err := s.imageID(ctx, userID)
	if err != nil || imageID == nil {
		return nil, err
	}
	return s.m.Image.GetImage(ctx, *imageID)
}

// SetUserImage stores a new profile image and deletes the one it replaces.
func (s *userService) SetUserImage(ctx context.Context, userID string, data []byte) (string, error) {
	var newImageID string
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		old, err := (&userService{m: tx}).imageID(ctx, userID)
		if err != nil {
			return err
		}

		newImageID, err = tx.Image.CreateImage(ctx, data)
		if err != nil {
			return err
		}

		if _, err := tx.exec.Exec(ctx, `UPDATE users SET image_id = ? WHERE id = ?`, newImageID, userID); err != nil {
			return fmt.Errorf("failed to set user image: %w", err)
		}

		if old != nil {
			return tx.Image.DeleteImage(ctx, *old)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return newImageID, nil
}

func (s *userService) DeleteUserImage(ctx context.Context, userID string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		old, err := (&userService{m: tx}).imageID(ctx, userID)
		if err != nil || old == nil {
			return err
		}

		if _, err := tx.exec.Exec(ctx, `UPDATE users SET image_id = NULL WHERE id = ?`, userID); err != nil {
			return fmt.Errorf("failed to clear user image: %w", err)
		}
		return tx.Image.DeleteImage(ctx, *old)
	})
}

func (s *userService) imageID(ctx context.Context, userID string) (*string, error) {
	var imageID *string
	_, err := s.m.exec.Get(ctx, &imageID, `SELECT image_id FROM users WHERE id = ?`, userID)
	return imageID, err
}

func (s *userService) SetUserPassword(ctx context.Context, userID, password string) error {
	hashedPassword, err := s.m.hashPassword(ctx, password)
	if err != nil {
		return err
	}
	return s.set(ctx, "password_hash", hashedPassword, userID)
}

func (s *userService) UpdateUser(ctx context.Context, userID, firstname, lastname string) error {
	if _, err := s.m.exec.Exec(ctx, `UPDATE users SET firstname = ?, lastname = ? WHERE id = ?`,
		firstname, lastname, userID); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *userService) UpdateLastPostTime(ctx context.Context, userID string) error {
	return s.set(ctx, "last_post_time", s.m.now(), userID)
}
