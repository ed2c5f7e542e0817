package service

import (
	"context"

	"cglreviews/internal/models"
)

type AdminService interface {
	GetUsers(ctx context.Context) ([]models.AdminUser, error)
	GetPosts(ctx context.Context) ([]models.AdminPost, error)
	GetRecords(ctx context.Context, t Table) (int64, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

type adminService struct {
	m *Manager
}

func NewAdminService(m *Manager) AdminService {
	return &adminService{m: m}
}

// GetUsers lists every account with its status name, in join order.
func (s *adminService) GetUsers(ctx context.Context) ([]models.AdminUser, error) {
	users := []models.AdminUser{}
	err := s.m.exec.Select(ctx, &users, `
		SELECT users.id, users.firstname, users.lastname, users.email,
			user_statuses.name AS status, users.verified, users.approved, users.admin,
			users.join_time, users.last_login_time, users.last_post_time
		FROM users
		JOIN user_statuses ON users.status_id = user_statuses.id
		ORDER BY users.join_time, users.id`)
	return users, err
}

// GetPosts lists every post, approved or not. AdminFavorite carries the
// favorite id of featured posts.
func (s *adminService) GetPosts(ctx context.Context) ([]models.AdminPost, error) {
	posts := []models.AdminPost{}
	err := s.m.exec.Select(ctx, &posts, `
		SELECT posts.id, posts.location, users.firstname || ' ' || users.lastname AS post_user,
			programs.name AS program, ratings.general AS rating, posts.approved,
			posts.create_time, admin_favorites.id AS admin_favorite
		FROM posts
		JOIN users ON posts.user_id = users.id
		JOIN programs ON posts.program_id = programs.id
		JOIN ratings ON posts.rating_id = ratings.id
		LEFT JOIN admin_favorites ON posts.id = admin_favorites.post_id
		ORDER BY posts.create_time, posts.id`)
	return posts, err
}

// GetRecords counts the rows of t.
func (s *adminService) GetRecords(ctx context.Context, t Table) (int64, error) {
	if _, err := ParseTable(string(t)); err != nil {
		return 0, err
	}
	var count int64
	_, err := s.m.exec.Get(ctx, &count, "SELECT COUNT(*) FROM "+string(t))
	return count, err
}

func (s *adminService) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	for _, c := range []struct {
		dest  *int64
		query string
		args  []any
	}{
		{&stats.Users, `SELECT COUNT(*) FROM users`, nil},
		{&stats.UnapprovedUsers, `SELECT COUNT(*) FROM users WHERE verified = ? AND approved = ?`, []any{true, false}},
		{&stats.Posts, `SELECT COUNT(*) FROM posts`, nil},
		{&stats.UnapprovedPosts, `SELECT COUNT(*) FROM posts WHERE approved = ?`, []any{false}},
		{&stats.Favorites, `SELECT COUNT(*) FROM admin_favorites`, nil},
		{&stats.Suspended, `SELECT COUNT(*) FROM suspended`, nil},
		{&stats.StatusRequests, `SELECT COUNT(*) FROM user_status_changes`, nil},
		{&stats.ActiveSessions, `SELECT COUNT(*) FROM sessions`, nil},
	} {
		if _, err := s.m.exec.Get(ctx, c.dest, c.query, c.args...); err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
