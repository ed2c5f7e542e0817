package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type AdminFavoritesService interface {
	GetFavorite(ctx context.Context, favoriteID string) (*models.AdminFavorite, error)
	GetFavoriteByPostID(ctx context.Context, postID string) (*models.AdminFavorite, error)
	Favorite(ctx context.Context, postID string) (string, bool, error)
	Unfavorite(ctx context.Context, postID string) error
	IsFavorite(ctx context.Context, postID string) (bool, error)
	GetFavorites(ctx context.Context) ([]models.AdminFavorite, error)
	GetFavoritePosts(ctx context.Context) ([]models.Post, error)
	GetRecentFavorites(ctx context.Context, n int) ([]models.Post, error)
}

type adminFavoritesService struct {
	m *Manager
}

func NewAdminFavoritesService(m *Manager) AdminFavoritesService {
	return &adminFavoritesService{m: m}
}

func (s *adminFavoritesService) GetFavorite(ctx context.Context, favoriteID string) (*models.AdminFavorite, error) {
	var favorite models.AdminFavorite
	found, err := s.m.exec.Get(ctx, &favorite,
		`SELECT id, post_id, create_time FROM admin_favorites WHERE id = ?`, favoriteID)
	if err != nil || !found {
		return nil, err
	}
	return &favorite, nil
}

func (s *adminFavoritesService) GetFavoriteByPostID(ctx context.Context, postID string) (*models.AdminFavorite, error) {
	var favorite models.AdminFavorite
	found, err := s.m.exec.Get(ctx, &favorite,
		`SELECT id, post_id, create_time FROM admin_favorites WHERE post_id = ?`, postID)
	if err != nil || !found {
		return nil, err
	}
	return &favorite, nil
}

// Favorite features a post. It reports false and does nothing when the post is already featured.
func (s *adminFavoritesService) Favorite(ctx context.Context, postID string) (string, bool, error) {
	exists, err := s.IsFavorite(ctx, postID)
	if err != nil || exists {
		return "", false, err
	}

	favoriteID, err := s.m.NewUniqueID(ctx, TableAdminFavorites, IDLength)
	if err != nil {
		return "", false, err
	}

	if _, err := s.m.exec.Exec(ctx, `INSERT INTO admin_favorites (id, post_id, create_time) VALUES (?, ?, ?)`,
		favoriteID, postID, s.m.now()); err != nil {
		return "", false, fmt.Errorf("failed to favorite post: %w", err)
	}
	return favoriteID, true, nil
}

func (s *adminFavoritesService) Unfavorite(ctx context.Context, postID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM admin_favorites WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("failed to unfavorite post: %w", err)
	}
	return nil
}

func (s *adminFavoritesService) IsFavorite(ctx context.Context, postID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM admin_favorites WHERE post_id = ?`, postID)
}

func (s *adminFavoritesService) GetFavorites(ctx context.Context) ([]models.AdminFavorite, error) {
	favorites := []models.AdminFavorite{}
	err := s.m.exec.Select(ctx, &favorites,
		`SELECT id, post_id, create_time FROM admin_favorites ORDER BY create_time`)
	return favorites, err
}

// GetFavoritePosts returns featured posts in the order they were featured.
func (s *adminFavoritesService) GetFavoritePosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.m.exec.Select(ctx, &posts, `
		SELECT posts.* FROM posts
		JOIN admin_favorites ON admin_favorites.post_id = posts.id
		ORDER BY admin_favorites.create_time`)
	return posts, err
}

// GetRecentFavorites returns the n most recently created featured posts. The
// order follows when the post was written, not when it was featured.
func (s *adminFavoritesService) GetRecentFavorites(ctx context.Context, n int) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.m.exec.Select(ctx, &posts, `
		SELECT posts.* FROM posts
		JOIN admin_favorites ON admin_favorites.post_id = posts.id
		ORDER BY posts.create_time DESC
		LIMIT ?`, n)
	return posts, err
}
