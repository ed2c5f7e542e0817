package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type PostImageService interface {
	SetPostImage(ctx context.Context, postID, imageID string) error
	CreatePostImage(ctx context.Context, postID string, data []byte) (string, error)
	CreatePostImages(ctx context.Context, postID string, images [][]byte) ([]string, error)
	GetPostImages(ctx context.Context, postID string) ([]models.Image, error)
	GetPostImageIDs(ctx context.Context, postID string) ([]string, error)
	GetPostImage(ctx context.Context, postID string, index int) (*models.Image, error)
	NumImages(ctx context.Context, postID string) (int, error)
	DeletePostImage(ctx context.Context, postID string, index int) (bool, error)
	DeletePostImages(ctx context.Context, postID string) error
}

type postImageService struct {
	m *Manager
}

func NewPostImageService(m *Manager) PostImageService {
	return &postImageService{m: m}
}

func (s *postImageService) SetPostImage(ctx context.Context, postID, imageID string) error {
	if _, err := s.m.exec.Exec(ctx, `INSERT INTO post_images (post_id, image_id) VALUES (?, ?)`,
		postID, imageID); err != nil {
		return fmt.Errorf("failed to attach image to post: %w", err)
	}
	return nil
}

func (s *postImageService) CreatePostImage(ctx context.Context, postID string, data []byte) (string, error) {
	imageID, err := s.m.Image.CreateImage(ctx, data)
	if err != nil {
		return "", err
	}
	if err := s.SetPostImage(ctx, postID, imageID); err != nil {
		return "", err
	}
	return imageID, nil
}

// CreatePostImages appends images to the post's gallery in the given order.
func (s *postImageService) CreatePostImages(ctx context.Context, postID string, images [][]byte) ([]string, error) {
	imageIDs := make([]string, 0, len(images))
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		for _, data := range images {
			imageID, err := tx.PostImage.CreatePostImage(ctx, postID, data)
			if err != nil {
				return err
			}
			imageIDs = append(imageIDs, imageID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return imageIDs, nil
}

// GetPostImages returns the gallery in insertion order.
func (s *postImageService) GetPostImages(ctx context.Context, postID string) ([]models.Image, error) {
	images := []models.Image{}
	err := s.m.exec.Select(ctx, &images, `
		SELECT images.id, images.data, images.register_time
		FROM images
		JOIN post_images ON images.id = post_images.image_id
		WHERE post_images.post_id = ?
		ORDER BY post_images.id`, postID)
	if err != nil {
		return nil, err
	}
	for i := range images {
		if err := s.m.loadBlob(ctx, &images[i]); err != nil {
			return nil, err
		}
	}
	return images, nil
}

func (s *postImageService) GetPostImageIDs(ctx context.Context, postID string) ([]string, error) {
	ids := []string{}
	err := s.m.exec.Select(ctx, &ids,
		`SELECT image_id FROM post_images WHERE post_id = ? ORDER BY id`, postID)
	return ids, err
}

// GetPostImage returns the image at a zero-based gallery position, or nil when out of range.
func (s *postImageService) GetPostImage(ctx context.Context, postID string, index int) (*models.Image, error) {
	ids, err := s.GetPostImageIDs(ctx, postID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ids) {
		return nil, nil
	}
	return s.m.Image.GetImage(ctx, ids[index])
}

func (s *postImageService) NumImages(ctx context.Context, postID string) (int, error) {
	var count int
	_, err := s.m.exec.Get(ctx, &count, `SELECT COUNT(*) FROM post_images WHERE post_id = ?`, postID)
	return count, err
}

// DeletePostImage removes the image at a zero-based gallery position. An index
// outside the gallery deletes nothing and reports false.
func (s *postImageService) DeletePostImage(ctx context.Context, postID string, index int) (bool, error) {
	deleted := false
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		ids, err := tx.PostImage.GetPostImageIDs(ctx, postID)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(ids) {
			return nil
		}

		if _, err := tx.exec.Exec(ctx, `DELETE FROM post_images WHERE post_id = ? AND image_id = ?`,
			postID, ids[index]); err != nil {
			return fmt.Errorf("failed to detach post image: %w", err)
		}
		if err := tx.Image.DeleteImage(ctx, ids[index]); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func (s *postImageService) DeletePostImages(ctx context.Context, postID string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		ids, err := tx.PostImage.GetPostImageIDs(ctx, postID)
		if err != nil {
			return err
		}
		if _, err := tx.exec.Exec(ctx, `DELETE FROM post_images WHERE post_id = ?`, postID); err != nil {
			return fmt.Errorf("failed to detach post images: %w", err)
		}
		return tx.Image.DeleteImages(ctx, ids)
	})
}
