package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type ImageService interface {
	CreateImage(ctx context.Context, data []byte) (string, error)
	ImageExists(ctx context.Context, imageID string) (bool, error)
	GetImage(ctx context.Context, imageID string) (*models.Image, error)
	DeleteImage(ctx context.Context, imageID string) error
	DeleteImages(ctx context.Context, imageIDs []string) error
}

type imageService struct {
	m *Manager
}

func NewImageService(m *Manager) ImageService {
	return &imageService{m: m}
}

func blobKey(imageID string) string {
	return "images/" + imageID
}

// CreateImage stores data under a new id. With a blob store configured the
// bytes go to the store and the row only records the image.
func (s *imageService) CreateImage(ctx context.Context, data []byte) (string, error) {
	imageID, err := s.m.NewUniqueID(ctx, TableImages, IDLength)
	if err != nil {
		return "", err
	}

	stored := data
	if s.m.blobs != nil {
		if err := s.m.blobs.Put(ctx, blobKey(imageID), data); err != nil {
			return "", err
		}
		stored = []byte{}
		s.m.onRollback(func() { s.deleteBlob(ctx, imageID) })
	}

	if _, err := s.m.exec.Exec(ctx, `INSERT INTO images (id, data, register_time) VALUES (?, ?, ?)`,
		imageID, stored, s.m.now()); err != nil {
		if s.m.blobs != nil && s.m.hooks == nil {
			s.deleteBlob(ctx, imageID)
		}
		return "", fmt.Errorf("failed to create image: %w", err)
	}
	return imageID, nil
}

func (s *imageService) deleteBlob(ctx context.Context, imageID string) {
	if err := s.m.blobs.Delete(context.WithoutCancel(ctx), blobKey(imageID)); err != nil {
		s.m.logger.Error("failed to delete image blob", "image", imageID, "error", err)
	}
}

func (s *imageService) ImageExists(ctx context.Context, imageID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM images WHERE id = ?`, imageID)
}

func (s *imageService) GetImage(ctx context.Context, imageID string) (*models.Image, error) {
	var image models.Image
	found, err := s.m.exec.Get(ctx, &image, `SELECT id, data, register_time FROM images WHERE id = ?`, imageID)
	if err != nil || !found {
		return nil, err
	}
	if err := s.m.loadBlob(ctx, &image); err != nil {
		return nil, err
	}
	return &image, nil
}

func (s *imageService) DeleteImage(ctx context.Context, imageID string) error {
	return s.DeleteImages(ctx, []string{imageID})
}

// DeleteImages removes the rows now and the stored blobs once the deletion has committed.
func (s *imageService) DeleteImages(ctx context.Context, imageIDs []string) error {
	if len(imageIDs) == 0 {
		return nil
	}
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM images WHERE id IN (?)`, imageIDs); err != nil {
		return fmt.Errorf("failed to delete images: %w", err)
	}

	if s.m.blobs != nil {
		blobs, logger := s.m.blobs, s.m.logger
		s.m.afterCommit(func() {
			for _, id := range imageIDs {
				if err := blobs.Delete(context.WithoutCancel(ctx), blobKey(id)); err != nil {
					logger.Error("failed to delete image blob", "image", id, "error", err)
				}
			}
		})
	}
	return nil
}

func (m *Manager) loadBlob(ctx context.Context, image *models.Image) error {
	if m.blobs == nil || len(image.Data) > 0 {
		return nil
	}
	data, err := m.blobs.Get(ctx, blobKey(image.ID))
	if err != nil {
		return err
	}
	image.Data = data
	return nil
}
