package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

type RatingService interface {
	CreateRating(ctx context.Context, rating models.RatingInput) (string, error)
	RatingExists(ctx context.Context, ratingID string) (bool, error)
	GetRating(ctx context.Context, ratingID string) (*models.Rating, error)
	EditRating(ctx context.Context, ratingID string, rating models.RatingInput) error
	DeleteRating(ctx context.Context, ratingID string) error
}

type ratingService struct {
	m *Manager
}

func NewRatingService(m *Manager) RatingService {
	return &ratingService{m: m}
}

// ratingColumns validates a partial rating. General must be 1 to 5; every
// other score is 1 to 5 or zero for "not rated", which is stored as NULL.
func ratingColumns(r models.RatingInput) ([]any, error) {
	if r.General < 1 || r.General > 5 {
		return nil, fmt.Errorf("general score %d: %w", r.General, ErrInvalidRating)
	}
	values := []any{r.General}
	for _, score := range []int{r.Cost, r.Quality, r.Safety, r.Cleanliness, r.GuestServices} {
		switch {
		case score == 0:
			values = append(values, nil)
		case score >= 1 && score <= 5:
			values = append(values, score)
		default:
			return nil, fmt.Errorf("score %d: %w", score, ErrInvalidRating)
		}
	}
	return values, nil
}

func (s *ratingService) CreateRating(ctx context.Context, rating models.RatingInput) (string, error) {
	values, err := ratingColumns(rating)
	if err != nil {
		return "", err
	}

	ratingID, err := s.m.NewUniqueID(ctx, TableRatings, IDLength)
	if err != nil {
		return "", err
	}

	_, err = s.m.exec.Exec(ctx, `
		INSERT INTO ratings (id, general, cost, quality, safety, cleanliness, guest_services)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, append([]any{ratingID}, values...)...)
	if err != nil {
		return "", fmt.Errorf("failed to create rating: %w", err)
	}
	return ratingID, nil
}

func (s *ratingService) RatingExists(ctx context.Context, ratingID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM ratings WHERE id = ?`, ratingID)
}

func (s *ratingService) GetRating(ctx context.Context, ratingID string) (*models.Rating, error) {
	var rating models.Rating
	found, err := s.m.exec.Get(ctx, &rating, `
		SELECT id, general, cost, quality, safety, cleanliness, guest_services
		FROM ratings WHERE id = ?`, ratingID)
	if err != nil || !found {
		return nil, err
	}
	return &rating, nil
}

// EditRating replaces every score of an existing rating.
func (s *ratingService) EditRating(ctx context.Context, ratingID string, rating models.RatingInput) error {
	values, err := ratingColumns(rating)
	if err != nil {
		return err
	}

	_, err = s.m.exec.Exec(ctx, `
		UPDATE ratings
		SET general = ?, cost = ?, quality = ?, safety = ?, cleanliness = ?, guest_services = ?
		WHERE id = ?`, append(values, ratingID)...)
	if err != nil {
		return fmt.Errorf("failed to edit rating: %w", err)
	}
	return nil
}

func (s *ratingService) DeleteRating(ctx context.Context, ratingID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM ratings WHERE id = ?`, ratingID); err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}
	return nil
}
