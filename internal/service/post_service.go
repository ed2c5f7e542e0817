package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cglreviews/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

type CreatePostRequest struct {
	UserID         string
	Content        string
	Images         [][]byte
	Location       string
	City           string
	Country        string
	LocationTypeID int
	ProgramID      int
	Rating         models.RatingInput
	ThreeWords     string
	Address        *string
	Phone          *string
	Website        *string
}

type PostService interface {
	CreatePost(ctx context.Context, req CreatePostRequest) (string, error)
	PostExists(ctx context.Context, postID string) (bool, error)
	GetPost(ctx context.Context, postID string) (*models.Post, error)
	GetPosts(ctx context.Context) ([]models.Post, error)
	DeletePost(ctx context.Context, postID string) error
	EditPost(ctx context.Context, postID string, edit models.PostEdit) error
	GetPostUser(ctx context.Context, postID string) (*models.User, error)
	GetPostRating(ctx context.Context, postID string) (*models.Rating, error)
	EditPostRating(ctx context.Context, postID string, rating models.RatingInput) error
	GetUserPosts(ctx context.Context, userID string) ([]models.Post, error)
	DeleteUserPosts(ctx context.Context, userID string) error
	GetPostImages(ctx context.Context, postID string) ([]models.Image, error)
	SetPostImages(ctx context.Context, postID string, images [][]byte) ([]string, error)
	IsApproved(ctx context.Context, postID string) (bool, error)
	SetApproved(ctx context.Context, postID string, approved bool) error
	GetUnapproved(ctx context.Context) ([]models.UnapprovedPost, error)
}

type postService struct {
	m *Manager
}

func NewPostService(m *Manager) PostService {
	return &postService{m: m}
}

// CreatePost writes the rating, the unapproved post and its gallery in one
// transaction. The post records the author's status at creation time.
func (s *postService) CreatePost(ctx context.Context, req CreatePostRequest) (string, error) {
	var postID string
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		var statusID int
		found, err := tx.exec.Get(ctx, &statusID, `SELECT status_id FROM users WHERE id = ?`, req.UserID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%s: %w", req.UserID, ErrUserNotFound)
		}

		postID, err = tx.NewUniqueID(ctx, TablePosts, IDLength)
		if err != nil {
			return err
		}

		ratingID, err := tx.Rating.CreateRating(ctx, req.Rating)
		if err != nil {
			return err
		}

		_, err = tx.exec.Exec(ctx, `
			INSERT INTO posts (
				id, user_id, content, location, city, country, location_type_id, program_id,
				rating_id, three_words, current_user_status_id, address, phone, website,
				approved, create_time
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			postID, req.UserID, req.Content, req.Location, req.City, req.Country,
			req.LocationTypeID, req.ProgramID, ratingID, req.ThreeWords, statusID,
			req.Address, req.Phone, req.Website, false, tx.now(),
		)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}

		if _, err := tx.PostImage.CreatePostImages(ctx, postID, req.Images); err != nil {
			return err
		}

		return tx.User.UpdateLastPostTime(ctx, req.UserID)
	})
	if err != nil {
		return "", err
	}
	return postID, nil
}

func (s *postService) PostExists(ctx context.Context, postID string) (bool, error) {
	var id string
	return s.m.exec.Get(ctx, &id, `SELECT id FROM posts WHERE id = ?`, postID)
}

func (s *postService) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	found, err := s.m.exec.Get(ctx, &post, `SELECT * FROM posts WHERE id = ?`, postID)
	if err != nil || !found {
		return nil, err
	}
	return &post, nil
}

// GetPosts lists approved posts, newest first.
func (s *postService) GetPosts(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.m.exec.Select(ctx, &posts,
		`SELECT * FROM posts WHERE approved = ? ORDER BY create_time DESC`, true)
	return posts, err
}

// DeletePost removes the post with its gallery, favorite, votes and rating.
func (s *postService) DeletePost(ctx context.Context, postID string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		var ratingID string
		found, err := tx.exec.Get(ctx, &ratingID, `SELECT rating_id FROM posts WHERE id = ?`, postID)
		if err != nil || !found {
			return err
		}

		if err := tx.PostImage.DeletePostImages(ctx, postID); err != nil {
			return err
		}
		if err := tx.AdminFavorites.Unfavorite(ctx, postID); err != nil {
			return err
		}
		if err := tx.PostVote.DeletePostVotes(ctx, postID); err != nil {
			return err
		}
		if _, err := tx.exec.Exec(ctx, `DELETE FROM posts WHERE id = ?`, postID); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return tx.Rating.DeleteRating(ctx, ratingID)
	})
}

// EditPost writes only the fields set in edit and stamps the edit time.
// An empty edit changes nothing.
func (s *postService) EditPost(ctx context.Context, postID string, edit models.PostEdit) error {
	var sets []string
	var args []any
	add := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if edit.Content != nil {
		add("content", *edit.Content)
	}
	if edit.Location != nil {
		add("location", *edit.Location)
	}
	if edit.City != nil {
		add("city", *edit.City)
	}
	if edit.Country != nil {
		add("country", *edit.Country)
	}
	if edit.LocationTypeID != nil {
		add("location_type_id", *edit.LocationTypeID)
	}
	if edit.ProgramID != nil {
		add("program_id", *edit.ProgramID)
	}
	if edit.ThreeWords != nil {
		add("three_words", *edit.ThreeWords)
	}
	if edit.Address != nil {
		add("address", *edit.Address)
	}
	if edit.Phone != nil {
		add("phone", *edit.Phone)
	}
	if edit.Website != nil {
		add("website", *edit.Website)
	}
	if len(sets) == 0 {
		return nil
	}
	add("edit_time", s.m.now())

	query := `UPDATE posts SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if _, err := s.m.exec.Exec(ctx, query, append(args, postID)...); err != nil {
		return fmt.Errorf("failed to edit post: %w", err)
	}
	return nil
}

func (s *postService) GetPostUser(ctx context.Context, postID string) (*models.User, error) {
	var user models.User
	found, err := s.m.exec.Get(ctx, &user, `
		SELECT users.* FROM users
		JOIN posts ON posts.user_id = users.id
		WHERE posts.id = ?`, postID)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *postService) GetPostRating(ctx context.Context, postID string) (*models.Rating, error) {
	var ratingID string
	found, err := s.m.exec.Get(ctx, &ratingID, `SELECT rating_id FROM posts WHERE id = ?`, postID)
	if err != nil || !found {
		return nil, err
	}
	return s.m.Rating.GetRating(ctx, ratingID)
}

func (s *postService) EditPostRating(ctx context.Context, postID string, rating models.RatingInput) error {
	var ratingID string
	found, err := s.m.exec.Get(ctx, &ratingID, `SELECT rating_id FROM posts WHERE id = ?`, postID)
	if err != nil || !found {
		return err
	}
	return s.m.Rating.EditRating(ctx, ratingID, rating)
}

func (s *postService) GetUserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	posts := []models.Post{}
	err := s.m.exec.Select(ctx, &posts, `SELECT * FROM posts WHERE user_id = ? ORDER BY create_time`, userID)
	return posts, err
}

func (s *postService) DeleteUserPosts(ctx context.Context, userID string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		ids := []string{}
		if err := tx.exec.Select(ctx, &ids, `SELECT id FROM posts WHERE user_id = ?`, userID); err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.Post.DeletePost(ctx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *postService) GetPostImages(ctx context.Context, postID string) ([]models.Image, error) {
	return s.m.PostImage.GetPostImages(ctx, postID)
}

// SetPostImages appends images after the ones already attached.
func (s *postService) SetPostImages(ctx context.Context, postID string, images [][]byte) ([]string, error) {
	return s.m.PostImage.CreatePostImages(ctx, postID, images)
}

func (s *postService) IsApproved(ctx context.Context, postID string) (bool, error) {
	var approved bool
	_, err := s.m.exec.Get(ctx, &approved, `SELECT approved FROM posts WHERE id = ?`, postID)
	return approved, err
}

func (s *postService) SetApproved(ctx context.Context, postID string, approved bool) error {
	if _, err := s.m.exec.Exec(ctx, `UPDATE posts SET approved = ? WHERE id = ?`, approved, postID); err != nil {
		return fmt.Errorf("failed to set post approval: %w", err)
	}
	return nil
}

// GetUnapproved returns the moderation queue, oldest first.
func (s *postService) GetUnapproved(ctx context.Context) ([]models.UnapprovedPost, error) {
	posts := []models.UnapprovedPost{}
	err := s.m.exec.Select(ctx, &posts, `
		SELECT posts.id AS post_id, users.firstname, users.lastname, posts.content,
			posts.location, posts.city, posts.country, location_types.name AS location_type,
			programs.name AS program, posts.three_words, posts.create_time
		FROM posts
		JOIN users ON posts.user_id = users.id
		JOIN location_types ON posts.location_type_id = location_types.id
		JOIN programs ON posts.program_id = programs.id
		WHERE posts.approved = ?
		ORDER BY posts.create_time`, false)
	return posts, err
}
