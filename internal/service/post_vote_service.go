package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

const VoteUpvote = "Upvote"

type PostVoteService interface {
	Vote(ctx context.Context, userID, postID, voteType string) error
	Unvote(ctx context.Context, userID, postID string) error
	ToggleVote(ctx context.Context, userID, postID, voteType string) (bool, error)
	Voted(ctx context.Context, userID, postID string) (bool, error)
	GetVote(ctx context.Context, voteID int64) (*models.PostVote, error)
	GetVotes(ctx context.Context) ([]models.PostVote, error)
	GetUserVotes(ctx context.Context, userID string) ([]models.PostVote, error)
	GetPostVotes(ctx context.Context, postID string) ([]models.PostVote, error)
	GetPostVoteType(ctx context.Context, userID, postID string) (string, bool, error)
	GetNumPostVotes(ctx context.Context, postID, voteType string) (int, error)
	DeleteUserVotes(ctx context.Context, userID string) error
	DeletePostVotes(ctx context.Context, postID string) error
}

type postVoteService struct {
	m *Manager
}

func NewPostVoteService(m *Manager) PostVoteService {
	return &postVoteService{m: m}
}

const voteColumns = `id, user_id, post_id, vote_type, create_time`

// Vote records the user's vote on a post, replacing any earlier vote so each
// (user, post) pair has at most one row.
func (s *postVoteService) Vote(ctx context.Context, userID, postID, voteType string) error {
	return s.m.WithTx(ctx, func(tx *Manager) error {
		if err := tx.PostVote.Unvote(ctx, userID, postID); err != nil {
			return err
		}
		if _, err := tx.exec.Exec(ctx, `
			INSERT INTO post_votes (user_id, post_id, vote_type, create_time) VALUES (?, ?, ?, ?)`,
			userID, postID, voteType, tx.now()); err != nil {
			return fmt.Errorf("failed to vote: %w", err)
		}
		return nil
	})
}

func (s *postVoteService) Unvote(ctx context.Context, userID, postID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM post_votes WHERE user_id = ? AND post_id = ?`,
		userID, postID); err != nil {
		return fmt.Errorf("failed to unvote: %w", err)
	}
	return nil
}

// ToggleVote removes an existing vote or casts a new one. It reports whether the user has voted afterwards.
func (s *postVoteService) ToggleVote(ctx context.Context, userID, postID, voteType string) (bool, error) {
	var voted bool
	err := s.m.WithTx(ctx, func(tx *Manager) error {
		exists, err := tx.PostVote.Voted(ctx, userID, postID)
		if err != nil {
			return err
		}
		if exists {
			return tx.PostVote.Unvote(ctx, userID, postID)
		}
		voted = true
		return tx.PostVote.Vote(ctx, userID, postID, voteType)
	})
	return voted, err
}

func (s *postVoteService) Voted(ctx context.Context, userID, postID string) (bool, error) {
	var id int64
	return s.m.exec.Get(ctx, &id, `SELECT id FROM post_votes WHERE user_id = ? AND post_id = ?`, userID, postID)
}

func (s *postVoteService) GetVote(ctx context.Context, voteID int64) (*models.PostVote, error) {
	var vote models.PostVote
	found, err := s.m.exec.Get(ctx, &vote, `SELECT `+voteColumns+` FROM post_votes WHERE id = ?`, voteID)
	if err != nil || !found {
		return nil, err
	}
	return &vote, nil
}

func (s *postVoteService) GetVotes(ctx context.Context) ([]models.PostVote, error) {
	votes := []models.PostVote{}
	err := s.m.exec.Select(ctx, &votes, `SELECT `+voteColumns+` FROM post_votes ORDER BY id`)
	return votes, err
}

func (s *postVoteService) GetUserVotes(ctx context.Context, userID string) ([]models.PostVote, error) {
	votes := []models.PostVote{}
	err := s.m.exec.Select(ctx, &votes,
		`SELECT `+voteColumns+` FROM post_votes WHERE user_id = ? ORDER BY id`, userID)
	return votes, err
}

func (s *postVoteService) GetPostVotes(ctx context.Context, postID string) ([]models.PostVote, error) {
	votes := []models.PostVote{}
	err := s.m.exec.Select(ctx, &votes,
		`SELECT `+voteColumns+` FROM post_votes WHERE post_id = ? ORDER BY id`, postID)
	return votes, err
}

func (s *postVoteService) GetPostVoteType(ctx context.Context, userID, postID string) (string, bool, error) {
	var voteType string
	found, err := s.m.exec.Get(ctx, &voteType,
		`SELECT vote_type FROM post_votes WHERE user_id = ? AND post_id = ?`, userID, postID)
	return voteType, found, err
}

func (s *postVoteService) GetNumPostVotes(ctx context.Context, postID, voteType string) (int, error) {
	var count int
	_, err := s.m.exec.Get(ctx, &count,
		`SELECT COUNT(*) FROM post_votes WHERE post_id = ? AND vote_type = ?`, postID, voteType)
	return count, err
}

func (s *postVoteService) DeleteUserVotes(ctx context.Context, userID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM post_votes WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete user votes: %w", err)
	}
	return nil
}

func (s *postVoteService) DeletePostVotes(ctx context.Context, postID string) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM post_votes WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("failed to delete post votes: %w", err)
	}
	return nil
}
