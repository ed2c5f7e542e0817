package service

import (
	"context"
	"fmt"
	"strings"

	"cglreviews/internal/models"
)

// SortField orders advanced query results.
type SortField int

const (
	SortByTimestamp SortField = iota
	SortByProgram
	SortByLocationType
	SortByUserStatus
	SortByRating
	SortByCity
	SortByCountry
)

var sortFieldNames = map[string]SortField{
	"timestamp":    SortByTimestamp,
	"program":      SortByProgram,
	"locationType": SortByLocationType,
	"userStatus":   SortByUserStatus,
	"rating":       SortByRating,
	"city":         SortByCity,
	"country":      SortByCountry,
}

// ParseSortField maps a request parameter onto a SortField.
func ParseSortField(name string) (SortField, error) {
	field, ok := sortFieldNames[name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownSortField)
	}
	return field, nil
}

func (f SortField) column() (string, error) {
	switch f {
	case SortByTimestamp:
		return "posts.create_time", nil
	case SortByProgram:
		return "programs.name", nil
	case SortByLocationType:
		return "location_types.name", nil
	case SortByUserStatus:
		return "user_statuses.name", nil
	case SortByRating:
		return "ratings.general", nil
	case SortByCity:
		return "posts.city", nil
	case SortByCountry:
		return "posts.country", nil
	default:
		return "", fmt.Errorf("SortField(%d): %w", int(f), ErrUnknownSortField)
	}
}

// QueryParams filters an advanced query. Empty fields do not filter.
type QueryParams struct {
	Search          string
	ProgramIDs      []int
	LocationTypeIDs []int
	StatusIDs       []int
	Ratings         []int
}

type QueryService interface {
	Query(ctx context.Context, text string) ([]models.PostSummary, error)
	AdvancedQuery(ctx context.Context, params QueryParams, sortBy SortField, ascending bool) ([]models.PostSummary, error)
}

type queryService struct {
	m *Manager
}

func NewQueryService(m *Manager) QueryService {
	return &queryService{m: m}
}

const summarySelect = `
	SELECT posts.id, posts.user_id, users.firstname, users.lastname, posts.content,
		posts.location, posts.city, posts.country, posts.three_words,
		location_types.name AS location_type, programs.name AS program,
		user_statuses.name AS user_status, ratings.general AS rating, posts.create_time
	FROM posts
	JOIN users ON posts.user_id = users.id
	JOIN location_types ON posts.location_type_id = location_types.id
	JOIN user_statuses ON users.status_id = user_statuses.id
	JOIN programs ON posts.program_id = programs.id
	JOIN ratings ON posts.rating_id = ratings.id`

const searchClause = `(
		LOWER(posts.content) LIKE LOWER(?)
		OR LOWER(posts.location) LIKE LOWER(?)
		OR LOWER(posts.city) LIKE LOWER(?)
		OR LOWER(posts.country) LIKE LOWER(?)
		OR LOWER(programs.name) LIKE LOWER(?)
	)`

func searchArgs(text string) []any {
	like := "%" + text + "%"
	return []any{like, like, like, like, like}
}

// Query matches text anywhere in the approved posts' content, place names or
// program, newest first.
func (s *queryService) Query(ctx context.Context, text string) ([]models.PostSummary, error) {
	posts := []models.PostSummary{}
	err := s.m.exec.Select(ctx, &posts,
		summarySelect+` WHERE posts.approved = ? AND `+searchClause+` ORDER BY posts.create_time DESC`,
		append([]any{true}, searchArgs(s.normalize(text))...)...)
	return posts, err
}

// AdvancedQuery filters approved posts by any combination of params. The
// status filter matches the author's current status.
func (s *queryService) AdvancedQuery(ctx context.Context, params QueryParams, sortBy SortField, ascending bool) ([]models.PostSummary, error) {
	orderBy, err := sortBy.column()
	if err != nil {
		return nil, err
	}
	direction := "DESC"
	if ascending {
		direction = "ASC"
	}

	where := []string{"posts.approved = ?"}
	args := []any{true}
	if text := s.normalize(params.Search); text != "" {
		where = append(where, searchClause)
		args = append(args, searchArgs(text)...)
	}
	for _, filter := range []struct {
		column string
		ids    []int
	}{
		{"posts.program_id", params.ProgramIDs},
		{"posts.location_type_id", params.LocationTypeIDs},
		{"users.status_id", params.StatusIDs},
		{"ratings.general", params.Ratings},
	} {
		if len(filter.ids) > 0 {
			where = append(where, filter.column+" IN (?)")
			args = append(args, filter.ids)
		}
	}

	query := summarySelect + ` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY ` + orderBy + ` ` + direction + `, posts.id`

	posts := []models.PostSummary{}
	if err := s.m.exec.Select(ctx, &posts, query, args...); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *queryService) normalize(text string) string {
	return strings.TrimSpace(text)
}
