package service

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cglreviews/internal/database"
	"cglreviews/internal/logging"
	"cglreviews/internal/models"
)

func TestParseSortField(t *testing.T) {
	for name, want := range map[string]SortField{
		"timestamp":    SortByTimestamp,
		"program":      SortByProgram,
		"locationType": SortByLocationType,
		"userStatus":   SortByUserStatus,
		"rating":       SortByRating,
		"city":         SortByCity,
		"country":      SortByCountry,
	} {
		got, err := ParseSortField(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)

		column, err := got.column()
		require.NoError(t, err)
		assert.NotEmpty(t, column)
	}

	_, err := ParseSortField("posts.id; DROP TABLE posts")
	assert.ErrorIs(t, err, ErrUnknownSortField)

	_, err = SortField(99).column()
	assert.ErrorIs(t, err, ErrUnknownSortField)
}

func TestQueryService_AdvancedQuerySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := logging.Discard()
	m := NewManager(database.New(sqlx.NewDb(db, "postgres"), logger), WithLogger(logger))
	t.Cleanup(m.Scheduler().Stop)

	mock.ExpectQuery(`(?s)WHERE posts\.approved = \$1 AND posts\.program_id IN \(\$2, \$3\) AND users\.status_id IN \(\$4\) ORDER BY programs\.name ASC, posts\.id`).
		WithArgs(true, int64(1), int64(2), int64(OtherID)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	posts, err := m.Query.AdvancedQuery(context.Background(), QueryParams{
		ProgramIDs: []int{1, 2},
		StatusIDs:  []int{OtherID},
	}, SortByProgram, true)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	student := f.user(t, "student@example.com", false)
	alum := f.user(t, "alum@example.com", false)
	require.NoError(t, f.m.User.SetStatus(ctx, alum, 2))

	hotel := f.post(t, student, func(r *CreatePostRequest) {
		r.City = "Nottingham"
		r.Rating = models.RatingInput{General: 5}
	})
	f.advance(time.Minute)
	museum := f.post(t, alum, func(r *CreatePostRequest) {
		r.Content = "Wonderful exhibits"
		r.Location = "National Museum"
		r.City = "Kuala Lumpur"
		r.Country = "Malaysia"
		r.LocationTypeID = 7
		r.ProgramID = 3
		r.Rating = models.RatingInput{General: 2}
	})
	f.advance(time.Minute)
	hidden := f.post(t, student, func(r *CreatePostRequest) { r.City = "Nottingham" })

	require.NoError(t, f.m.Post.SetApproved(ctx, hotel, true))
	require.NoError(t, f.m.Post.SetApproved(ctx, museum, true))

	ids := func(posts []models.PostSummary) []string {
		out := make([]string, 0, len(posts))
		for _, p := range posts {
			out = append(out, p.ID)
		}
		return out
	}

	t.Run("text search ignores case and unapproved posts", func(t *testing.T) {
		posts, err := f.m.Query.Query(ctx, "  NOTTINGHAM ")
		require.NoError(t, err)
		assert.Equal(t, []string{hotel}, ids(posts))
		assert.NotContains(t, ids(posts), hidden)

		// program names match too
		posts, err = f.m.Query.Query(ctx, "malaysia")
		require.NoError(t, err)
		assert.Equal(t, []string{museum}, ids(posts))
	})

	t.Run("empty text lists everything newest first", func(t *testing.T) {
		posts, err := f.m.Query.Query(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{museum, hotel}, ids(posts))

		assert.Equal(t, "Museum", posts[0].LocationType)
		assert.Equal(t, "Malaysia", posts[0].Program)
		assert.Equal(t, "Alum", posts[0].UserStatus)
		assert.Equal(t, 2, posts[0].Rating)
	})

	t.Run("filters", func(t *testing.T) {
		posts, err := f.m.Query.AdvancedQuery(ctx, QueryParams{Ratings: []int{4, 5}}, SortByTimestamp, false)
		require.NoError(t, err)
		assert.Equal(t, []string{hotel}, ids(posts))

		posts, err = f.m.Query.AdvancedQuery(ctx, QueryParams{StatusIDs: []int{2}}, SortByTimestamp, false)
		require.NoError(t, err)
		assert.Equal(t, []string{museum}, ids(posts))

		posts, err = f.m.Query.AdvancedQuery(ctx, QueryParams{
			Search:          "museum",
			LocationTypeIDs: []int{1},
		}, SortByTimestamp, false)
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("sorting", func(t *testing.T) {
		posts, err := f.m.Query.AdvancedQuery(ctx, QueryParams{}, SortByRating, true)
		require.NoError(t, err)
		assert.Equal(t, []string{museum, hotel}, ids(posts))

		posts, err = f.m.Query.AdvancedQuery(ctx, QueryParams{}, SortByCity, false)
		require.NoError(t, err)
		assert.Equal(t, []string{hotel, museum}, ids(posts))

		_, err = f.m.Query.AdvancedQuery(ctx, QueryParams{}, SortField(42), true)
		assert.ErrorIs(t, err, ErrUnknownSortField)
	})
}
