package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cglreviews/internal/database"
	"cglreviews/internal/logging"
	"cglreviews/internal/models"
	"cglreviews/internal/scheduler"
	"cglreviews/internal/storage"
)

const testEpoch = 1_700_000_000

var testDBSeq atomic.Int64

type fixture struct {
	m     *Manager
	clock *atomic.Int64
	blobs *storage.MemoryStore
}

// newFixture opens a seeded in-memory database behind a manager with a
// controllable clock. Hashing runs at the cheapest bcrypt cost.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := logging.Discard()

	db, err := database.OpenMemory(ctx, fmt.Sprintf("service_test_%d", testDBSeq.Add(1)), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.CloseDB() })

	sched := scheduler.New(scheduler.WithLogger(logger))
	t.Cleanup(sched.Stop)

	clock := &atomic.Int64{}
	clock.Store(testEpoch)

	opts = append([]Option{
		WithLogger(logger),
		WithScheduler(sched),
		WithClock(clock.Load),
	}, opts...)
	m := NewManager(db, opts...)

	require.NoError(t, m.Seed(ctx, []string{"Nottingham", "Ningbo", "Malaysia"}))
	require.NoError(t, m.Meta.Set(ctx, MetaSaltRounds, "4"))

	return &fixture{m: m, clock: clock}
}

func newBlobFixture(t *testing.T) *fixture {
	t.Helper()
	blobs := storage.NewMemoryStore()
	f := newFixture(t, WithBlobStore(blobs))
	f.blobs = blobs
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock.Add(int64(d / time.Second))
}

// user creates an account. Accounts are verified and approved unless pending is set.
func (f *fixture) user(t *testing.T, email string, pending bool) string {
	t.Helper()
	ctx := context.Background()

	userID, err := f.m.User.CreateUser(ctx, CreateUserRequest{
		Firstname: "Ada",
		Lastname:  "Lovelace",
		Email:     email,
		Password:  "correct horse",
		StatusID:  1,
	})
	require.NoError(t, err)

	if !pending {
		require.NoError(t, f.m.User.SetVerified(ctx, userID, true))
		require.NoError(t, f.m.User.SetApproved(ctx, userID, true))
	}
	return userID
}

func (f *fixture) post(t *testing.T, userID string, edit func(*CreatePostRequest)) string {
	t.Helper()
	req := CreatePostRequest{
		UserID:         userID,
		Content:        "Great place to stay near campus",
		Location:       "Jubilee Hotel",
		City:           "Nottingham",
		Country:        "United Kingdom",
		LocationTypeID: 1,
		ProgramID:      1,
		Rating:         models.RatingInput{General: 4},
		ThreeWords:     "cheap clean quiet",
	}
	if edit != nil {
		edit(&req)
	}

	postID, err := f.m.Post.CreatePost(context.Background(), req)
	require.NoError(t, err)
	return postID
}

func (f *fixture) count(t *testing.T, table Table) int64 {
	t.Helper()
	n, err := f.m.Admin.GetRecords(context.Background(), table)
	require.NoError(t, err)
	return n
}

func TestNewUniqueID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id, err := f.m.NewUniqueID(ctx, TableImages, IDLength)
		require.NoError(t, err)
		require.Len(t, id, IDLength)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true

		_, err = f.m.Execute(ctx, `INSERT INTO images (id, data, register_time) VALUES (?, ?, ?)`,
			id, []byte{1}, testEpoch)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1000), f.count(t, TableImages))
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls back on error", func(t *testing.T) {
		f := newFixture(t)
		boom := errors.New("boom")

		err := f.m.WithTx(ctx, func(tx *Manager) error {
			if _, err := tx.User.CreateUser(ctx, CreateUserRequest{
				Firstname: "A", Lastname: "B", Email: "a@b.c", Password: "pw", StatusID: 1,
			}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Zero(t, f.count(t, TableUsers))
	})

	t.Run("nested calls join the outer transaction", func(t *testing.T) {
		f := newFixture(t)
		userID := f.user(t, "nested@example.com", false)

		err := f.m.WithTx(ctx, func(tx *Manager) error {
			// CreatePost opens its own transaction internally
			if _, err := tx.Post.CreatePost(ctx, CreatePostRequest{
				UserID: userID, Content: "c", Location: "l", City: "c", Country: "c",
				LocationTypeID: 1, ProgramID: 1, Rating: models.RatingInput{General: 3},
			}); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.Error(t, err)
		assert.Zero(t, f.count(t, TablePosts))
		assert.Zero(t, f.count(t, TableRatings))
	})

	t.Run("prunes are armed only after commit", func(t *testing.T) {
		f := newFixture(t)
		userID := f.user(t, "armed@example.com", false)
		before := f.m.Scheduler().Pending()

		_ = f.m.WithTx(ctx, func(tx *Manager) error {
			if _, err := tx.Session.CreateSession(ctx, userID); err != nil {
				return err
			}
			return errors.New("abort")
		})
		assert.Equal(t, before, f.m.Scheduler().Pending())

		require.NoError(t, f.m.WithTx(ctx, func(tx *Manager) error {
			_, err := tx.Session.CreateSession(ctx, userID)
			return err
		}))
		assert.Equal(t, before+1, f.m.Scheduler().Pending())
	})
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	statuses, err := f.m.UserStatus.GetStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, len(defaultStatuses)+1)
	assert.Equal(t, models.Lookup{ID: 1, Name: "Student"}, statuses[0])
	assert.Equal(t, OtherID, statuses[len(statuses)-1].ID)

	types, err := f.m.LocationType.GetLocationTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, len(defaultLocationTypes)+1)

	name, err := f.m.LocationType.GetLocationTypeName(ctx, OtherID)
	require.NoError(t, err)
	assert.Equal(t, "Other", name)

	programs, err := f.m.Program.GetPrograms(ctx)
	require.NoError(t, err)
	require.Len(t, programs, 3)
	assert.Equal(t, "Nottingham", programs[0].Name)

	// seeding again neither duplicates rows nor overrides meta values
	require.NoError(t, f.m.Seed(ctx, []string{"Elsewhere"}))
	programs, err = f.m.Program.GetPrograms(ctx)
	require.NoError(t, err)
	assert.Len(t, programs, 3)

	rounds, err := f.m.Meta.GetInt(ctx, MetaSaltRounds)
	require.NoError(t, err)
	assert.Equal(t, 4, rounds)

	valid, err := f.m.UserStatus.ValidStatus(ctx, 42)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestMeta_GetInt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	age, err := f.m.Meta.GetInt(ctx, MetaSessionAge)
	require.NoError(t, err)
	assert.Equal(t, 604800, age)

	// unusable values fall back to the default
	require.NoError(t, f.m.Meta.Set(ctx, MetaVerifyAge, "soon"))
	age, err = f.m.Meta.GetInt(ctx, MetaVerifyAge)
	require.NoError(t, err)
	assert.Equal(t, 3600, age)

	_, err = f.m.Meta.GetInt(ctx, "No such setting")
	assert.Error(t, err)
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable("posts")
	require.NoError(t, err)
	assert.Equal(t, TablePosts, table)

	_, err = ParseTable("posts; DROP TABLE users")
	assert.ErrorIs(t, err, ErrUnknownTable)
}
