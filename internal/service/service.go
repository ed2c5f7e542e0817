package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cglreviews/internal/database"
	"cglreviews/internal/scheduler"
	"cglreviews/internal/security"
	"cglreviews/internal/storage"
)

var (
	ErrIDSpaceExhausted = errors.New("no free id found")
	ErrInvalidRating    = errors.New("invalid rating")
	ErrUnknownTable     = errors.New("unknown table")
	ErrUnknownSortField = errors.New("unknown sort field")
)

const (
	IDLength    = 4
	TokenLength = 16

	maxIDAttempts = 100
)

// Manager is the execution context shared by every entity service. It owns the
// SQL executor and exposes each service so they can call one another.
type Manager struct {
	db        *database.DB
	exec      *database.Executor
	root      *Manager
	hooks     *txHooks
	logger    *slog.Logger
	hasher    *security.Hasher
	scheduler *scheduler.Scheduler
	blobs     storage.BlobStore
	now       func() int64

	User             UserService
	Post             PostService
	Rating           RatingService
	Image            ImageService
	PostImage        PostImageService
	PostVote         PostVoteService
	AdminFavorites   AdminFavoritesService
	Session          SessionService
	Verify           VerifyService
	PasswordReset    PasswordResetService
	EmailChange      EmailChangeService
	Suspended        SuspendedService
	UserStatusChange UserStatusChangeService
	LocationType     LocationTypeService
	Program          ProgramService
	UserStatus       UserStatusService
	Meta             MetaService
	Query            QueryService
	Admin            AdminService
}

type Option func(*Manager)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

func WithHasher(hasher *security.Hasher) Option {
	return func(m *Manager) { m.hasher = hasher }
}

func WithScheduler(s *scheduler.Scheduler) Option {
	return func(m *Manager) { m.scheduler = s }
}

// WithBlobStore keeps image bytes in an object store instead of the images table.
func WithBlobStore(blobs storage.BlobStore) Option {
	return func(m *Manager) { m.blobs = blobs }
}

// WithClock replaces the epoch-seconds clock.
func WithClock(now func() int64) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(db *database.DB, opts ...Option) *Manager {
	m := &Manager{
		db:     db,
		logger: slog.Default(),
		now:    func() int64 { return time.Now().Unix() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.hasher == nil {
		m.hasher = security.NewHasher(0)
	}
	if m.scheduler == nil {
		m.scheduler = scheduler.New(scheduler.WithLogger(m.logger))
	}
	m.exec = database.NewExecutor(db.DB, m.logger)
	m.root = m
	m.bind()
	return m
}

func (m *Manager) bind() {
	m.User = NewUserService(m)
	m.Post = NewPostService(m)
	m.Rating = NewRatingService(m)
	m.Image = NewImageService(m)
	m.PostImage = NewPostImageService(m)
	m.PostVote = NewPostVoteService(m)
	m.AdminFavorites = NewAdminFavoritesService(m)
	m.Session = NewSessionService(m)
	m.Verify = NewVerifyService(m)
	m.PasswordReset = NewPasswordResetService(m)
	m.EmailChange = NewEmailChangeService(m)
	m.Suspended = NewSuspendedService(m)
	m.UserStatusChange = NewUserStatusChangeService(m)
	m.LocationType = NewLocationTypeService(m)
	m.Program = NewProgramService(m)
	m.UserStatus = NewUserStatusService(m)
	m.Meta = NewMetaService(m)
	m.Query = NewQueryService(m)
	m.Admin = NewAdminService(m)
}

// Execute runs an arbitrary statement and returns the rows as column maps.
func (m *Manager) Execute(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	return m.exec.Query(ctx, query, args...)
}

// Now returns the current time in epoch seconds.
func (m *Manager) Now() int64 {
	return m.now()
}

func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

func (m *Manager) Scheduler() *scheduler.Scheduler {
	return m.scheduler
}

func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.root.db.HealthCheck(ctx)
}

type txHooks struct {
	commit   []func()
	rollback []func()
}

// WithTx runs fn against a manager whose services share one transaction.
// Nested calls join the transaction already open. Work registered with
// afterCommit runs only once the outermost transaction commits, and work
// registered with onRollback only once it rolls back.
func (m *Manager) WithTx(ctx context.Context, fn func(tx *Manager) error) error {
	if m.hooks != nil {
		return fn(m)
	}

	var hooks txHooks
	err := m.root.db.WithTx(ctx, func(exec *database.Executor) error {
		tx := &Manager{
			db:        m.root.db,
			exec:      exec,
			root:      m.root,
			hooks:     &hooks,
			logger:    m.logger,
			hasher:    m.hasher,
			scheduler: m.scheduler,
			blobs:     m.blobs,
			now:       m.now,
		}
		tx.bind()
		return fn(tx)
	})
	if err != nil {
		for _, hook := range hooks.rollback {
			hook()
		}
		return err
	}

	for _, hook := range hooks.commit {
		hook()
	}
	return nil
}

func (m *Manager) afterCommit(fn func()) {
	if m.hooks != nil {
		m.hooks.commit = append(m.hooks.commit, fn)
		return
	}
	fn()
}

// onRollback undoes side effects outside the database. Outside a transaction
// there is nothing to roll back and fn is dropped.
func (m *Manager) onRollback(fn func()) {
	if m.hooks != nil {
		m.hooks.rollback = append(m.hooks.rollback, fn)
	}
}

// NewUniqueID samples random ids until one is unused in table. The check and
// the later insert are not atomic, so two concurrent callers may pick the same
// id; the primary key rejects the second insert.
func (m *Manager) NewUniqueID(ctx context.Context, t Table, length int) (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := security.RandomID(length)
		if err != nil {
			return "", fmt.Errorf("failed to generate id: %w", err)
		}

		var found string
		exists, err := m.exec.Get(ctx, &found, "SELECT id FROM "+string(t)+" WHERE id = ?", id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return "", fmt.Errorf("%s: %w", t, ErrIDSpaceExhausted)
}

// schedulePrune registers a deferred prune that runs against the root manager
// once the current transaction, if any, has committed.
func (m *Manager) schedulePrune(name string, delay time.Duration, fn func(ctx context.Context, m *Manager) error) {
	root := m.root
	m.afterCommit(func() {
		root.scheduler.After(delay, name, func(ctx context.Context) {
			if err := fn(ctx, root); err != nil {
				root.logger.Error("prune failed", "job", name, "error", err)
			}
		})
	})
}

// secondsUntil converts an epoch-seconds deadline into a delay from now.
func (m *Manager) secondsUntil(deadline int64) time.Duration {
	return time.Duration(deadline-m.now()) * time.Second
}
