package service

import (
	"context"
	"fmt"
	"strconv"

	"cglreviews/internal/models"
)

const (
	MetaSaltRounds       = "Salt rounds"
	MetaSessionAge       = "Session age"
	MetaVerifyAge        = "Verify age"
	MetaPasswordResetAge = "Password reset age"
	MetaEmailChangeAge   = "Email change age"
)

// metaDefaults seeds the meta table and backs any value that is missing or unusable.
var metaDefaults = map[string]int{
	MetaSaltRounds:       12,
	MetaSessionAge:       60 * 60 * 24 * 7,
	MetaVerifyAge:        60 * 60,
	MetaPasswordResetAge: 60 * 60,
	MetaEmailChangeAge:   60 * 60,
}

type MetaService interface {
	Get(ctx context.Context, name string) (string, bool, error)
	GetInt(ctx context.Context, name string) (int, error)
	Set(ctx context.Context, name, value string) error
	GetAll(ctx context.Context) ([]models.Meta, error)
	Seed(ctx context.Context) error
}

type metaService struct {
	m *Manager
}

func NewMetaService(m *Manager) MetaService {
	return &metaService{m: m}
}

func (s *metaService) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	found, err := s.m.exec.Get(ctx, &value, `SELECT value FROM meta WHERE name = ?`, name)
	return value, found, err
}

// GetInt reads a positive integer setting, falling back to the compiled default.
func (s *metaService) GetInt(ctx context.Context, name string) (int, error) {
	value, found, err := s.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	if found {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n, nil
		}
		s.m.logger.Warn("unusable meta value, using default", "name", name, "value", value)
	}
	n, ok := metaDefaults[name]
	if !ok {
		return 0, fmt.Errorf("no default for meta value %q", name)
	}
	return n, nil
}

func (s *metaService) Set(ctx context.Context, name, value string) error {
	_, err := s.m.exec.Exec(ctx, `
		INSERT INTO meta (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value`, name, value)
	if err != nil {
		return fmt.Errorf("failed to set meta value %q: %w", name, err)
	}
	return nil
}

func (s *metaService) GetAll(ctx context.Context) ([]models.Meta, error) {
	rows := []models.Meta{}
	err := s.m.exec.Select(ctx, &rows, `SELECT name, value FROM meta ORDER BY name`)
	return rows, err
}

// Seed writes every default that is not already present.
func (s *metaService) Seed(ctx context.Context) error {
	for name, value := range metaDefaults {
		_, err := s.m.exec.Exec(ctx, `
			INSERT INTO meta (name, value) VALUES (?, ?)
			ON CONFLICT (name) DO NOTHING`, name, strconv.Itoa(value))
		if err != nil {
			return fmt.Errorf("failed to seed meta value %q: %w", name, err)
		}
	}
	return nil
}

func (m *Manager) hashPassword(ctx context.Context, password string) (string, error) {
	rounds, err := m.Meta.GetInt(ctx, MetaSaltRounds)
	if err != nil {
		return "", err
	}
	return m.hasher.Hash(ctx, password, rounds)
}

// placeholderHash stands in for a missing account's hash so a failed lookup
// still pays for a bcrypt comparison.
func (m *Manager) placeholderHash(ctx context.Context) (string, error) {
	rounds, err := m.Meta.GetInt(ctx, MetaSaltRounds)
	if err != nil {
		return "", err
	}
	return m.hasher.Placeholder(ctx, rounds)
}
