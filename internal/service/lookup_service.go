package service

import (
	"context"
	"fmt"

	"cglreviews/internal/models"
)

// OtherID is the id of the catch-all "Other" row in the seeded lookup tables.
const OtherID = 1000

var (
	defaultStatuses = []string{"Student", "Alum", "Faculty/Staff", "Parent"}

	defaultLocationTypes = []string{
		"Hotel",
		"Hostel",
		"B&B/Inn",
		"Cafe/Bakery",
		"Bar/Pub",
		"Restaurant",
		"Museum",
		"Arts venue",
		"Sports venue",
		"Cultural attraction",
		"Historical attraction",
	}
)

// lookup reads one of the static id/name tables.
type lookup struct {
	m     *Manager
	table Table
}

func (l lookup) list(ctx context.Context) ([]models.Lookup, error) {
	rows := []models.Lookup{}
	err := l.m.exec.Select(ctx, &rows, "SELECT id, name FROM "+string(l.table)+" ORDER BY id")
	return rows, err
}

func (l lookup) name(ctx context.Context, id int) (string, error) {
	var name string
	_, err := l.m.exec.Get(ctx, &name, "SELECT name FROM "+string(l.table)+" WHERE id = ?", id)
	return name, err
}

func (l lookup) valid(ctx context.Context, id int) (bool, error) {
	var found int
	return l.m.exec.Get(ctx, &found, "SELECT id FROM "+string(l.table)+" WHERE id = ?", id)
}

// seed fills an empty table with names numbered from 1, plus the Other row when withOther is set.
func (l lookup) seed(ctx context.Context, names []string, withOther bool) error {
	var count int
	if _, err := l.m.exec.Get(ctx, &count, "SELECT COUNT(*) FROM "+string(l.table)); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for i, name := range names {
		if _, err := l.m.exec.Exec(ctx, "INSERT INTO "+string(l.table)+" (id, name) VALUES (?, ?)", i+1, name); err != nil {
			return fmt.Errorf("failed to seed %s: %w", l.table, err)
		}
	}
	if withOther {
		if _, err := l.m.exec.Exec(ctx, "INSERT INTO "+string(l.table)+" (id, name) VALUES (?, ?)", OtherID, "Other"); err != nil {
			return fmt.Errorf("failed to seed %s: %w", l.table, err)
		}
	}
	l.m.logger.Info("lookup table seeded", "table", l.table, "rows", len(names))
	return nil
}

type LocationTypeService interface {
	GetLocationTypes(ctx context.Context) ([]models.Lookup, error)
	GetLocationTypeName(ctx context.Context, id int) (string, error)
	ValidLocationType(ctx context.Context, id int) (bool, error)
}

type locationTypeService struct {
	lookup
}

func NewLocationTypeService(m *Manager) LocationTypeService {
	return &locationTypeService{lookup{m: m, table: TableLocationTypes}}
}

func (s *locationTypeService) GetLocationTypes(ctx context.Context) ([]models.Lookup, error) {
	return s.list(ctx)
}

func (s *locationTypeService) GetLocationTypeName(ctx context.Context, id int) (string, error) {
	return s.name(ctx, id)
}

func (s *locationTypeService) ValidLocationType(ctx context.Context, id int) (bool, error) {
	return s.valid(ctx, id)
}

type UserStatusService interface {
	GetStatuses(ctx context.Context) ([]models.Lookup, error)
	GetStatusName(ctx context.Context, id int) (string, error)
	ValidStatus(ctx context.Context, id int) (bool, error)
}

type userStatusService struct {
	lookup
}

func NewUserStatusService(m *Manager) UserStatusService {
	return &userStatusService{lookup{m: m, table: TableUserStatuses}}
}

func (s *userStatusService) GetStatuses(ctx context.Context) ([]models.Lookup, error) {
	return s.list(ctx)
}

func (s *userStatusService) GetStatusName(ctx context.Context, id int) (string, error) {
	return s.name(ctx, id)
}

func (s *userStatusService) ValidStatus(ctx context.Context, id int) (bool, error) {
	return s.valid(ctx, id)
}

type ProgramService interface {
	GetPrograms(ctx context.Context) ([]models.Lookup, error)
	GetProgramName(ctx context.Context, id int) (string, error)
	ValidProgram(ctx context.Context, id int) (bool, error)
	CreateProgram(ctx context.Context, name string) error
	DeleteProgram(ctx context.Context, id int) error
}

type programService struct {
	lookup
}

func NewProgramService(m *Manager) ProgramService {
	return &programService{lookup{m: m, table: TablePrograms}}
}

func (s *programService) GetPrograms(ctx context.Context) ([]models.Lookup, error) {
	return s.list(ctx)
}

func (s *programService) GetProgramName(ctx context.Context, id int) (string, error) {
	return s.name(ctx, id)
}

func (s *programService) ValidProgram(ctx context.Context, id int) (bool, error) {
	return s.valid(ctx, id)
}

// CreateProgram lets the database number the program.
func (s *programService) CreateProgram(ctx context.Context, name string) error {
	if _, err := s.m.exec.Exec(ctx, `INSERT INTO programs (name) VALUES (?)`, name); err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}
	return nil
}

// DeleteProgram fails while posts still reference the program.
func (s *programService) DeleteProgram(ctx context.Context, id int) error {
	if _, err := s.m.exec.Exec(ctx, `DELETE FROM programs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}
	return nil
}

// Seed populates the lookup tables that are still empty and writes any
// missing meta defaults. Programs are created in the given order.
func (m *Manager) Seed(ctx context.Context, programs []string) error {
	return m.WithTx(ctx, func(tx *Manager) error {
		if err := (lookup{m: tx, table: TableUserStatuses}).seed(ctx, defaultStatuses, true); err != nil {
			return err
		}
		if err := (lookup{m: tx, table: TableLocationTypes}).seed(ctx, defaultLocationTypes, true); err != nil {
			return err
		}

		existing, err := tx.Program.GetPrograms(ctx)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			for _, name := range programs {
				if err := tx.Program.CreateProgram(ctx, name); err != nil {
					return err
				}
			}
		}

		return tx.Meta.Seed(ctx)
	})
}
