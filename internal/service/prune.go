package service

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// expiry describes a table whose rows are deleted by deferred prune jobs.
// A row is due once its stamp column plus the meta age has passed; without
// an age key the stamp itself is the deadline.
type expiry struct {
	job    string
	table  Table
	stamp  string
	ageKey string
	expire func(ctx context.Context, m *Manager, id string) error
}

var (
	sessionExpiry = expiry{
		job:    "prune-session",
		table:  TableSessions,
		stamp:  "update_time",
		ageKey: MetaSessionAge,
		expire: func(ctx context.Context, m *Manager, id string) error {
			return m.Session.DeleteSession(ctx, id)
		},
	}
	verifyExpiry = expiry{
		job:    "prune-verify",
		table:  TableVerify,
		stamp:  "create_time",
		ageKey: MetaVerifyAge,
		expire: func(ctx context.Context, m *Manager, id string) error {
			return m.Verify.DeleteUnverifiedUser(ctx, id)
		},
	}
	passwordResetExpiry = expiry{
		job:    "prune-password-reset",
		table:  TablePasswordResets,
		stamp:  "create_time",
		ageKey: MetaPasswordResetAge,
		expire: func(ctx context.Context, m *Manager, id string) error {
			return m.PasswordReset.DeletePasswordReset(ctx, id)
		},
	}
	emailChangeExpiry = expiry{
		job:    "prune-email-change",
		table:  TableEmailChanges,
		stamp:  "create_time",
		ageKey: MetaEmailChangeAge,
		expire: func(ctx context.Context, m *Manager, id string) error {
			return m.EmailChange.DeleteEmailChange(ctx, id)
		},
	}
	suspensionExpiry = expiry{
		job:   "prune-suspension",
		table: TableSuspended,
		stamp: "suspended_until",
		expire: func(ctx context.Context, m *Manager, id string) error {
			return m.Suspended.DeleteSuspension(ctx, id)
		},
	}
)

func (m *Manager) age(ctx context.Context, e expiry) (int64, error) {
	if e.ageKey == "" {
		return 0, nil
	}
	seconds, err := m.Meta.GetInt(ctx, e.ageKey)
	return int64(seconds), err
}

// armPrune schedules the prune of id for when the row stamped at stamp is due.
func (m *Manager) armPrune(ctx context.Context, e expiry, id string, stamp int64) error {
	age, err := m.age(ctx, e)
	if err != nil {
		return err
	}
	m.arm(e, id, stamp+age)
	return nil
}

func (m *Manager) arm(e expiry, id string, deadline int64) {
	m.schedulePrune(e.job+":"+id, m.secondsUntil(deadline), func(ctx context.Context, root *Manager) error {
		return root.prune(ctx, e, id)
	})
}

// prune expires id if it is due and re-arms it otherwise. A row that is
// already gone is a no-op, so jobs for consumed records fire harmlessly.
func (m *Manager) prune(ctx context.Context, e expiry, id string) error {
	var stamp int64
	found, err := m.exec.Get(ctx, &stamp, "SELECT "+e.stamp+" FROM "+string(e.table)+" WHERE id = ?", id)
	if err != nil || !found {
		return err
	}

	age, err := m.age(ctx, e)
	if err != nil {
		return err
	}
	if deadline := stamp + age; m.now() < deadline {
		m.arm(e, id, deadline)
		return nil
	}

	if err := e.expire(ctx, m, id); err != nil {
		return err
	}
	m.logger.Info("record pruned", "table", e.table, "id", id)
	return nil
}

// pruneAll arms a prune for every row of the table. Rows already past their
// deadline are pruned right away.
func (m *Manager) pruneAll(ctx context.Context, e expiry) error {
	rows := []struct {
		ID    string `db:"id"`
		Stamp int64  `db:"stamp"`
	}{}
	if err := m.exec.Select(ctx, &rows, "SELECT id, "+e.stamp+" AS stamp FROM "+string(e.table)); err != nil {
		return err
	}

	age, err := m.age(ctx, e)
	if err != nil {
		return err
	}
	for _, row := range rows {
		m.arm(e, row.ID, row.Stamp+age)
	}
	m.logger.Debug("prunes armed", "table", e.table, "count", len(rows))
	return nil
}

// PruneAll re-arms the prune of every time-bound record. It is meant to run
// once at startup, since scheduled jobs do not survive a restart.
func (m *Manager) PruneAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, prune := range []func(context.Context) error{
		m.Session.PruneSessions,
		m.Verify.PruneVerifyRecords,
		m.PasswordReset.PrunePasswordResets,
		m.EmailChange.PruneEmailChanges,
		m.Suspended.PruneSuspensions,
	} {
		prune := prune
		g.Go(func() error { return prune(ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to schedule prunes: %w", err)
	}
	return nil
}
