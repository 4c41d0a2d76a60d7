// Package inventory is the write path for paint stock. It hands out item
// ids, owns every quantity change and records each change in the audit log.
//
// The acting user is taken from the context (model.WithActor). Admin-only
// operations fail with ErrNotAuthorized for anyone else.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/paintstock/internal/metrics"
	"github.com/erazemk/paintstock/internal/model"
	"github.com/erazemk/paintstock/internal/store"
)

// Service implements inventory operations on top of the store.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service backed by db.
func NewService(db *sql.DB, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB returns the underlying database handle for read-only consumers.
func (s *Service) DB() *sql.DB {
	return s.db
}

func requireAdmin(ctx context.Context, what string) (model.Actor, error) {
	actor := model.ActorFromContext(ctx)
	if !actor.IsAdmin() {
		return actor, errorf(KindNotAuthorized, "only an admin can %s", what)
	}
	return actor, nil
}

// inTx runs fn inside a transaction. The DSN makes every transaction take
// the write lock up front, so reads inside fn see no concurrent writers.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// record appends an audit entry after the mutation it describes has been
// committed. A failure here is logged and counted but never returned: the
// mutation stands even if its entry is lost.
//
// The entry is stamped here rather than when the mutation started, so
// timestamps follow append order even when writers waited on the lock.
func (s *Service) record(ctx context.Context, e *model.Entry) {
	e.Timestamp = s.now()
	if _, err := store.AppendAudit(context.WithoutCancel(ctx), s.db, e); err != nil {
		metrics.RecordAuditFailure(string(e.Action))
		s.logger.Error("audit entry lost",
			"action", e.Action, "item", e.ItemID, "user", e.UserName, "error", err)
	}
}
