package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/eventnav/internal/config"
	"github.com/roach88/eventnav/internal/eventstore"
	"github.com/roach88/eventnav/internal/ir"
	"github.com/roach88/eventnav/internal/pgstore"
	"github.com/roach88/eventnav/internal/querysql"
	"github.com/roach88/eventnav/internal/store"
)

// eventStore is what the commands need from a backing store.
type eventStore interface {
	eventstore.Querier
	WriteEvents(ctx context.Context, events ...ir.Event) error
	ReadEvent(ctx context.Context, projectID int64, eventID string) (ir.Event, error)
	Close() error
}

// openStore opens the store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (eventStore, error) {
	var (
		s   eventStore
		err error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		s, err = store.Open(cfg.DSN, store.WithLogger(logger))
	case config.DriverPostgres:
		s, err = pgstore.Open(ctx, cfg.DSN, pgstore.WithLogger(logger))
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown driver %q", cfg.Driver))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err).WithErrCode(ErrCodeStore)
	}
	return s, nil
}

// dialectFor returns the SQL dialect a driver compiles to.
func dialectFor(driver string) (querysql.Dialect, error) {
	switch driver {
	case config.DriverSQLite:
		return querysql.SQLite{}, nil
	case config.DriverPostgres:
		return querysql.Postgres{}, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", driver)
	}
}

// newStorage wraps s in an EventStorage configured from cfg.
func newStorage(s eventstore.Querier, cfg config.Config, logger *slog.Logger) *eventstore.EventStorage {
	return eventstore.New(s,
		eventstore.WithRetentionDays(cfg.RetentionDays),
		eventstore.WithReferrer(cfg.Referrer),
		eventstore.WithLogger(logger),
	)
}

// loadReference reads the reference event. A reference that does not exist
// yields nil, which lookups report as "no neighbour".
func loadReference(ctx context.Context, s eventStore, projectID int64, eventID string) (*ir.Event, error) {
	e, err := s.ReadEvent(ctx, projectID, eventID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, pgstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read reference event", err).WithErrCode(ErrCodeStore)
	}
	return &e, nil
}
