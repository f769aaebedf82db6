package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const (
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
)

type Options struct {
	Driver         string
	BadgerPath     string
	BadgerInMemory bool
	PostgresURL    string
	Unique         []Unique
}

// Open connects the configured backend. The caller owns the returned Store and must Close it.
func Open(ctx context.Context, opts Options, log *slog.Logger) (Store, error) {
	switch opts.Driver {
	case DriverBadger, "":
		db, err := badger.Open(BadgerOptions(ctx, opts, log))
		if err != nil {
			return nil, fmt.Errorf("database opening failed: %w", err)
		}
		log.Info("BadgerDB opened", "path", opts.BadgerPath, "in_memory", opts.BadgerInMemory)
		return NewBadgerStore(db, log, opts.Unique...), nil
	case DriverPostgres:
		return ConnectPostgres(ctx, opts.PostgresURL, log, opts.Unique...)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// BadgerOptions chooses Badger's own log level from the application logger.
func BadgerOptions(ctx context.Context, opts Options, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(opts.BadgerPath)
	if opts.BadgerInMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	}
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}
