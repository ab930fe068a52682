package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/persistence/file"
	"github.com/driftmail/automata/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend from the database URL
// scheme: postgres:// for PostgreSQL, anything else is treated as a file
// root path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize postgresql persistence", "error", err)
			panic(err)
		}

		return store
	default:
		return file.NewPersistence(databaseURL)
	}
}
