// Schema migrations, run by goose (github.com/pressly/goose/v3).
//
// The SQL files under internal/db/migrations/ are compiled in with
// //go:embed and applied on server startup. goose keeps its bookkeeping in
// the goose_db_version table.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"github.com/reliefline/fundledger/internal/dbpool"
)

// RunMigrations brings the schema up to date from the goose-annotated SQL
// files in fsys.
func RunMigrations(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, fsys fs.FS) error {
	// goose needs a *sql.DB, so open one over the pool's connection string
	// with the pgx stdlib driver. It closes once migrations finish.
	sqlDB, err := sql.Open("pgx", pool.ConnString())
	if err != nil {
		return fmt.Errorf("opening database handle for migrations: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("initializing goose provider: %w", err)
	}

	applied, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if len(applied) == 0 {
		log.Debug("schema already up to date")
		return nil
	}

	for _, m := range applied {
		if m.Error != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Source.Version, m.Source.Path, m.Error)
		}

		log.WithFields(logrus.Fields{
			"version":  m.Source.Version,
			"file":     m.Source.Path,
			"duration": m.Duration,
		}).Info("migration applied")
	}

	return nil
}
