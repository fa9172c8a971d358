package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/pressly/goose/v3"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
	dialect     = "postgres"
)

//go:embed migrations/*.sql
var embedded embed.FS

// withGoose points goose at fsys (nil means the working tree) for the
// duration of fn. goose keeps this as package state, so callers must not
// run migrations concurrently.
func withGoose(db *sql.DB, fsys fs.FS, fn func() error) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	goose.SetBaseFS(fsys)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return fn()
}

// Run executes a goose command against the migrations in dir on disk.
// goose prints status output to stdout.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return withGoose(db, nil, func() error {
		return wrapCommand(command, goose.RunContext(ctx, command, db, dir, args...))
	})
}

// RunEmbedded executes a goose command against the migrations compiled into
// the binary.
func RunEmbedded(ctx context.Context, db *sql.DB, command string, args ...string) error {
	return withGoose(db, embedded, func() error {
		return wrapCommand(command, goose.RunContext(ctx, command, db, embeddedDir, args...))
	})
}

// MigrateToVersion moves the schema up or down until it sits at
// targetVersion (YYYYMMDDHHMMSS).
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	if targetVersion == "" {
		return fmt.Errorf("targetVersion is required")
	}
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}

	return withGoose(db, nil, func() error {
		current, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			return fmt.Errorf("get db version: %w", err)
		}
		switch {
		case current < target:
			return wrapCommand("up-to", goose.UpToContext(ctx, db, dir, target))
		case current > target:
			return wrapCommand("down-to", goose.DownToContext(ctx, db, dir, target))
		default:
			return nil
		}
	})
}

func wrapCommand(command string, err error) error {
	if err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
