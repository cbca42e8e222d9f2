package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"
)

var ErrUnsupportedURI = errors.New("unsupported database URI")

// Open connects to the database named by uri and returns a Bun DB instance.
// postgres:// and postgresql:// URIs use lib/pq; sqlite:// and file: URIs use
// the pure-Go SQLite driver.
func Open(ctx context.Context, uri string) (*bun.DB, error) {
	switch {
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		sqlDB, err := sql.Open("postgres", uri)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)

		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil

	case strings.HasPrefix(uri, "sqlite://"), strings.HasPrefix(uri, "file:"):
		sqlDB, err := sql.Open("sqlite", strings.TrimPrefix(uri, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// SQLite serialises writers; one connection also keeps :memory: databases shared.
		sqlDB.SetMaxOpenConns(1)

		if err := sqlDB.PingContext(ctx); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedURI, redact(uri))
}

// CreateSchema creates the users and articles tables when they do not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Article)(nil)).
		IfNotExists().
		ForeignKey(`("author_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create articles table: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgerrcode.UniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// redact drops everything before the host so credentials are not echoed in errors.
func redact(uri string) string {
	if at := strings.LastIndex(uri, "@"); at != -1 {
		return "***" + uri[at:]
	}
	return uri
}
