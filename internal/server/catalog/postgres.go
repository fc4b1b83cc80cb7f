package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/isaiahsam/STDISCM-P3/internal/dbx"
	"github.com/isaiahsam/STDISCM-P3/internal/server/migrations"
)

// PostgresRepository persists the upload catalog in PostgreSQL over a
// dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// OpenPostgres opens the DSN via the pgx stdlib driver and runs the embedded
// goose migrations.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// gooseUpContext is a seam for testing runMigrations.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func (r *PostgresRepository) Record(ctx context.Context, u *Upload) error {
	query := `
		INSERT INTO uploads (id, filename, location, fingerprint, size_bytes, persisted_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	res, err := r.db.ExecContext(ctx, query,
		u.ID, u.Filename, u.Location, u.Fingerprint, u.SizeBytes, u.PersistedAt)
	if err != nil {
		return fmt.Errorf("insert upload: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*Upload, error) {
	query := `
		SELECT id, filename, location, fingerprint, size_bytes, persisted_at
		FROM uploads
		ORDER BY persisted_at DESC
		LIMIT $1;
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select uploads: %w", err)
	}
	defer rows.Close()

	var result []*Upload
	for rows.Next() {
		var item Upload
		if err := rows.Scan(&item.ID, &item.Filename, &item.Location,
			&item.Fingerprint, &item.SizeBytes, &item.PersistedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
