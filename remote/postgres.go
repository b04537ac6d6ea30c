package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresTree stores records as jsonb documents. Partial updates use the
// jsonb concatenation operator so the merge happens inside the database.
//
// A Supabase project works as well: pass its Postgres connection string.
type PostgresTree struct {
	db *sql.DB
}

// NewPostgresTree opens dsn with the pgx driver and creates the table.
func NewPostgresTree(ctx context.Context, dsn string) (*PostgresTree, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	tree := &PostgresTree{db: db}
	if err := tree.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return tree, nil
}

func (p *PostgresTree) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		location TEXT NOT NULL,
		category TEXT NOT NULL,
		id TEXT NOT NULL,
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (location, category, id)
	);
	`
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying handle.
func (p *PostgresTree) Close() error {
	return p.db.Close()
}

// ReadAll returns every record under location/category ordered by id.
func (p *PostgresTree) ReadAll(ctx context.Context, location, category string) ([]Entry, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, data::text FROM records WHERE location = $1 AND category = $2 ORDER BY id`,
		location, category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode record %s: %w", id, err)
		}
		entries = append(entries, Entry{ID: id, Record: rec})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return entries, nil
}

// Read returns the record at path.
func (p *PostgresTree) Read(ctx context.Context, path Path) (Record, bool, error) {
	if err := path.Validate(); err != nil {
		return nil, false, err
	}

	var data string
	err := p.db.QueryRowContext(ctx,
		`SELECT data::text FROM records WHERE location = $1 AND category = $2 AND id = $3`,
		path.Location, path.Category, path.ID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query record: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, true, nil
}

// Update upserts the record, merging fields into any existing document.
func (p *PostgresTree) Update(ctx context.Context, path Path, fields Record) error {
	if err := path.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT INTO records (location, category, id, data)
		VALUES ($1, $2, $3, $4::jsonb)
		ON CONFLICT (location, category, id)
		DO UPDATE SET data = records.data || EXCLUDED.data, updated_at = now()
	`
	if _, err := p.db.ExecContext(ctx, query, path.Location, path.Category, path.ID, string(data)); err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}
	return nil
}

// Remove deletes the record at path.
func (p *PostgresTree) Remove(ctx context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	_, err := p.db.ExecContext(ctx,
		`DELETE FROM records WHERE location = $1 AND category = $2 AND id = $3`,
		path.Location, path.Category, path.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}
