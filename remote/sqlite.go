package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteTree stores the remote tree in a single SQLite table, one JSON
// document per location/category/id.
type SQLiteTree struct {
	db *sql.DB
}

// NewSQLiteTree opens (or creates) the tree at dbPath.
func NewSQLiteTree(dbPath string) (*SQLiteTree, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tree := &SQLiteTree{db: db}
	if err := tree.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return tree, nil
}

// initSchema creates the records table if it doesn't exist.
func (s *SQLiteTree) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		location TEXT NOT NULL,
		category TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (location, category, id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteTree) Close() error {
	return s.db.Close()
}

// ReadAll returns every record under location/category ordered by id.
func (s *SQLiteTree) ReadAll(ctx context.Context, location, category string) ([]Entry, error) {
	query := `
		SELECT id, data FROM records
		WHERE location = ? AND category = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, location, category)
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
func (s *SQLiteTree) Read(ctx context.Context, path Path) (Record, bool, error) {
	if err := path.Validate(); err != nil {
		return nil, false, err
	}

	rec, err := s.read(ctx, s.db, path)
	if err != nil {
		return nil, false, err
	}
	return rec, rec != nil, nil
}

// Update merges fields into the stored document inside one transaction.
func (s *SQLiteTree) Update(ctx context.Context, path Path, fields Record) error {
	if err := path.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.read(ctx, tx, path)
	if err != nil {
		return err
	}

	data, err := json.Marshal(merge(existing, fields))
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	query := `
		INSERT OR REPLACE INTO records (location, category, id, data, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		path.Location, path.Category, path.ID,
		string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

// Remove deletes the record at path.
func (s *SQLiteTree) Remove(ctx context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM records WHERE location = ? AND category = ? AND id = ?",
		path.Location, path.Category, path.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteTree) read(ctx context.Context, q queryer, path Path) (Record, error) {
	var data string
	err := q.QueryRowContext(ctx,
		"SELECT data FROM records WHERE location = ? AND category = ? AND id = ?",
		path.Location, path.Category, path.ID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return rec, nil
}

func decodeRecord(data string) (Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
