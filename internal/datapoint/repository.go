package datapoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

// Repository defines datapoint persistence.
type Repository interface {
	// Get returns ErrNotFound if the datapoint does not exist.
	Get(ctx context.Context, name string) (*Datapoint, error)

	List(ctx context.Context) ([]Datapoint, error)

	// Create returns ErrExists if the name is taken.
	Create(ctx context.Context, d *Datapoint) error

	// Update returns ErrNotFound if the datapoint does not exist.
	Update(ctx context.Context, d *Datapoint) error

	// Upsert creates or replaces a datapoint and reports whether it was
	// created.
	Upsert(ctx context.Context, d *Datapoint) (bool, error)

	// Delete returns ErrNotFound if the datapoint does not exist.
	Delete(ctx context.Context, name string) error
}

// SQLiteRepository implements Repository over the datapoints table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectColumns = `
	SELECT name, token, description, group_address, unit_id, source, created_at, updated_at
	FROM datapoints`

// Get retrieves a datapoint by name.
func (r *SQLiteRepository) Get(ctx context.Context, name string) (*Datapoint, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE name = ?`, name)
	d, err := scanDatapoint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying datapoint: %w", err)
	}
	return d, nil
}

// List retrieves all datapoints ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Datapoint, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying datapoints: %w", err)
	}
	defer rows.Close()

	var out []Datapoint
	for rows.Next() {
		d, err := scanDatapoint(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning datapoint: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating datapoints: %w", err)
	}
	return out, nil
}

// Create inserts a new datapoint.
func (r *SQLiteRepository) Create(ctx context.Context, d *Datapoint) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO datapoints (
			name, token, description, group_address, unit_id, source, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Name,
		d.Token,
		nullableString(d.Description),
		nullableString(d.GroupAddress),
		int(d.UnitID),
		string(d.Source),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return mapConstraintError(err, d, "inserting datapoint")
	}
	return nil
}

// Update replaces the mutable fields of an existing datapoint.
func (r *SQLiteRepository) Update(ctx context.Context, d *Datapoint) error {
	d.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE datapoints SET
			token = ?, description = ?, group_address = ?, unit_id = ?, source = ?, updated_at = ?
		WHERE name = ?`,
		d.Token,
		nullableString(d.Description),
		nullableString(d.GroupAddress),
		int(d.UnitID),
		string(d.Source),
		d.UpdatedAt.Format(time.RFC3339),
		d.Name,
	)
	if err != nil {
		return mapConstraintError(err, d, "updating datapoint")
	}
	return requireOneRow(result)
}

// Upsert creates the datapoint or replaces an existing one in a single
// transaction.
func (r *SQLiteRepository) Upsert(ctx context.Context, d *Datapoint) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	var createdAt string
	err = tx.QueryRowContext(ctx, `SELECT created_at FROM datapoints WHERE name = ?`, d.Name).Scan(&createdAt)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return false, fmt.Errorf("checking datapoint: %w", err)
	}

	now := time.Now().UTC()
	d.UpdatedAt = now
	if created {
		d.CreatedAt = now
	} else if t, perr := time.Parse(time.RFC3339, createdAt); perr == nil {
		d.CreatedAt = t
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datapoints (
			name, token, description, group_address, unit_id, source, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			token = excluded.token,
			description = excluded.description,
			group_address = excluded.group_address,
			unit_id = excluded.unit_id,
			source = excluded.source,
			updated_at = excluded.updated_at`,
		d.Name,
		d.Token,
		nullableString(d.Description),
		nullableString(d.GroupAddress),
		int(d.UnitID),
		string(d.Source),
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, mapConstraintError(err, d, "upserting datapoint")
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing upsert: %w", err)
	}
	return created, nil
}

// Delete removes a datapoint by name.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datapoints WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting datapoint: %w", err)
	}
	return requireOneRow(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDatapoint(row rowScanner) (*Datapoint, error) {
	var (
		d                    Datapoint
		description, ga      sql.NullString
		unitID               int
		source               string
		createdAt, updatedAt string
	)
	if err := row.Scan(&d.Name, &d.Token, &description, &ga, &unitID, &source, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.Description = description.String
	d.GroupAddress = ga.String
	d.UnitID = uint8(unitID) //nolint:gosec // CHECK constraint bounds unit_id to 0..247
	d.Source = Source(source)

	var err error
	if d.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &d, nil
}

func requireOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// mapConstraintError turns SQLite constraint violations into domain errors.
// The name is the primary key; group_address carries a unique index.
func mapConstraintError(err error, d *Datapoint, op string) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey:
			return ErrExists
		case sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %s", ErrGroupAddressInUse, d.GroupAddress)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
