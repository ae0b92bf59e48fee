package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/lib/pq"

	"github.com/fortuna/brutalball/internal/extract"
	"github.com/fortuna/brutalball/internal/store"
)

// TableRepository persists scraped tables, one per page
type TableRepository struct {
	db *store.Database
}

// NewTableRepository creates a new table repository
func NewTableRepository(db *store.Database) *TableRepository {
	return &TableRepository{db: db}
}

// Save replaces the stored table of page with b.
func (r *TableRepository) Save(ctx context.Context, p extract.Page, b extract.Bundle) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	headers := b.Headers
	if headers == nil {
		headers = []string{}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO scraped_tables (page, headers, row_count, fingerprint, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (page) DO UPDATE
		SET headers = EXCLUDED.headers,
			row_count = EXCLUDED.row_count,
			fingerprint = EXCLUDED.fingerprint,
			updated_at = NOW()
	`, string(p), pq.Array(headers), b.Len(), strconv.FormatUint(b.Fingerprint(), 16))
	if err != nil {
		return fmt.Errorf("upserting table %s: %w", p, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM scraped_rows WHERE page = $1`, string(p)); err != nil {
		return fmt.Errorf("clearing rows of %s: %w", p, err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("scraped_rows", "page", "row_index", "cells"))
	if err != nil {
		return fmt.Errorf("preparing copy: %w", err)
	}
	for i, row := range b.Rows {
		if _, err := stmt.ExecContext(ctx, string(p), i, pq.Array(row)); err != nil {
			stmt.Close()
			return fmt.Errorf("copying row %d: %w", i, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flushing copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	return tx.Commit()
}

// Meta returns the stored table metadata of page
func (r *TableRepository) Meta(ctx context.Context, p extract.Page) (*store.TableRecord, error) {
	rec := &store.TableRecord{}
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT page, headers, row_count, fingerprint, updated_at
		FROM scraped_tables
		WHERE page = $1
	`, string(p)).Scan(&rec.Page, &rec.Headers, &rec.RowCount, &rec.Fingerprint, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("table %s: %w", p, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying table %s: %w", p, err)
	}
	return rec, nil
}

// Load returns the stored table of page in its saved row order.
func (r *TableRepository) Load(ctx context.Context, p extract.Page) (extract.Bundle, error) {
	meta, err := r.Meta(ctx, p)
	if err != nil {
		return extract.Bundle{}, err
	}

	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT cells
		FROM scraped_rows
		WHERE page = $1
		ORDER BY row_index
	`, string(p))
	if err != nil {
		return extract.Bundle{}, fmt.Errorf("querying rows of %s: %w", p, err)
	}
	defer rows.Close()

	b := extract.Bundle{Headers: []string(meta.Headers)}
	for rows.Next() {
		var cells pq.StringArray
		if err := rows.Scan(&cells); err != nil {
			return extract.Bundle{}, fmt.Errorf("scanning row: %w", err)
		}
		b.Rows = append(b.Rows, []string(cells))
	}
	return b, rows.Err()
}
