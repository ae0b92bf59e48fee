package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/brutalball/internal/store"
	"github.com/fortuna/brutalball/internal/teams"
)

// TeamRepository handles team directory access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns the directory ordered by team id
func (r *TeamRepository) List(ctx context.Context) (teams.Directory, error) {
	query := `
		SELECT team_id, name, updated_at
		FROM teams
		ORDER BY team_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var dir teams.Directory
	for rows.Next() {
		var rec store.TeamRecord
		if err := rows.Scan(&rec.TeamID, &rec.Name, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		dir = append(dir, teams.Team{ID: uint32(rec.TeamID), Name: rec.Name})
	}

	return dir, rows.Err()
}

// ReplaceAll swaps the stored directory for dir in one transaction
func (r *TeamRepository) ReplaceAll(ctx context.Context, dir teams.Directory) error {
	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teams`); err != nil {
		return fmt.Errorf("clearing teams: %w", err)
	}
	for _, t := range dir.Normalize() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teams (team_id, name, updated_at) VALUES ($1, $2, NOW())`,
			t.ID, t.Name)
		if err != nil {
			return fmt.Errorf("inserting team %d: %w", t.ID, err)
		}
	}
	return tx.Commit()
}
