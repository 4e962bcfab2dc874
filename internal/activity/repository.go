package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository persists team activity records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds an activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append inserts one activity record.
func (r *Repository) Append(ctx context.Context, record Record) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var metadata []byte
	if len(record.Metadata) > 0 {
		encoded, err := json.Marshal(record.Metadata)
		if err != nil {
			return fmt.Errorf("encode activity metadata: %w", err)
		}
		metadata = encoded
	}

	query := `
INSERT INTO team_activities (id, team_id, actor_id, action, file_id, file_name, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	if _, err := r.pool.Exec(ctx, query,
		record.ID,
		record.TeamID,
		record.ActorID,
		string(record.Action),
		record.FileID,
		record.FileName,
		metadata,
	); err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

// ListByTeam returns a page of a team's records, newest first.
func (r *Repository) ListByTeam(ctx context.Context, teamID uuid.UUID, offset, limit int) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT id, team_id, actor_id, action, file_id, file_name, metadata, created_at
FROM team_activities
WHERE team_id = $1
ORDER BY created_at DESC
OFFSET $2 LIMIT $3;`

	rows, err := r.pool.Query(ctx, query, teamID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var action string
		var metadata []byte
		if err := rows.Scan(&record.ID, &record.TeamID, &record.ActorID, &action, &record.FileID, &record.FileName, &metadata, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		record.Action = Kind(action)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &record.Metadata); err != nil {
				return nil, fmt.Errorf("decode activity metadata: %w", err)
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	return records, nil
}

// CountByTeam returns the number of records for a team.
func (r *Repository) CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM team_activities WHERE team_id = $1;`, teamID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return total, nil
}
