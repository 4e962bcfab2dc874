package team

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharedrive/sharedrive/internal/file"
)

const repositoryTimeout = 5 * time.Second

const teamColumns = "id, join_code, name, description, is_public, leader_id, created_at, updated_at"

// Repository persists teams, memberships and team-file links in Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanTeam(row pgx.Row) (Team, error) {
	var t Team
	err := row.Scan(&t.ID, &t.JoinCode, &t.Name, &t.Description, &t.IsPublic, &t.LeaderID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *Repository) Create(ctx context.Context, team Team) (Team, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		INSERT INTO teams (id, join_code, name, description, is_public, leader_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + teamColumns

	created, err := scanTeam(r.pool.QueryRow(ctx, query,
		team.ID, team.JoinCode, team.Name, team.Description, team.IsPublic, team.LeaderID))
	if err != nil {
		if isForeignKeyViolation(err) {
			return Team{}, ErrActorNotFound
		}
		return Team{}, fmt.Errorf("insert team: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByJoinCode(ctx context.Context, joinCode string) (Team, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `SELECT ` + teamColumns + ` FROM teams WHERE join_code = $1`

	team, err := scanTeam(r.pool.QueryRow(ctx, query, joinCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrTeamNotFound
		}
		return Team{}, fmt.Errorf("select team by join code: %w", err)
	}
	return team, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Team, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team, err := scanTeam(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrTeamNotFound
		}
		return Team{}, fmt.Errorf("select team by id: %w", err)
	}
	return team, nil
}

// Delete removes the team row; memberships and file links go with it via
// ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (Team, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `DELETE FROM teams WHERE id = $1 RETURNING ` + teamColumns

	team, err := scanTeam(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrTeamNotFound
		}
		return Team{}, fmt.Errorf("delete team: %w", err)
	}
	return team, nil
}

func (r *Repository) SetVisibility(ctx context.Context, id uuid.UUID, isPublic bool) (Team, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		UPDATE teams SET is_public = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + teamColumns

	team, err := scanTeam(r.pool.QueryRow(ctx, query, id, isPublic))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, ErrTeamNotFound
		}
		return Team{}, fmt.Errorf("update team visibility: %w", err)
	}
	return team, nil
}

// AddMember inserts the membership row. The primary key on
// (team_id, user_id) makes the insert conditional: zero affected rows
// means the user already belongs to the team.
func (r *Repository) AddMember(ctx context.Context, teamID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (team_id, user_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, teamID, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrActorNotFound
		}
		return fmt.Errorf("insert team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyMember
	}
	return nil
}

func (r *Repository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`

	tag, err := r.pool.Exec(ctx, query, teamID, userID)
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

func (r *Repository) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check team membership: %w", err)
	}
	return exists, nil
}

func (r *Repository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]Member, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		SELECT user_id, joined_at FROM team_members
		WHERE team_id = $1
		ORDER BY joined_at`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("select team members: %w", err)
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListForUser returns teams the user leads or belongs to, oldest
// association first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]Team, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		SELECT t.id, t.join_code, t.name, t.description, t.is_public, t.leader_id, t.created_at, t.updated_at
		FROM teams t
		LEFT JOIN team_members m ON m.team_id = t.id AND m.user_id = $1
		WHERE t.leader_id = $1 OR m.user_id IS NOT NULL
		ORDER BY COALESCE(m.joined_at, t.created_at)`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select teams for user: %w", err)
	}
	defer rows.Close()

	teams := make([]Team, 0)
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// AddFiles unions the given file ids into the team's file set and
// reports how many links were actually new.
func (r *Repository) AddFiles(ctx context.Context, teamID, addedBy uuid.UUID, fileIDs []uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		INSERT INTO team_files (team_id, file_id, added_by)
		SELECT $1, unnest($2::uuid[]), $3
		ON CONFLICT (team_id, file_id) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, teamID, fileIDs, addedBy)
	if err != nil {
		return 0, fmt.Errorf("insert team files: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) RemoveFile(ctx context.Context, teamID, fileID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `DELETE FROM team_files WHERE team_id = $1 AND file_id = $2`

	tag, err := r.pool.Exec(ctx, query, teamID, fileID)
	if err != nil {
		return false, fmt.Errorf("delete team file: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *Repository) HasFile(ctx context.Context, teamID, fileID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `SELECT EXISTS (SELECT 1 FROM team_files WHERE team_id = $1 AND file_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, teamID, fileID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check team file: %w", err)
	}
	return exists, nil
}

func (r *Repository) ListFiles(ctx context.Context, teamID uuid.UUID) ([]file.File, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
		SELECT f.id, f.owner_id, f.public_id, f.original_filename, f.object_name,
		       f.size_bytes, f.content_type, f.checksum, f.password_hash, f.created_at, f.updated_at
		FROM files f
		JOIN team_files tf ON tf.file_id = f.id
		WHERE tf.team_id = $1
		ORDER BY tf.added_at`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("select team files: %w", err)
	}
	defer rows.Close()

	files := make([]file.File, 0)
	for rows.Next() {
		var f file.File
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.PublicID, &f.OriginalFilename, &f.ObjectName,
			&f.SizeBytes, &f.ContentType, &f.Checksum, &f.PasswordHash, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
