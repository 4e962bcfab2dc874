package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository provides access to file metadata storage.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fileColumns = `id, owner_id, public_id, original_filename, object_name,
       size_bytes, content_type, checksum, password_hash, created_at, updated_at`

func scanFile(row pgx.Row) (File, error) {
	var meta File
	err := row.Scan(
		&meta.ID,
		&meta.OwnerID,
		&meta.PublicID,
		&meta.OriginalFilename,
		&meta.ObjectName,
		&meta.SizeBytes,
		&meta.ContentType,
		&meta.Checksum,
		&meta.PasswordHash,
		&meta.CreatedAt,
		&meta.UpdatedAt,
	)
	return meta, err
}

// Create inserts metadata for a new file and increments the owner's usage
// in the same transaction. The usage update is conditional on the quota,
// so a concurrent upload past the limit rolls the insert back.
func (r *Repository) Create(ctx context.Context, meta File) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return File{}, fmt.Errorf("begin create file: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
INSERT INTO files (id, owner_id, public_id, original_filename, object_name, size_bytes, content_type, checksum, password_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL)
RETURNING ` + fileColumns + `;`

	stored, err := scanFile(tx.QueryRow(ctx, insert,
		meta.ID,
		meta.OwnerID,
		meta.PublicID,
		meta.OriginalFilename,
		meta.ObjectName,
		meta.SizeBytes,
		meta.ContentType,
		meta.Checksum,
	))
	if err != nil {
		return File{}, fmt.Errorf("create file metadata: %w", err)
	}

	usage := `
UPDATE users
SET used_storage_bytes = used_storage_bytes + $2, updated_at = NOW()
WHERE id = $1
  AND (max_storage_bytes <= 0 OR used_storage_bytes + $2 <= max_storage_bytes);`

	tag, err := tx.Exec(ctx, usage, meta.OwnerID, meta.SizeBytes)
	if err != nil {
		return File{}, fmt.Errorf("increment storage usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return File{}, ErrQuotaExceeded
	}

	if err := tx.Commit(ctx); err != nil {
		return File{}, fmt.Errorf("commit create file: %w", err)
	}
	return stored, nil
}

// ListByOwner returns files owned by the user, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE owner_id = $1 ORDER BY created_at DESC;`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// GetByPublicID fetches a file by its public handle regardless of owner.
func (r *Repository) GetByPublicID(ctx context.Context, publicID string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE public_id = $1;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get file by public id: %w", err)
	}
	return meta, nil
}

// GetOwnedByPublicID fetches a file ensuring ownership.
func (r *Repository) GetOwnedByPublicID(ctx context.Context, ownerID uuid.UUID, publicID string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE public_id = $1 AND owner_id = $2;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, publicID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("get owned file: %w", err)
	}
	return meta, nil
}

// Rename updates the display name of an owned file.
func (r *Repository) Rename(ctx context.Context, ownerID uuid.UUID, publicID, newName string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET original_filename = $3, updated_at = NOW()
WHERE public_id = $1 AND owner_id = $2
RETURNING ` + fileColumns + `;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, publicID, ownerID, newName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("rename file: %w", err)
	}
	return meta, nil
}

// UpdatePassword sets or clears the file's download password hash.
func (r *Repository) UpdatePassword(ctx context.Context, ownerID uuid.UUID, publicID string, passwordHash *string) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET password_hash = $3, updated_at = NOW()
WHERE public_id = $1 AND owner_id = $2
RETURNING ` + fileColumns + `;`

	meta, err := scanFile(r.pool.QueryRow(ctx, query, publicID, ownerID, passwordHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return File{}, ErrFileNotFound
		}
		return File{}, fmt.Errorf("update file password: %w", err)
	}
	return meta, nil
}

// DeleteOwned removes the given files of one owner and decrements the
// owner's usage by their summed sizes, all in one transaction.
func (r *Repository) DeleteOwned(ctx context.Context, ownerID uuid.UUID, fileIDs []uuid.UUID) ([]File, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin delete files: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
DELETE FROM files
WHERE owner_id = $1 AND id = ANY($2)
RETURNING ` + fileColumns + `;`

	rows, err := tx.Query(ctx, query, ownerID, fileIDs)
	if err != nil {
		return nil, fmt.Errorf("delete files: %w", err)
	}
	deleted, err := collectFiles(rows)
	if err != nil {
		return nil, err
	}

	var freed int64
	for _, meta := range deleted {
		freed += meta.SizeBytes
	}
	if freed > 0 {
		usage := `
UPDATE users
SET used_storage_bytes = GREATEST(used_storage_bytes - $2, 0), updated_at = NOW()
WHERE id = $1;`
		if _, err := tx.Exec(ctx, usage, ownerID, freed); err != nil {
			return nil, fmt.Errorf("decrement storage usage: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit delete files: %w", err)
	}
	return deleted, nil
}

// ResolvePublicIDs returns the files matching the given public handles;
// unknown handles are simply absent from the result.
func (r *Repository) ResolvePublicIDs(ctx context.Context, publicIDs []string) ([]File, error) {
	if len(publicIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT ` + fileColumns + ` FROM files WHERE public_id = ANY($1);`

	rows, err := r.pool.Query(ctx, query, publicIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve public ids: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// OwnerQuota reads the owner's storage accounting state.
func (r *Repository) OwnerQuota(ctx context.Context, ownerID uuid.UUID) (Quota, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `SELECT max_storage_bytes, used_storage_bytes, max_file_bytes FROM users WHERE id = $1;`

	var quota Quota
	err := r.pool.QueryRow(ctx, query, ownerID).Scan(&quota.MaxStorageBytes, &quota.UsedStorageBytes, &quota.MaxFileBytes)
	if err != nil {
		return Quota{}, fmt.Errorf("read owner quota: %w", err)
	}
	return quota, nil
}

func collectFiles(rows pgx.Rows) ([]File, error) {
	defer rows.Close()

	var files []File
	for rows.Next() {
		meta, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}
