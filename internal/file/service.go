package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/sharedrive/sharedrive/internal/publicid"
	"golang.org/x/crypto/bcrypt"
)

const publicIDLength = 8

// metadataStore abstracts file metadata persistence. Create and
// DeleteOwned also move the owner's storage accounting inside the same
// transaction as the row mutation.
type metadataStore interface {
	Create(ctx context.Context, meta File) (File, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]File, error)
	GetByPublicID(ctx context.Context, publicID string) (File, error)
	GetOwnedByPublicID(ctx context.Context, ownerID uuid.UUID, publicID string) (File, error)
	Rename(ctx context.Context, ownerID uuid.UUID, publicID, newName string) (File, error)
	UpdatePassword(ctx context.Context, ownerID uuid.UUID, publicID string, passwordHash *string) (File, error)
	DeleteOwned(ctx context.Context, ownerID uuid.UUID, fileIDs []uuid.UUID) ([]File, error)
	ResolvePublicIDs(ctx context.Context, publicIDs []string) ([]File, error)
	OwnerQuota(ctx context.Context, ownerID uuid.UUID) (Quota, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Service manages the personal file library and its storage accounting.
type Service struct {
	repo         metadataStore
	objectStore  objectStore
	objectBucket string
	bcryptCost   int
}

// NewService constructs a file service.
func NewService(repo metadataStore, store objectStore, objectBucket string, bcryptCost int) *Service {
	return &Service{
		repo:         repo,
		objectStore:  store,
		objectBucket: objectBucket,
		bcryptCost:   bcryptCost,
	}
}

// Upload stores the object contents and creates metadata. The metadata
// insert and the owner's usage increment share one transaction; the quota
// check is a conditional update inside it, so concurrent uploads cannot
// oversubscribe the quota.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, fileHeader *multipart.FileHeader) (File, error) {
	if fileHeader == nil {
		return File{}, fmt.Errorf("missing file payload")
	}

	quota, err := s.repo.OwnerQuota(ctx, ownerID)
	if err != nil {
		return File{}, err
	}

	size := fileHeader.Size
	if quota.MaxFileBytes > 0 && size > quota.MaxFileBytes {
		return File{}, ErrFileTooLarge
	}
	if quota.MaxStorageBytes > 0 && quota.UsedStorageBytes+size > quota.MaxStorageBytes {
		return File{}, ErrQuotaExceeded
	}

	fileID := uuid.New()
	shortID, err := publicid.New(publicIDLength)
	if err != nil {
		return File{}, fmt.Errorf("generate public id: %w", err)
	}
	objectName := fmt.Sprintf("%s/%s", ownerID.String(), fileID.String())

	src, err := fileHeader.Open()
	if err != nil {
		return File{}, fmt.Errorf("open upload file: %w", err)
	}
	defer src.Close()

	hasher := sha256.New()
	reader := io.TeeReader(src, hasher)

	putOpts := minio.PutObjectOptions{
		ContentType: detectContentType(fileHeader),
	}

	uploadInfo, err := s.objectStore.PutObject(ctx, s.objectBucket, objectName, reader, size, putOpts)
	if err != nil {
		return File{}, fmt.Errorf("store object: %w", err)
	}

	actualSize := uploadInfo.Size
	if actualSize <= 0 {
		actualSize = size
	}
	if quota.MaxFileBytes > 0 && actualSize > quota.MaxFileBytes {
		_ = s.objectStore.RemoveObject(ctx, s.objectBucket, objectName, minio.RemoveObjectOptions{})
		return File{}, ErrFileTooLarge
	}

	meta := File{
		ID:               fileID,
		OwnerID:          ownerID,
		PublicID:         shortID,
		OriginalFilename: sanitizeFilename(fileHeader.Filename),
		ObjectName:       objectName,
		SizeBytes:        actualSize,
		ContentType:      putOpts.ContentType,
		Checksum:         hex.EncodeToString(hasher.Sum(nil)),
	}

	stored, err := s.repo.Create(ctx, meta)
	if err != nil {
		_ = s.objectStore.RemoveObject(ctx, s.objectBucket, objectName, minio.RemoveObjectOptions{})
		return File{}, err
	}

	return stored, nil
}

// List returns the owner's files.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]File, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Get fetches one owned file by public id.
func (s *Service) Get(ctx context.Context, ownerID uuid.UUID, publicID string) (File, error) {
	return s.repo.GetOwnedByPublicID(ctx, ownerID, publicID)
}

// Download retrieves metadata and an object reader for an owned file.
func (s *Service) Download(ctx context.Context, ownerID uuid.UUID, publicID string) (File, io.ReadCloser, error) {
	meta, err := s.repo.GetOwnedByPublicID(ctx, ownerID, publicID)
	if err != nil {
		return File{}, nil, err
	}

	object, err := s.objectStore.GetObject(ctx, s.objectBucket, meta.ObjectName, minio.GetObjectOptions{})
	if err != nil {
		return File{}, nil, fmt.Errorf("fetch object: %w", err)
	}

	return meta, object, nil
}

// Rename updates the display name of an owned file.
func (s *Service) Rename(ctx context.Context, ownerID uuid.UUID, publicID, newName string) (File, error) {
	newName = sanitizeFilename(newName)
	return s.repo.Rename(ctx, ownerID, publicID, newName)
}

// SetPassword protects an owned file with a password; an empty password
// clears the protection.
func (s *Service) SetPassword(ctx context.Context, ownerID uuid.UUID, publicID, password string) (File, error) {
	var hash *string
	if password != "" {
		bytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
		if err != nil {
			return File{}, fmt.Errorf("hash file password: %w", err)
		}
		encoded := string(bytes)
		hash = &encoded
	}
	return s.repo.UpdatePassword(ctx, ownerID, publicID, hash)
}

// Delete removes one owned file, frees its storage object and decrements
// the owner's usage.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, publicID string) error {
	meta, err := s.repo.GetOwnedByPublicID(ctx, ownerID, publicID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.DeleteOwned(ctx, ownerID, []uuid.UUID{meta.ID})
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		return ErrFileNotFound
	}

	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, meta.ObjectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// BulkDeleteResult reports the outcome of a best-effort bulk deletion.
type BulkDeleteResult struct {
	Requested  int      `json:"requested"`
	Deleted    int      `json:"deleted"`
	FreedBytes int64    `json:"freed_bytes"`
	Skipped    []string `json:"skipped,omitempty"`
}

// BulkDelete removes several files from the personal library. Files are
// grouped by owner; non-admin actors may only delete their own files, the
// rest are skipped and reported, not failed.
func (s *Service) BulkDelete(ctx context.Context, actorID uuid.UUID, isAdmin bool, publicIDs []string) (BulkDeleteResult, error) {
	result := BulkDeleteResult{Requested: len(publicIDs)}

	resolved, err := s.repo.ResolvePublicIDs(ctx, publicIDs)
	if err != nil {
		return result, err
	}

	found := make(map[string]struct{}, len(resolved))
	byOwner := make(map[uuid.UUID][]File)
	for _, meta := range resolved {
		found[meta.PublicID] = struct{}{}
		if !isAdmin && meta.OwnerID != actorID {
			result.Skipped = append(result.Skipped, meta.PublicID)
			continue
		}
		byOwner[meta.OwnerID] = append(byOwner[meta.OwnerID], meta)
	}
	for _, id := range publicIDs {
		if _, ok := found[id]; !ok {
			result.Skipped = append(result.Skipped, id)
		}
	}

	for ownerID, files := range byOwner {
		ids := make([]uuid.UUID, 0, len(files))
		for _, meta := range files {
			ids = append(ids, meta.ID)
		}

		deleted, err := s.repo.DeleteOwned(ctx, ownerID, ids)
		if err != nil {
			for _, meta := range files {
				result.Skipped = append(result.Skipped, meta.PublicID)
			}
			continue
		}

		for _, meta := range deleted {
			result.Deleted++
			result.FreedBytes += meta.SizeBytes
			// object removal is best effort; the metadata row is gone
			_ = s.objectStore.RemoveObject(ctx, s.objectBucket, meta.ObjectName, minio.RemoveObjectOptions{})
		}
	}

	return result, nil
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" {
		return contentType
	}

	if src, err := fileHeader.Open(); err == nil {
		defer src.Close()
		if kind, err := mimetype.DetectReader(src); err == nil {
			return kind.String()
		}
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}
