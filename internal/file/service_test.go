package file

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

func TestUploadStoresMetadataAndIncrementsUsage(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "sharedrive", 4)

	ownerID := uuid.New()
	repo.quotas[ownerID] = Quota{MaxStorageBytes: 1 << 20, MaxFileBytes: 1 << 16}

	fileHeader := buildFileHeader(t, "file", "notes.txt", "text/plain", []byte("hello world"))

	meta, err := service.Upload(context.Background(), ownerID, fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	if meta.OriginalFilename != "notes.txt" {
		t.Fatalf("unexpected filename: %s", meta.OriginalFilename)
	}
	if meta.PublicID == "" {
		t.Fatalf("expected public id to be assigned")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected metadata stored, got %d", len(repo.records))
	}
	if !objectStore.putCalled {
		t.Fatalf("expected PutObject to be called")
	}
	if got := repo.quotas[ownerID].UsedStorageBytes; got != meta.SizeBytes {
		t.Fatalf("expected usage %d, got %d", meta.SizeBytes, got)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, &fakeObjectStore{}, "sharedrive", 4)

	ownerID := uuid.New()
	repo.quotas[ownerID] = Quota{MaxStorageBytes: 1 << 20, MaxFileBytes: 4}

	fileHeader := buildFileHeader(t, "file", "big.bin", "application/octet-stream", []byte("too large"))

	_, err := service.Upload(context.Background(), ownerID, fileHeader)
	if err != ErrFileTooLarge {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected no metadata stored")
	}
}

func TestUploadRejectsQuotaOverrun(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, &fakeObjectStore{}, "sharedrive", 4)

	ownerID := uuid.New()
	repo.quotas[ownerID] = Quota{MaxStorageBytes: 10, UsedStorageBytes: 8, MaxFileBytes: 1 << 16}

	fileHeader := buildFileHeader(t, "file", "data.bin", "application/octet-stream", []byte("payload"))

	_, err := service.Upload(context.Background(), ownerID, fileHeader)
	if err != ErrQuotaExceeded {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestDeleteRemovesMetadataAndRestoresUsage(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{reader: bytes.NewReader([]byte("payload"))}
	service := NewService(repo, objectStore, "sharedrive", 4)

	ownerID := uuid.New()
	repo.quotas[ownerID] = Quota{MaxStorageBytes: 1 << 20, MaxFileBytes: 1 << 16}

	fileHeader := buildFileHeader(t, "file", "data.bin", "application/octet-stream", []byte("payload"))
	meta, err := service.Upload(context.Background(), ownerID, fileHeader)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if repo.quotas[ownerID].UsedStorageBytes == 0 {
		t.Fatalf("expected usage to be incremented")
	}

	if err := service.Delete(context.Background(), ownerID, meta.PublicID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if objectStore.removeCount != 1 {
		t.Fatalf("expected RemoveObject called once, got %d", objectStore.removeCount)
	}
	if len(repo.records) != 0 {
		t.Fatalf("expected metadata removed, remaining %d", len(repo.records))
	}
	if got := repo.quotas[ownerID].UsedStorageBytes; got != 0 {
		t.Fatalf("expected usage back to 0, got %d", got)
	}
}

func TestBulkDeleteSkipsForeignFiles(t *testing.T) {
	repo := newFakeRepo()
	objectStore := &fakeObjectStore{}
	service := NewService(repo, objectStore, "sharedrive", 4)

	actorID := uuid.New()
	otherID := uuid.New()
	repo.quotas[actorID] = Quota{MaxStorageBytes: 1 << 20, MaxFileBytes: 1 << 16}
	repo.quotas[otherID] = Quota{MaxStorageBytes: 1 << 20, MaxFileBytes: 1 << 16}

	mine := seedFile(repo, actorID, "mine.txt", 100)
	theirs := seedFile(repo, otherID, "theirs.txt", 200)

	result, err := service.BulkDelete(context.Background(), actorID, false, []string{mine.PublicID, theirs.PublicID, "missing"})
	if err != nil {
		t.Fatalf("BulkDelete returned error: %v", err)
	}

	if result.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", result.Deleted)
	}
	if result.FreedBytes != 100 {
		t.Fatalf("expected 100 freed bytes, got %d", result.FreedBytes)
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("expected 2 skipped, got %v", result.Skipped)
	}
	if _, ok := repo.records[theirs.ID]; !ok {
		t.Fatalf("expected foreign file to be untouched")
	}
}

func TestBulkDeleteAdminSpansOwners(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, &fakeObjectStore{}, "sharedrive", 4)

	adminID := uuid.New()
	ownerA := uuid.New()
	ownerB := uuid.New()
	repo.quotas[ownerA] = Quota{UsedStorageBytes: 100}
	repo.quotas[ownerB] = Quota{UsedStorageBytes: 200}

	fileA := seedFile(repo, ownerA, "a.txt", 100)
	fileB := seedFile(repo, ownerB, "b.txt", 200)

	result, err := service.BulkDelete(context.Background(), adminID, true, []string{fileA.PublicID, fileB.PublicID})
	if err != nil {
		t.Fatalf("BulkDelete returned error: %v", err)
	}

	if result.Deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", result.Deleted)
	}
	if repo.quotas[ownerA].UsedStorageBytes != 0 || repo.quotas[ownerB].UsedStorageBytes != 0 {
		t.Fatalf("expected per-owner usage decrements")
	}
}

func TestSetPasswordProtectsFile(t *testing.T) {
	repo := newFakeRepo()
	service := NewService(repo, &fakeObjectStore{}, "sharedrive", 4)

	ownerID := uuid.New()
	repo.quotas[ownerID] = Quota{}
	meta := seedFile(repo, ownerID, "secret.pdf", 10)

	updated, err := service.SetPassword(context.Background(), ownerID, meta.PublicID, "hunter22")
	if err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}
	if !updated.Protected() {
		t.Fatalf("expected file to be protected")
	}

	cleared, err := service.SetPassword(context.Background(), ownerID, meta.PublicID, "")
	if err != nil {
		t.Fatalf("SetPassword clear returned error: %v", err)
	}
	if cleared.Protected() {
		t.Fatalf("expected protection to be cleared")
	}
}

// --- helpers & fakes ---

func buildFileHeader(t *testing.T, fieldName, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("CreateFormFile error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if err := req.ParseMultipartForm(int64(len(content)) + 1024); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}

	return req.MultipartForm.File[fieldName][0]
}

func seedFile(repo *fakeRepo, ownerID uuid.UUID, name string, size int64) File {
	meta := File{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		PublicID:         uuid.NewString()[:8],
		OriginalFilename: name,
		ObjectName:       ownerID.String() + "/" + name,
		SizeBytes:        size,
		ContentType:      "application/octet-stream",
		CreatedAt:        time.Now(),
	}
	repo.records[meta.ID] = meta
	return meta
}

type fakeRepo struct {
	records map[uuid.UUID]File
	quotas  map[uuid.UUID]Quota
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records: make(map[uuid.UUID]File),
		quotas:  make(map[uuid.UUID]Quota),
	}
}

func (f *fakeRepo) Create(ctx context.Context, meta File) (File, error) {
	quota := f.quotas[meta.OwnerID]
	if quota.MaxStorageBytes > 0 && quota.UsedStorageBytes+meta.SizeBytes > quota.MaxStorageBytes {
		return File{}, ErrQuotaExceeded
	}
	quota.UsedStorageBytes += meta.SizeBytes
	f.quotas[meta.OwnerID] = quota

	meta.CreatedAt = time.Now()
	meta.UpdatedAt = meta.CreatedAt
	f.records[meta.ID] = meta
	return meta, nil
}

func (f *fakeRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]File, error) {
	var list []File
	for _, m := range f.records {
		if m.OwnerID == ownerID {
			list = append(list, m)
		}
	}
	return list, nil
}

func (f *fakeRepo) GetByPublicID(ctx context.Context, publicID string) (File, error) {
	for _, m := range f.records {
		if m.PublicID == publicID {
			return m, nil
		}
	}
	return File{}, ErrFileNotFound
}

func (f *fakeRepo) GetOwnedByPublicID(ctx context.Context, ownerID uuid.UUID, publicID string) (File, error) {
	meta, err := f.GetByPublicID(ctx, publicID)
	if err != nil || meta.OwnerID != ownerID {
		return File{}, ErrFileNotFound
	}
	return meta, nil
}

func (f *fakeRepo) Rename(ctx context.Context, ownerID uuid.UUID, publicID, newName string) (File, error) {
	meta, err := f.GetOwnedByPublicID(ctx, ownerID, publicID)
	if err != nil {
		return File{}, err
	}
	meta.OriginalFilename = newName
	f.records[meta.ID] = meta
	return meta, nil
}

func (f *fakeRepo) UpdatePassword(ctx context.Context, ownerID uuid.UUID, publicID string, passwordHash *string) (File, error) {
	meta, err := f.GetOwnedByPublicID(ctx, ownerID, publicID)
	if err != nil {
		return File{}, err
	}
	meta.PasswordHash = passwordHash
	f.records[meta.ID] = meta
	return meta, nil
}

func (f *fakeRepo) DeleteOwned(ctx context.Context, ownerID uuid.UUID, fileIDs []uuid.UUID) ([]File, error) {
	var deleted []File
	var freed int64
	for _, id := range fileIDs {
		meta, ok := f.records[id]
		if !ok || meta.OwnerID != ownerID {
			continue
		}
		delete(f.records, id)
		deleted = append(deleted, meta)
		freed += meta.SizeBytes
	}
	quota := f.quotas[ownerID]
	quota.UsedStorageBytes -= freed
	if quota.UsedStorageBytes < 0 {
		quota.UsedStorageBytes = 0
	}
	f.quotas[ownerID] = quota
	return deleted, nil
}

func (f *fakeRepo) ResolvePublicIDs(ctx context.Context, publicIDs []string) ([]File, error) {
	var list []File
	for _, id := range publicIDs {
		if meta, err := f.GetByPublicID(ctx, id); err == nil {
			list = append(list, meta)
		}
	}
	return list, nil
}

func (f *fakeRepo) OwnerQuota(ctx context.Context, ownerID uuid.UUID) (Quota, error) {
	return f.quotas[ownerID], nil
}

type fakeObjectStore struct {
	putCalled   bool
	removeCount int
	reader      io.Reader
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.putCalled = true
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	return minio.UploadInfo{Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	if f.reader == nil {
		f.reader = bytes.NewReader([]byte{})
	}
	return io.NopCloser(f.reader), nil
}

func (f *fakeObjectStore) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	f.removeCount++
	return nil
}
