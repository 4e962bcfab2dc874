package share

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sharedrive/sharedrive/internal/config"
	"github.com/sharedrive/sharedrive/internal/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepo struct {
	files map[string]file.File
}

func (r *fakeRepo) GetByPublicID(_ context.Context, publicID string) (file.File, error) {
	meta, ok := r.files[publicID]
	if !ok {
		return file.File{}, file.ErrFileNotFound
	}
	return meta, nil
}

func (r *fakeRepo) GetOwnedByPublicID(_ context.Context, ownerID uuid.UUID, publicID string) (file.File, error) {
	meta, ok := r.files[publicID]
	if !ok || meta.OwnerID != ownerID {
		return file.File{}, file.ErrFileNotFound
	}
	return meta, nil
}

type fakeSigner struct {
	lastExpiry time.Duration
}

func (s *fakeSigner) PresignedGetObject(_ context.Context, bucketName, objectName string, expiry time.Duration, _ url.Values) (*url.URL, error) {
	s.lastExpiry = expiry
	return url.Parse("https://minio.local/" + bucketName + "/" + objectName + "?signed=1")
}

func newTestService(t *testing.T, files ...file.File) (*Service, *fakeSigner) {
	t.Helper()
	repo := &fakeRepo{files: make(map[string]file.File)}
	for _, meta := range files {
		repo.files[meta.PublicID] = meta
	}
	signer := &fakeSigner{}
	cfg := config.ShareConfig{LinkTTL: 15 * time.Minute, BaseURL: "http://localhost:8080"}
	return NewService(repo, signer, "sharedrive", cfg), signer
}

func TestResolveOpenFile(t *testing.T) {
	meta := file.File{
		ID:               uuid.New(),
		PublicID:         "aB3dEf",
		OriginalFilename: "notes.txt",
		ObjectName:       "owner/notes",
		SizeBytes:        10,
	}
	service, signer := newTestService(t, meta)

	link, err := service.Resolve(context.Background(), "aB3dEf", "")
	require.NoError(t, err)

	assert.Equal(t, "notes.txt", link.FileName)
	assert.Contains(t, link.URL, "owner/notes")
	assert.Equal(t, 15*time.Minute, signer.lastExpiry)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), link.ExpiresAt, time.Minute)
}

func TestResolveUnknownFile(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Resolve(context.Background(), "missing", "")
	assert.ErrorIs(t, err, file.ErrFileNotFound)
}

func TestResolveProtectedFile(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	hashed := string(hash)

	meta := file.File{
		ID:               uuid.New(),
		PublicID:         "aB3dEf",
		OriginalFilename: "secret.pdf",
		ObjectName:       "owner/secret",
		PasswordHash:     &hashed,
	}
	service, _ := newTestService(t, meta)

	_, err = service.Resolve(context.Background(), "aB3dEf", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = service.Resolve(context.Background(), "aB3dEf", "wrong")
	assert.ErrorIs(t, err, ErrWrongPassword)

	link, err := service.Resolve(context.Background(), "aB3dEf", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "secret.pdf", link.FileName)
}

func TestCreateLinkOwnerOnly(t *testing.T) {
	owner := uuid.New()
	meta := file.File{
		ID:               uuid.New(),
		OwnerID:          owner,
		PublicID:         "aB3dEf",
		OriginalFilename: "notes.txt",
		ObjectName:       "owner/notes",
	}
	service, _ := newTestService(t, meta)

	_, err := service.Create(context.Background(), uuid.New(), "aB3dEf")
	assert.ErrorIs(t, err, file.ErrFileNotFound)

	link, err := service.Create(context.Background(), owner, "aB3dEf")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/s/aB3dEf", link.URL)
	assert.False(t, link.Protected)
}

func TestPageURL(t *testing.T) {
	service, _ := newTestService(t)
	assert.Equal(t, "http://localhost:8080/s/aB3dEf", service.PageURL("aB3dEf"))
}
