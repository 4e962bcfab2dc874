package share

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sharedrive/sharedrive/internal/config"
	"github.com/sharedrive/sharedrive/internal/file"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrPasswordRequired indicates the file is protected and no password was supplied.
	ErrPasswordRequired = errors.New("password required")
	// ErrWrongPassword indicates the supplied password does not match.
	ErrWrongPassword = errors.New("wrong password")
)

// metadataStore resolves shared files by their public id.
type metadataStore interface {
	GetByPublicID(ctx context.Context, publicID string) (file.File, error)
	GetOwnedByPublicID(ctx context.Context, ownerID uuid.UUID, publicID string) (file.File, error)
}

// linkSigner produces time-limited download URLs for stored objects.
type linkSigner interface {
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
}

// Link is a resolved public share: the file's metadata plus a signed
// download URL that expires.
type Link struct {
	PublicID  string    `json:"public_id"`
	FileName  string    `json:"file_name"`
	SizeBytes int64     `json:"size_bytes"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service resolves public share links without authentication. Protected
// files require the file's password; the object store URL itself carries
// the time limit.
type Service struct {
	repo   metadataStore
	signer linkSigner
	bucket string
	cfg    config.ShareConfig
}

// NewService constructs a share service.
func NewService(repo metadataStore, signer linkSigner, bucket string, cfg config.ShareConfig) *Service {
	return &Service{repo: repo, signer: signer, bucket: bucket, cfg: cfg}
}

// Resolve checks the password gate and signs a download URL for the file.
func (s *Service) Resolve(ctx context.Context, publicID, password string) (Link, error) {
	meta, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return Link{}, err
	}

	if meta.Protected() {
		if password == "" {
			return Link{}, ErrPasswordRequired
		}
		if err := bcrypt.CompareHashAndPassword([]byte(*meta.PasswordHash), []byte(password)); err != nil {
			return Link{}, ErrWrongPassword
		}
	}

	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", meta.OriginalFilename))

	signed, err := s.signer.PresignedGetObject(ctx, s.bucket, meta.ObjectName, s.cfg.LinkTTL, params)
	if err != nil {
		return Link{}, fmt.Errorf("sign share url: %w", err)
	}

	return Link{
		PublicID:  meta.PublicID,
		FileName:  meta.OriginalFilename,
		SizeBytes: meta.SizeBytes,
		URL:       signed.String(),
		ExpiresAt: time.Now().Add(s.cfg.LinkTTL),
	}, nil
}

// CreatedLink is the shareable address handed back to a file's owner.
type CreatedLink struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	Protected bool   `json:"protected"`
}

// Create hands the owner the public address for one of their files. Only
// the owner may mint the link; the file's password gate, if set, still
// applies when the link is resolved.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, publicID string) (CreatedLink, error) {
	meta, err := s.repo.GetOwnedByPublicID(ctx, ownerID, publicID)
	if err != nil {
		return CreatedLink{}, err
	}

	return CreatedLink{
		PublicID:  meta.PublicID,
		URL:       s.PageURL(meta.PublicID),
		Protected: meta.Protected(),
	}, nil
}

// PageURL returns the public address of a share, for handing out after
// upload.
func (s *Service) PageURL(publicID string) string {
	return fmt.Sprintf("%s/s/%s", s.cfg.BaseURL, publicID)
}
