package file

import (
	"time"

	"github.com/google/uuid"
)

// File represents stored information about an uploaded object. PublicID is
// the short externally addressable handle, distinct from the internal ID.
type File struct {
	ID               uuid.UUID `json:"id"`
	OwnerID          uuid.UUID `json:"owner_id"`
	PublicID         string    `json:"public_id"`
	OriginalFilename string    `json:"original_filename"`
	ObjectName       string    `json:"object_name"`
	SizeBytes        int64     `json:"size_bytes"`
	ContentType      string    `json:"content_type"`
	Checksum         string    `json:"checksum"`
	PasswordHash     *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Protected reports whether downloads require a password.
func (f File) Protected() bool {
	return f.PasswordHash != nil && *f.PasswordHash != ""
}

// Quota is the owner's storage accounting state used for upload admission.
type Quota struct {
	MaxStorageBytes  int64
	UsedStorageBytes int64
	MaxFileBytes     int64
}
