package activity

import (
	"time"

	"github.com/google/uuid"
)

// Kind enumerates the auditable team actions.
type Kind string

const (
	KindCreated    Kind = "created"
	KindJoined     Kind = "joined"
	KindUploaded   Kind = "uploaded"
	KindDownloaded Kind = "downloaded"
	KindDeleted    Kind = "deleted"
	KindLeft       Kind = "left"
	KindInvited    Kind = "invited"
)

// Record is one immutable audit entry for a team. Records are appended as
// a side effect of coordination operations and never mutated.
type Record struct {
	ID        uuid.UUID         `json:"id"`
	TeamID    uuid.UUID         `json:"team_id"`
	ActorID   uuid.UUID         `json:"actor_id"`
	Action    Kind              `json:"action"`
	FileID    *uuid.UUID        `json:"file_id,omitempty"`
	FileName  *string           `json:"file_name,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Page is one page of activity records in reverse-chronological order.
type Page struct {
	Records    []Record `json:"activities"`
	Total      int64    `json:"total"`
	PageNumber int      `json:"page"`
	PageSize   int      `json:"limit"`
	HasNext    bool     `json:"has_next"`
	HasPrev    bool     `json:"has_prev"`
}
