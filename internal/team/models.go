package team

import (
	"time"

	"github.com/google/uuid"
)

// Team is a collaborative group with exactly one leader and a set of
// members disjoint from the leader. JoinCode is the short public handle
// used to join or address the team, distinct from the internal ID.
type Team struct {
	ID          uuid.UUID `json:"id"`
	JoinCode    string    `json:"join_code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"is_public"`
	LeaderID    uuid.UUID `json:"leader_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Member is one (team, user) membership row.
type Member struct {
	UserID   uuid.UUID `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Action enumerates the capabilities checked by the service. All
// permission rules live in one authorize call instead of being repeated
// per handler.
type Action int

const (
	// ActionDeleteTeam and ActionToggleVisibility are leader-only.
	ActionDeleteTeam Action = iota
	ActionToggleVisibility
	// ActionAddFiles, ActionViewActivity, ActionDownloadFile and
	// ActionInvite require the actor to be the leader or a member.
	ActionAddFiles
	ActionViewActivity
	ActionDownloadFile
	ActionInvite
)
