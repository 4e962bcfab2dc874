package team

import "errors"

var (
	// ErrTeamNotFound indicates the team does not exist.
	ErrTeamNotFound = errors.New("team not found")
	// ErrActorNotFound indicates the acting user does not resolve to a record.
	ErrActorNotFound = errors.New("user not found")
	// ErrAlreadyMember is returned when a user joins a team it already belongs to.
	ErrAlreadyMember = errors.New("already a member")
	// ErrNotMember is returned when a non-member tries to leave.
	ErrNotMember = errors.New("not a member")
	// ErrLeaderCannotLeave rejects leader departure through the leave path.
	ErrLeaderCannotLeave = errors.New("leader cannot leave the team")
	// ErrNotLeader rejects leader-only operations from other actors.
	ErrNotLeader = errors.New("only the team leader may do this")
	// ErrNoAccess rejects actors who are neither leader nor member.
	ErrNoAccess = errors.New("no access to this team")
	// ErrNotUploader rejects team-file removal by anyone but the file's owner.
	ErrNotUploader = errors.New("only the uploader may remove this file")
	// ErrNoFilesResolved is returned when none of the supplied file ids exist.
	ErrNoFilesResolved = errors.New("no files resolved")
)
