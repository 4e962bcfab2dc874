package team

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/sharedrive/sharedrive/internal/activity"
	"github.com/sharedrive/sharedrive/internal/file"
	"github.com/sharedrive/sharedrive/internal/publicid"
)

const (
	defaultActivityPageSize = 20
	maxActivityPageSize     = 100
)

// teamStore abstracts team persistence. Membership mutations are
// conditional writes: the store reports Conflict/NotMember outcomes
// itself so the service's pre-checks never race against concurrent
// requests.
type teamStore interface {
	Create(ctx context.Context, team Team) (Team, error)
	GetByJoinCode(ctx context.Context, joinCode string) (Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (Team, error)
	Delete(ctx context.Context, id uuid.UUID) (Team, error)
	SetVisibility(ctx context.Context, id uuid.UUID, isPublic bool) (Team, error)
	AddMember(ctx context.Context, teamID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error
	IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, teamID uuid.UUID) ([]Member, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Team, error)
	AddFiles(ctx context.Context, teamID, addedBy uuid.UUID, fileIDs []uuid.UUID) (int64, error)
	RemoveFile(ctx context.Context, teamID, fileID uuid.UUID) (bool, error)
	HasFile(ctx context.Context, teamID, fileID uuid.UUID) (bool, error)
	ListFiles(ctx context.Context, teamID uuid.UUID) ([]file.File, error)
}

// userStore resolves acting users.
type userStore interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// fileIndex resolves public file ids to metadata.
type fileIndex interface {
	GetByPublicID(ctx context.Context, publicID string) (file.File, error)
	ResolvePublicIDs(ctx context.Context, publicIDs []string) ([]file.File, error)
}

// activityLog is the audit sink and its read side.
type activityLog interface {
	Record(ctx context.Context, record activity.Record) bool
	ListByTeam(ctx context.Context, teamID uuid.UUID, offset, limit int) ([]activity.Record, error)
	CountByTeam(ctx context.Context, teamID uuid.UUID) (int64, error)
}

// objectStore is the narrow read surface needed for team downloads.
type objectStore interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// Service coordinates team membership, file association and the activity
// log. Primary mutations are persisted first; activity records are
// appended afterwards and never fail the operation.
type Service struct {
	repo         teamStore
	users        userStore
	files        fileIndex
	activities   activityLog
	objectStore  objectStore
	objectBucket string
}

// NewService constructs a team service.
func NewService(repo teamStore, users userStore, files fileIndex, activities activityLog, store objectStore, objectBucket string) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		files:        files,
		activities:   activities,
		objectStore:  store,
		objectBucket: objectBucket,
	}
}

// authorize is the single capability check for (actor, team, action).
func (s *Service) authorize(ctx context.Context, actorID uuid.UUID, team Team, action Action) error {
	if team.LeaderID == actorID {
		return nil
	}

	switch action {
	case ActionDeleteTeam, ActionToggleVisibility:
		return ErrNotLeader
	}

	member, err := s.repo.IsMember(ctx, team.ID, actorID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNoAccess
	}
	return nil
}

// CreateResult reports the new team and whether its audit entry landed.
type CreateResult struct {
	Team           Team `json:"team"`
	ActivityLogged bool `json:"activity_logged"`
}

// Create makes a new team led by the actor. Visibility defaults to
// private unless requested otherwise.
func (s *Service) Create(ctx context.Context, actorID uuid.UUID, name, description string, isPublic bool) (CreateResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CreateResult{}, fmt.Errorf("team name required")
	}

	exists, err := s.users.UserExists(ctx, actorID)
	if err != nil {
		return CreateResult{}, err
	}
	if !exists {
		return CreateResult{}, ErrActorNotFound
	}

	joinCode, err := publicid.New(publicid.DefaultLength)
	if err != nil {
		return CreateResult{}, fmt.Errorf("generate join code: %w", err)
	}

	created, err := s.repo.Create(ctx, Team{
		ID:          uuid.New(),
		JoinCode:    joinCode,
		Name:        name,
		Description: strings.TrimSpace(description),
		IsPublic:    isPublic,
		LeaderID:    actorID,
	})
	if err != nil {
		return CreateResult{}, err
	}

	logged := s.activities.Record(ctx, activity.Record{
		TeamID:  created.ID,
		ActorID: actorID,
		Action:  activity.KindCreated,
	})

	return CreateResult{Team: created, ActivityLogged: logged}, nil
}

// JoinResult reports the joined team and the audit outcome.
type JoinResult struct {
	Team           Team `json:"team"`
	ActivityLogged bool `json:"activity_logged"`
}

// Join adds the actor to the team addressed by join code. The duplicate
// check is enforced by the store's conditional insert, so concurrent
// joins cannot produce a second membership row.
func (s *Service) Join(ctx context.Context, actorID uuid.UUID, joinCode string) (JoinResult, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return JoinResult{}, err
	}

	exists, err := s.users.UserExists(ctx, actorID)
	if err != nil {
		return JoinResult{}, err
	}
	if !exists {
		return JoinResult{}, ErrActorNotFound
	}

	if team.LeaderID == actorID {
		return JoinResult{}, ErrAlreadyMember
	}

	if err := s.repo.AddMember(ctx, team.ID, actorID); err != nil {
		return JoinResult{}, err
	}

	logged := s.activities.Record(ctx, activity.Record{
		TeamID:  team.ID,
		ActorID: actorID,
		Action:  activity.KindJoined,
	})

	return JoinResult{Team: team, ActivityLogged: logged}, nil
}

// LeaveResult reports the audit outcome of a leave.
type LeaveResult struct {
	ActivityLogged bool `json:"activity_logged"`
}

// Leave removes the actor from the member set. Leaders cannot leave;
// there is no transfer-of-leadership flow.
func (s *Service) Leave(ctx context.Context, actorID uuid.UUID, joinCode string) (LeaveResult, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return LeaveResult{}, err
	}

	if team.LeaderID == actorID {
		return LeaveResult{}, ErrLeaderCannotLeave
	}

	if err := s.repo.RemoveMember(ctx, team.ID, actorID); err != nil {
		return LeaveResult{}, err
	}

	logged := s.activities.Record(ctx, activity.Record{
		TeamID:  team.ID,
		ActorID: actorID,
		Action:  activity.KindLeft,
	})

	return LeaveResult{ActivityLogged: logged}, nil
}

// Delete removes the team outright. Leader-only. Files referenced by the
// team are untouched; membership rows go away with the team. No activity
// record is written for deletion.
func (s *Service) Delete(ctx context.Context, actorID uuid.UUID, teamID uuid.UUID) (Team, error) {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return Team{}, err
	}

	if err := s.authorize(ctx, actorID, team, ActionDeleteTeam); err != nil {
		return Team{}, err
	}

	return s.repo.Delete(ctx, team.ID)
}

// ToggleVisibility flips the public flag. Leader-only.
func (s *Service) ToggleVisibility(ctx context.Context, actorID uuid.UUID, joinCode string, isPublic bool) (Team, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return Team{}, err
	}

	if err := s.authorize(ctx, actorID, team, ActionToggleVisibility); err != nil {
		return Team{}, err
	}

	return s.repo.SetVisibility(ctx, team.ID, isPublic)
}

// ListForUser returns the teams the user leads or belongs to, in join
// order.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Team, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Members returns the team's member rows. Leader or member only.
func (s *Service) Members(ctx context.Context, actorID uuid.UUID, joinCode string) ([]Member, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, team, ActionViewActivity); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, team.ID)
}

// AddFilesResult reports the outcome of a (possibly bulk) add.
type AddFilesResult struct {
	Requested      int  `json:"requested"`
	Resolved       int  `json:"resolved"`
	Added          int  `json:"added"`
	ActivityLogged bool `json:"activity_logged"`
}

// AddFiles associates the given files (by public id) with the team using
// set-union semantics: re-adding a present file is a no-op, not an error.
// Unresolvable ids are skipped silently; if none resolve the call fails.
// One activity record is emitted per call, aggregated when more than one
// file was requested.
func (s *Service) AddFiles(ctx context.Context, actorID uuid.UUID, joinCode string, publicFileIDs []string) (AddFilesResult, error) {
	result := AddFilesResult{Requested: len(publicFileIDs)}

	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return result, err
	}

	if err := s.authorize(ctx, actorID, team, ActionAddFiles); err != nil {
		return result, err
	}

	resolved, err := s.files.ResolvePublicIDs(ctx, publicFileIDs)
	if err != nil {
		return result, err
	}
	result.Resolved = len(resolved)
	if len(resolved) == 0 {
		return result, ErrNoFilesResolved
	}

	ids := make([]uuid.UUID, 0, len(resolved))
	for _, meta := range resolved {
		ids = append(ids, meta.ID)
	}

	added, err := s.repo.AddFiles(ctx, team.ID, actorID, ids)
	if err != nil {
		return result, err
	}
	result.Added = int(added)

	record := activity.Record{
		TeamID:  team.ID,
		ActorID: actorID,
		Action:  activity.KindUploaded,
	}
	if len(resolved) == 1 {
		meta := resolved[0]
		record.FileID = &meta.ID
		record.FileName = &meta.OriginalFilename
		record.Metadata = map[string]string{
			"size": strconv.FormatInt(meta.SizeBytes, 10),
			"type": meta.ContentType,
		}
	} else {
		name := fmt.Sprintf("%d files", len(resolved))
		record.FileName = &name
		record.Metadata = map[string]string{
			"count": strconv.Itoa(len(resolved)),
		}
	}
	result.ActivityLogged = s.activities.Record(ctx, record)

	return result, nil
}

// RemoveFileResult reports a single team-file removal.
type RemoveFileResult struct {
	ActivityLogged bool `json:"activity_logged"`
}

// RemoveFile takes one file out of the team's file set. Only the user who
// uploaded the file may remove it; the rule is enforced here, not trusted
// from the caller.
func (s *Service) RemoveFile(ctx context.Context, actorID uuid.UUID, joinCode, publicFileID string) (RemoveFileResult, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return RemoveFileResult{}, err
	}

	meta, err := s.files.GetByPublicID(ctx, publicFileID)
	if err != nil {
		return RemoveFileResult{}, err
	}

	if meta.OwnerID != actorID {
		return RemoveFileResult{}, ErrNotUploader
	}

	removed, err := s.repo.RemoveFile(ctx, team.ID, meta.ID)
	if err != nil {
		return RemoveFileResult{}, err
	}
	if !removed {
		return RemoveFileResult{}, file.ErrFileNotFound
	}

	logged := s.activities.Record(ctx, activity.Record{
		TeamID:   team.ID,
		ActorID:  actorID,
		Action:   activity.KindDeleted,
		FileID:   &meta.ID,
		FileName: &meta.OriginalFilename,
	})

	return RemoveFileResult{ActivityLogged: logged}, nil
}

// BulkRemoveResult reports a best-effort bulk removal: some files may be
// removed while others are blocked or missing.
type BulkRemoveResult struct {
	Requested int      `json:"requested"`
	Removed   int      `json:"removed"`
	Skipped   []string `json:"skipped,omitempty"`
}

// RemoveFiles performs independent single removals for each id; partial
// failure is expected and reported, never rolled back.
func (s *Service) RemoveFiles(ctx context.Context, actorID uuid.UUID, joinCode string, publicFileIDs []string) (BulkRemoveResult, error) {
	result := BulkRemoveResult{Requested: len(publicFileIDs)}

	if _, err := s.repo.GetByJoinCode(ctx, joinCode); err != nil {
		return result, err
	}

	for _, publicFileID := range publicFileIDs {
		if _, err := s.RemoveFile(ctx, actorID, joinCode, publicFileID); err != nil {
			result.Skipped = append(result.Skipped, publicFileID)
			continue
		}
		result.Removed++
	}

	return result, nil
}

// ListFiles returns the team's file set. Leader or member only.
func (s *Service) ListFiles(ctx context.Context, actorID uuid.UUID, joinCode string) ([]file.File, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, actorID, team, ActionViewActivity); err != nil {
		return nil, err
	}
	return s.repo.ListFiles(ctx, team.ID)
}

// OpenFile streams a team file for a leader or member, logging a
// downloaded activity.
func (s *Service) OpenFile(ctx context.Context, actorID uuid.UUID, joinCode, publicFileID string) (file.File, io.ReadCloser, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return file.File{}, nil, err
	}
	if err := s.authorize(ctx, actorID, team, ActionDownloadFile); err != nil {
		return file.File{}, nil, err
	}

	meta, err := s.files.GetByPublicID(ctx, publicFileID)
	if err != nil {
		return file.File{}, nil, err
	}

	inTeam, err := s.repo.HasFile(ctx, team.ID, meta.ID)
	if err != nil {
		return file.File{}, nil, err
	}
	if !inTeam {
		return file.File{}, nil, file.ErrFileNotFound
	}

	object, err := s.objectStore.GetObject(ctx, s.objectBucket, meta.ObjectName, minio.GetObjectOptions{})
	if err != nil {
		return file.File{}, nil, fmt.Errorf("fetch object: %w", err)
	}

	s.activities.Record(ctx, activity.Record{
		TeamID:   team.ID,
		ActorID:  actorID,
		Action:   activity.KindDownloaded,
		FileID:   &meta.ID,
		FileName: &meta.OriginalFilename,
	})

	return meta, object, nil
}

// InviteResult carries what an external delivery channel needs.
type InviteResult struct {
	JoinCode       string `json:"join_code"`
	ActivityLogged bool   `json:"activity_logged"`
}

// Invite records an invitation for an email address and returns the join
// code; delivering the invitation is the caller's concern.
func (s *Service) Invite(ctx context.Context, actorID uuid.UUID, joinCode, email string) (InviteResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return InviteResult{}, fmt.Errorf("invite email required")
	}

	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return InviteResult{}, err
	}
	if err := s.authorize(ctx, actorID, team, ActionInvite); err != nil {
		return InviteResult{}, err
	}

	logged := s.activities.Record(ctx, activity.Record{
		TeamID:   team.ID,
		ActorID:  actorID,
		Action:   activity.KindInvited,
		Metadata: map[string]string{"invited_email": email},
	})

	return InviteResult{JoinCode: team.JoinCode, ActivityLogged: logged}, nil
}

// Activity returns one page of the team's audit log, newest first.
// Leader or member only.
func (s *Service) Activity(ctx context.Context, actorID uuid.UUID, joinCode string, page, limit int) (activity.Page, error) {
	team, err := s.repo.GetByJoinCode(ctx, joinCode)
	if err != nil {
		return activity.Page{}, err
	}

	if err := s.authorize(ctx, actorID, team, ActionViewActivity); err != nil {
		return activity.Page{}, err
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultActivityPageSize
	}
	if limit > maxActivityPageSize {
		limit = maxActivityPageSize
	}

	offset := (page - 1) * limit
	records, err := s.activities.ListByTeam(ctx, team.ID, offset, limit)
	if err != nil {
		return activity.Page{}, err
	}

	total, err := s.activities.CountByTeam(ctx, team.ID)
	if err != nil {
		return activity.Page{}, err
	}

	return activity.Page{
		Records:    records,
		Total:      total,
		PageNumber: page,
		PageSize:   limit,
		HasNext:    int64(offset+len(records)) < total,
		HasPrev:    page > 1,
	}, nil
}
