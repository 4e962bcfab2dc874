package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence contract the recorder writes through.
type Store interface {
	Append(ctx context.Context, record Record) error
}

// Recorder appends audit records without ever failing the caller. A
// successful mutation must not be reported as failed because its audit
// trail could not be written; failures are logged and surfaced only as
// the boolean return so callers can observe degraded auditing.
type Recorder struct {
	store Store
	log   *zap.Logger
}

// NewRecorder builds a Recorder.
func NewRecorder(store Store, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{store: store, log: log}
}

// Log bundles the append and query sides for consumers that need both.
type Log struct {
	*Recorder
	*Repository
}

// NewLog builds a Log over one repository.
func NewLog(repo *Repository, logger *zap.Logger) *Log {
	return &Log{Recorder: NewRecorder(repo, logger), Repository: repo}
}

// Record appends one entry, reporting whether the write succeeded.
func (r *Recorder) Record(ctx context.Context, record Record) bool {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := r.store.Append(ctx, record); err != nil {
		r.log.Warn("activity record dropped",
			zap.String("team_id", record.TeamID.String()),
			zap.String("action", string(record.Action)),
			zap.Error(err),
		)
		return false
	}
	return true
}
