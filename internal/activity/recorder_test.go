package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeStore struct {
	records []Record
	err     error
}

func (f *fakeStore) Append(ctx context.Context, record Record) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

func TestRecorderAssignsIDAndTimestamp(t *testing.T) {
	store := &fakeStore{}
	recorder := NewRecorder(store, nil)

	ok := recorder.Record(context.Background(), Record{
		TeamID:  uuid.New(),
		ActorID: uuid.New(),
		Action:  KindCreated,
	})

	if !ok {
		t.Fatalf("expected record to succeed")
	}
	if len(store.records) != 1 {
		t.Fatalf("expected one stored record, got %d", len(store.records))
	}
	stored := store.records[0]
	if stored.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if stored.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp to be assigned")
	}
}

func TestRecorderSwallowsStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	recorder := NewRecorder(store, nil)

	ok := recorder.Record(context.Background(), Record{
		TeamID:  uuid.New(),
		ActorID: uuid.New(),
		Action:  KindJoined,
	})

	if ok {
		t.Fatalf("expected failure to be reported as false")
	}
}
