package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type fakeRepository struct {
	entries   []*Log
	insertErr error
}

func (f *fakeRepository) Insert(_ context.Context, entry *Log) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRepository) List(_ context.Context, p Pagination) ([]Log, int, error) {
	out := make([]Log, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, *e)
	}
	return out, len(out), nil
}

func TestRecordActionWritesEntry(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewServiceWithRepository(repo)

	adminID := uuid.New()
	productID := uuid.New()
	svc.RecordAction(adminID, "product.create", "product", productID)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.AdminID != adminID || entry.Action != "product.create" || entry.EntityType != "product" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if !entry.EntityID.Valid || entry.EntityID.UUID != productID {
		t.Errorf("entity id = %+v", entry.EntityID)
	}
}

func TestRecordActionWithoutTarget(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewServiceWithRepository(repo)

	svc.RecordAction(uuid.New(), "users.export", "user", uuid.Nil)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].EntityID.Valid {
		t.Error("entity id should be null for untargeted actions")
	}
}

func TestRecordActionSwallowsFailure(t *testing.T) {
	repo := &fakeRepository{insertErr: errors.New("db down")}
	svc := NewServiceWithRepository(repo)

	// must not panic and must not propagate
	svc.RecordAction(uuid.New(), "user.block", "user", uuid.New())

	if len(repo.entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(repo.entries))
	}
}
