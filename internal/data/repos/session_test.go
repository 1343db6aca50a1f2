package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/courseforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/courseforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/courseforge-backend/internal/types"
)

func sessionFixture(t *testing.T) (SessionRepo, dbctx.Context, uuid.UUID) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	user := testutil.SeedUser(t, context.Background(), tx, "repo-test@example.com")
	repo := NewSessionRepo(tx, testutil.Logger(t))
	return repo, dbctx.Context{Ctx: context.Background(), Tx: tx}, user.ID
}

func seedSession(t *testing.T, userID uuid.UUID, title string) *types.AuthoringSession {
	t.Helper()
	now := time.Now().UTC()
	s := &types.AuthoringSession{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.SetMessages([]types.SessionMessage{
		{Type: types.MessageTypeUser, Content: "make me a course", Timestamp: now},
	}); err != nil {
		t.Fatalf("SetMessages: %v", err)
	}
	if err := s.SetContextMap(nil); err != nil {
		t.Fatalf("SetContextMap: %v", err)
	}
	if err := s.SetMetadataMap(nil); err != nil {
		t.Fatalf("SetMetadataMap: %v", err)
	}
	return s
}

func TestSessionRepo_GetByIDMissReturnsNilNil(t *testing.T) {
	repo, dbc, _ := sessionFixture(t)

	got, err := repo.GetByID(dbc, uuid.New())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil on miss, got %+v", got)
	}
}

func TestSessionRepo_SaveSkipsEmptySession(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)
	s := seedSession(t, userID, "Draft course")
	if err := s.SetMessages(nil); err != nil {
		t.Fatalf("SetMessages: %v", err)
	}

	saved, err := repo.Save(dbc, s)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved {
		t.Fatalf("expected empty session skipped")
	}
	got, err := repo.GetByID(dbc, s.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no row for skipped session")
	}
}

func TestSessionRepo_SaveWithOutlineOnlyIsPersisted(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)
	s := seedSession(t, userID, "Course: Knots")
	if err := s.SetMessages([]types.SessionMessage{
		{Type: types.MessageTypeAssistant, Content: "welcome"},
	}); err != nil {
		t.Fatalf("SetMessages: %v", err)
	}
	// No user messages, but a titled outline satisfies the emptiness rule.
	if err := s.SetContextMap(map[string]interface{}{
		"course_structure": map[string]interface{}{"title": "Knots", "sections": []interface{}{}},
	}); err != nil {
		t.Fatalf("SetContextMap: %v", err)
	}

	saved, err := repo.Save(dbc, s)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !saved {
		t.Fatalf("expected outline-bearing session persisted")
	}
}

func TestSessionRepo_SaveUpserts(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)
	s := seedSession(t, userID, "Draft course")

	if saved, err := repo.Save(dbc, s); err != nil || !saved {
		t.Fatalf("first save: saved=%v err=%v", saved, err)
	}

	s.Title = "Course: Gardening"
	if saved, err := repo.Save(dbc, s); err != nil || !saved {
		t.Fatalf("second save: saved=%v err=%v", saved, err)
	}

	got, err := repo.GetByID(dbc, s.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Course: Gardening" {
		t.Fatalf("expected updated title, got %q", got.Title)
	}

	var count int64
	if err := dbc.Tx.Model(&types.AuthoringSession{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row after upsert, got %d", count)
	}
}

func TestSessionRepo_ListByUserOrdersByRecency(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)

	older := seedSession(t, userID, "older")
	newer := seedSession(t, userID, "newer")
	if _, err := repo.Save(dbc, older); err != nil {
		t.Fatalf("save older: %v", err)
	}
	if _, err := repo.Save(dbc, newer); err != nil {
		t.Fatalf("save newer: %v", err)
	}
	// Force distinct updated_at values; Save stamps both with now().
	if err := dbc.Tx.Model(&types.AuthoringSession{}).
		Where("id = ?", older.ID).
		Update("updated_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate: %v", err)
	}

	rows, err := repo.ListByUser(dbc, userID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != newer.ID || rows[1].ID != older.ID {
		t.Fatalf("expected newest first, got %q then %q", rows[0].Title, rows[1].Title)
	}
}

func TestSessionRepo_ListByUserBreaksTimestampTiesByID(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)

	a := seedSession(t, userID, "a")
	b := seedSession(t, userID, "b")
	if _, err := repo.Save(dbc, a); err != nil {
		t.Fatalf("save a: %v", err)
	}
	if _, err := repo.Save(dbc, b); err != nil {
		t.Fatalf("save b: %v", err)
	}
	// Pin both rows to the same updated_at so only the id tie-break decides.
	pinned := time.Now().UTC().Truncate(time.Second)
	if err := dbc.Tx.Model(&types.AuthoringSession{}).
		Where("user_id = ?", userID).
		Update("updated_at", pinned).Error; err != nil {
		t.Fatalf("pin updated_at: %v", err)
	}

	first, second := a.ID, b.ID
	if first.String() < second.String() {
		first, second = second, first
	}
	for i := 0; i < 5; i++ {
		rows, err := repo.ListByUser(dbc, userID, 10)
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(rows))
		}
		if rows[0].ID != first || rows[1].ID != second {
			t.Fatalf("call %d: expected descending-id order on equal timestamps, got %s then %s",
				i, rows[0].ID, rows[1].ID)
		}
	}
}

func TestSessionRepo_ListByUserHonorsLimit(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)
	for i := 0; i < 3; i++ {
		if _, err := repo.Save(dbc, seedSession(t, userID, "s")); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	rows, err := repo.ListByUser(dbc, userID, 2)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected limit applied, got %d rows", len(rows))
	}
}

func TestSessionRepo_DeleteIdempotent(t *testing.T) {
	repo, dbc, userID := sessionFixture(t)
	s := seedSession(t, userID, "Draft course")
	if _, err := repo.Save(dbc, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := repo.Delete(dbc, s.ID)
	if err != nil || !found {
		t.Fatalf("first delete: found=%v err=%v", found, err)
	}
	found, err = repo.Delete(dbc, s.ID)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if found {
		t.Fatalf("expected second delete to report found=false")
	}
}
