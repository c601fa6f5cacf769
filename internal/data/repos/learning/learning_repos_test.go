package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos/testutil"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
)

func TestLectureRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewLectureRepo(db, testutil.Logger(t))
	userID := uuid.New()

	rows, err := repo.Create(dbc, []*types.Lecture{
		{UserID: userID, Title: "React Hooks", VideoURL: "https://youtu.be/a"},
		{UserID: userID, Title: "CSS Grid", VideoURL: "https://youtu.be/b", DurationSeconds: 300},
	})
	if err != nil || len(rows) != 2 || rows[0].ID == uuid.Nil {
		t.Fatalf("Create: %v %+v", err, rows)
	}
	if err := repo.UpdateDuration(dbc, rows[0].ID, 615.5); err != nil {
		t.Fatalf("UpdateDuration: %v", err)
	}
	got, err := repo.GetByID(dbc, rows[0].ID)
	if err != nil || got == nil || got.DurationSeconds != 615.5 {
		t.Fatalf("GetByID: %v %+v", err, got)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID missing: %v %v", missing, err)
	}
	list, err := repo.ListByUser(dbc, userID)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByUser: %v len=%d", err, len(list))
	}
}

func TestPlaybackSessionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPlaybackSessionRepo(db, testutil.Logger(t))

	lec := testutil.SeedLecture(t, ctx, tx, uuid.New(), "Python Basics", 300)

	older := &types.PlaybackSession{
		UserID:    lec.UserID,
		LectureID: lec.ID,
		Phase:     "idle",
		State:     datatypes.JSON([]byte(`{"phase":"idle"}`)),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	if err := repo.Create(dbc, older); err != nil {
		t.Fatalf("Create older: %v", err)
	}
	newer := &types.PlaybackSession{
		UserID:    lec.UserID,
		LectureID: lec.ID,
		Phase:     "paused",
		State:     datatypes.JSON([]byte(`{"phase":"paused"}`)),
	}
	if err := repo.Create(dbc, newer); err != nil {
		t.Fatalf("Create newer: %v", err)
	}

	latest, err := repo.LatestUnfinished(dbc, lec.UserID, lec.ID)
	if err != nil || latest == nil || latest.ID != newer.ID {
		t.Fatalf("LatestUnfinished: %v %+v", err, latest)
	}

	locked, err := repo.GetForUpdate(dbc, newer.ID)
	if err != nil || locked == nil {
		t.Fatalf("GetForUpdate: %v %v", locked, err)
	}
	done := time.Now().UTC()
	if err := repo.SaveState(dbc, newer.ID, "finished", datatypes.JSON([]byte(`{"phase":"finished"}`)), "boom", &done); err != nil {
		t.Fatalf("SaveState: %v", err)
	}
	got, err := repo.GetByID(dbc, newer.ID)
	if err != nil || got.Phase != "finished" || got.LastError != "boom" || got.CompletedAt == nil {
		t.Fatalf("after SaveState: %v %+v", err, got)
	}

	latest, err = repo.LatestUnfinished(dbc, lec.UserID, lec.ID)
	if err != nil || latest == nil || latest.ID != older.ID {
		t.Fatalf("LatestUnfinished after finish: %v %+v", err, latest)
	}

	if err := repo.SaveState(dbc, uuid.New(), "idle", nil, "", nil); err == nil {
		t.Fatalf("SaveState on missing row should fail")
	}
}
