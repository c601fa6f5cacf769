package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnpulse/learnpulse-backend/internal/data/repos/testutil"
	types "github.com/learnpulse/learnpulse-backend/internal/domain"
	"github.com/learnpulse/learnpulse-backend/internal/platform/dbctx"
)

func TestProfileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewProfileRepo(db, testutil.Logger(t))

	missing, err := repo.GetByID(dbc, uuid.New())
	if err != nil || missing != nil {
		t.Fatalf("GetByID missing: %v %v", missing, err)
	}

	p := &types.Profile{ID: uuid.New(), FullName: "Ada Lovelace", Level: 1}
	if created, err := repo.CreateIfMissing(dbc, p); err != nil || !created {
		t.Fatalf("CreateIfMissing: %v %v", created, err)
	}
	dup := &types.Profile{ID: p.ID, FullName: "Someone Else", Level: 1}
	if created, err := repo.CreateIfMissing(dbc, dup); err != nil || created {
		t.Fatalf("CreateIfMissing on existing id: %v %v", created, err)
	}
	if err := repo.UpdateFields(dbc, p.ID, map[string]any{"avatar_url": "https://img/a.png"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, err := repo.GetForUpdate(dbc, p.ID)
	if err != nil || got == nil {
		t.Fatalf("GetForUpdate: %v %v", got, err)
	}
	if got.AvatarURL != "https://img/a.png" || got.FullName != "Ada Lovelace" || got.Level != 1 {
		t.Fatalf("profile = %+v", got)
	}
	got.XP = 1200
	got.Level = types.LevelForXP(got.XP)
	if err := repo.Save(dbc, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, _ := repo.GetByID(dbc, p.ID)
	if again.Level != 2 || again.XP != 1200 {
		t.Fatalf("after save = %+v", again)
	}
}

func TestUserActivityRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewUserActivityRepo(db, testutil.Logger(t))
	userID := uuid.New()
	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC).Format(types.ActivityDateLayout)

	created, err := repo.CreateIfMissing(dbc, &types.UserActivity{UserID: userID, ActivityDate: day, ActivityCount: 1})
	if err != nil || !created {
		t.Fatalf("CreateIfMissing first: %v %v", created, err)
	}
	created, err = repo.CreateIfMissing(dbc, &types.UserActivity{UserID: userID, ActivityDate: day, ActivityCount: 1})
	if err != nil || created {
		t.Fatalf("CreateIfMissing second: %v %v", created, err)
	}

	if err := repo.AddToDay(dbc, userID, day, 0, 2, 3); err != nil {
		t.Fatalf("AddToDay: %v", err)
	}
	if err := repo.AddToDay(dbc, userID, day, 0, 1, 0); err != nil {
		t.Fatalf("AddToDay: %v", err)
	}
	row, err := repo.GetByDay(dbc, userID, day)
	if err != nil || row == nil {
		t.Fatalf("GetByDay: %v %v", row, err)
	}
	if row.ActivityCount != 1 || row.StudyMinutes != 3 || row.ProblemsSolved != 3 {
		t.Fatalf("row = %+v", row)
	}

	other := "2026-03-15"
	if err := repo.AddToDay(dbc, userID, other, 0, 5, 0); err != nil {
		t.Fatalf("AddToDay new day: %v", err)
	}
	rows, err := repo.ListRecent(dbc, userID, 10)
	if err != nil || len(rows) != 2 || rows[0].ActivityDate != other {
		t.Fatalf("ListRecent: %v %+v", err, rows)
	}
}

func TestUserAchievementRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewUserAchievementRepo(db, testutil.Logger(t))
	userID := uuid.New()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, code := range []string{"first_quiz", "focused_hour", "xp_1000", "streak_7"} {
		ok, err := repo.Award(dbc, &types.UserAchievement{
			UserID:   userID,
			Code:     code,
			Title:    code,
			EarnedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil || !ok {
			t.Fatalf("Award %s: %v %v", code, ok, err)
		}
	}
	ok, err := repo.Award(dbc, &types.UserAchievement{UserID: userID, Code: "first_quiz", Title: "dup"})
	if err != nil || ok {
		t.Fatalf("duplicate Award: %v %v", ok, err)
	}

	recent, err := repo.ListRecent(dbc, userID, 3)
	if err != nil || len(recent) != 3 {
		t.Fatalf("ListRecent: %v len=%d", err, len(recent))
	}
	if recent[0].Code != "streak_7" || recent[2].Code != "focused_hour" {
		t.Fatalf("order = %s,%s,%s", recent[0].Code, recent[1].Code, recent[2].Code)
	}

	codes, err := repo.Codes(dbc, userID)
	if err != nil || len(codes) != 4 || !codes["xp_1000"] {
		t.Fatalf("Codes: %v %v", codes, err)
	}
}
