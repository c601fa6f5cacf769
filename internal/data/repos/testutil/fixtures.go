package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/learnpulse/learnpulse-backend/internal/domain"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, fullName string) *types.Profile {
	tb.Helper()
	p := &types.Profile{
		ID:       uuid.New(),
		FullName: fullName,
		Level:    1,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedLecture(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string, duration float64) *types.Lecture {
	tb.Helper()
	l := &types.Lecture{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           title,
		VideoURL:        "https://www.youtube.com/watch?v=abc123",
		DurationSeconds: duration,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lecture: %v", err)
	}
	return l
}
