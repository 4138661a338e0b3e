package report

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/database"
	"github.com/starboard-analytics/news-core/internal/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	return NewService(db)
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Upsert(ctx, "minor_news", "2026-09-01", "v1", models.ReportSourceClaude)
	if err != nil {
		t.Fatal(err)
	}

	second, err := svc.Upsert(ctx, "minor_news", "2026-09-01", "v2", models.ReportSourceExternal)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Fatal("upsert must reuse the existing row")
	}
	if second.Content != "v2" || second.Source != models.ReportSourceExternal {
		t.Fatalf("row = %+v", second)
	}

	var count int64
	svc.db.Model(&models.ReportModel{}).Count(&count)
	if count != 1 {
		t.Fatalf("row count = %d", count)
	}
}

func TestUpsertKeepsTypesSeparate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, "minor_news", "2026-09-01", "a", models.ReportSourceClaude); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Upsert(ctx, "into_crypto", "2026-09-01", "b", models.ReportSourceClaude); err != nil {
		t.Fatal(err)
	}

	row, err := svc.ByTypeAndDate(ctx, "into_crypto", "2026-09-01")
	if err != nil {
		t.Fatal(err)
	}
	if row.Content != "b" {
		t.Fatalf("content = %q", row.Content)
	}
}

func TestByTypeAndDateNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ByTypeAndDate(context.Background(), "minor_news", "2026-09-01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestLatestPicksNewestDate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, date := range []string{"2026-08-30", "2026-09-01", "2026-08-31"} {
		if _, err := svc.Upsert(ctx, "minor_news", date, "content "+date, models.ReportSourceClaude); err != nil {
			t.Fatal(err)
		}
	}

	row, err := svc.Latest(ctx, "minor_news")
	if err != nil {
		t.Fatal(err)
	}
	if row.Date != "2026-09-01" {
		t.Fatalf("latest date = %q", row.Date)
	}

	if _, err := svc.Latest(ctx, "into_crypto"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestExists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ok, err := svc.Exists(ctx, "minor_news", "2026-09-01")
	if err != nil || ok {
		t.Fatalf("ok = %v, err = %v", ok, err)
	}
	if _, err := svc.Upsert(ctx, "minor_news", "2026-09-01", "x", models.ReportSourceClaude); err != nil {
		t.Fatal(err)
	}
	ok, err = svc.Exists(ctx, "minor_news", "2026-09-01")
	if err != nil || !ok {
		t.Fatalf("ok = %v, err = %v", ok, err)
	}
}
