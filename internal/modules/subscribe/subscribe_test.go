package subscribe

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/database"
	"github.com/starboard-analytics/news-core/internal/models"
)

type welcomeRecorder struct {
	calls []string // "feed:email"
	err   error
}

func (w *welcomeRecorder) SendLatest(_ context.Context, feedID, email, _ string) error {
	w.calls = append(w.calls, feedID+":"+email)
	return w.err
}

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func newTestService(t *testing.T) (*Service, *welcomeRecorder, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	rec := &welcomeRecorder{}
	return NewService(db, rec, zap.NewNop()), rec, db
}

func TestSubscribeCreates(t *testing.T) {
	svc, rec, db := newTestService(t)
	ctx := context.Background()

	res, err := svc.Subscribe(ctx, "Reader@Example.COM", []string{"minor_news"}, "acme")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Created {
		t.Fatal("expected a new subscription")
	}

	var row models.SubscriptionModel
	if err := db.Where("email = ?", "reader@example.com").First(&row).Error; err != nil {
		t.Fatalf("row not found under lowercased email: %v", err)
	}
	if row.Status != models.SubscriptionActive {
		t.Fatalf("status = %q", row.Status)
	}
	if row.UnsubscribeToken == "" {
		t.Fatal("unsubscribe token not assigned")
	}
	if row.PartnerSlug != "acme" {
		t.Fatalf("partner slug = %q", row.PartnerSlug)
	}
	if len(rec.calls) != 1 || rec.calls[0] != "minor_news:reader@example.com" {
		t.Fatalf("welcome calls = %v", rec.calls)
	}
}

func TestSubscribeMergesFeedsAndKeepsToken(t *testing.T) {
	svc, rec, db := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news"}, ""); err != nil {
		t.Fatal(err)
	}
	var before models.SubscriptionModel
	if err := db.Where("email = ?", "a@b.co").First(&before).Error; err != nil {
		t.Fatal(err)
	}

	res, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news", "into_crypto_en"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Created {
		t.Fatal("second subscribe must update, not create")
	}
	if len(res.Feeds) != 2 {
		t.Fatalf("feeds = %v", res.Feeds)
	}
	if len(res.NewFeeds) != 1 || res.NewFeeds[0] != "into_crypto_en" {
		t.Fatalf("new feeds = %v", res.NewFeeds)
	}

	var after models.SubscriptionModel
	if err := db.Where("email = ?", "a@b.co").First(&after).Error; err != nil {
		t.Fatal(err)
	}
	if after.UnsubscribeToken != before.UnsubscribeToken {
		t.Fatal("unsubscribe token must stay stable across re-subscribes")
	}
	// One welcome per feed the subscriber actually gained.
	if len(rec.calls) != 2 {
		t.Fatalf("welcome calls = %v", rec.calls)
	}

	var count int64
	db.Model(&models.SubscriptionModel{}).Count(&count)
	if count != 1 {
		t.Fatalf("row count = %d", count)
	}
}

func TestSubscribeReactivates(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news"}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Unsubscribe(ctx, "", "a@b.co"); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news"}, ""); err != nil {
		t.Fatal(err)
	}
	var row models.SubscriptionModel
	if err := db.Where("email = ?", "a@b.co").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.Status != models.SubscriptionActive {
		t.Fatalf("status after re-subscribe = %q", row.Status)
	}
}

func TestSubscribeDropsUnknownFeeds(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news", "not_a_feed"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 1 || res.Feeds[0] != "minor_news" {
		t.Fatalf("feeds = %v", res.Feeds)
	}
}

func TestSubscribeValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "not-an-email", []string{"minor_news"}, ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Subscribe(ctx, "a@b.co", nil, ""); !errors.Is(err, ErrNoFeeds) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"bogus"}, ""); !errors.Is(err, ErrInvalidFeeds) {
		t.Fatalf("err = %v", err)
	}
}

func TestSubscribePartnerSlugWrittenOnce(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news"}, "first"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"into_crypto_cn"}, "second"); err != nil {
		t.Fatal(err)
	}
	var row models.SubscriptionModel
	if err := db.Where("email = ?", "a@b.co").First(&row).Error; err != nil {
		t.Fatal(err)
	}
	if row.PartnerSlug != "first" {
		t.Fatalf("partner slug = %q, attribution must not be overwritten", row.PartnerSlug)
	}
}

func TestSubscribeWelcomeFailureIsNotFatal(t *testing.T) {
	svc, rec, _ := newTestService(t)
	rec.err = errors.New("smtp down")

	res, err := svc.Subscribe(context.Background(), "a@b.co", []string{"minor_news"}, "")
	if err != nil {
		t.Fatalf("welcome failure must not fail signup: %v", err)
	}
	if !res.Created {
		t.Fatal("expected creation")
	}
}

func TestUnsubscribeByToken(t *testing.T) {
	svc, _, db := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "a@b.co", []string{"minor_news"}, ""); err != nil {
		t.Fatal(err)
	}
	var row models.SubscriptionModel
	if err := db.Where("email = ?", "a@b.co").First(&row).Error; err != nil {
		t.Fatal(err)
	}

	got, err := svc.Unsubscribe(ctx, row.UnsubscribeToken, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "a@b.co" || got.Status != models.SubscriptionUnsubscribed {
		t.Fatalf("got %+v", got)
	}

	// Idempotent on repeat.
	if _, err := svc.Unsubscribe(ctx, row.UnsubscribeToken, ""); err != nil {
		t.Fatalf("second unsubscribe: %v", err)
	}
}

func TestUnsubscribeNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Unsubscribe(ctx, "no-such-token", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Unsubscribe(ctx, "", "ghost@b.co"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Unsubscribe(ctx, "", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestExport(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, email := range []string{"a@b.co", "b@b.co", "c@b.co"} {
		if _, err := svc.Subscribe(ctx, email, []string{"minor_news"}, ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Unsubscribe(ctx, "", "c@b.co"); err != nil {
		t.Fatal(err)
	}

	rows, total, err := svc.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("active rows = %d", len(rows))
	}
	if total != 3 {
		t.Fatalf("total = %d", total)
	}
}
