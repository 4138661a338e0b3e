// Package subscribe manages the subscriber lifecycle: signup, feed set
// merging, unsubscribe by token or address, and the admin export.
package subscribe

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/models"
	"github.com/starboard-analytics/news-core/internal/modules/newsletter"
	"github.com/starboard-analytics/news-core/internal/pkg/token"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidEmail = errors.New("请输入有效的邮箱地址")
	ErrNoFeeds      = errors.New("请至少选择一个订阅频道")
	ErrInvalidFeeds = errors.New("无效的订阅频道")
	ErrNotFound     = errors.New("subscription not found")
)

// WelcomeSender delivers the latest issue of a feed to a fresh subscriber;
// satisfied by *delivery.Service.
type WelcomeSender interface {
	SendLatest(ctx context.Context, feedID, email, unsubscribeToken string) error
}

// SubscribeResult reports the outcome of a subscribe call.
type SubscribeResult struct {
	Created bool
	Feeds   []string
	// NewFeeds are the feeds this call added, used for welcome sends.
	NewFeeds []string
}

// Service owns subscription persistence.
type Service struct {
	db      *gorm.DB
	welcome WelcomeSender
	logger  *zap.Logger
}

func NewService(db *gorm.DB, welcome WelcomeSender, logger *zap.Logger) *Service {
	return &Service{db: db, welcome: welcome, logger: logger.Named("SubscribeService")}
}

// Subscribe registers or updates a subscription. Unknown feed ids are
// silently dropped; the address is lowercased before lookup. An existing
// subscription gets the union of its current and requested feeds, is
// reactivated if previously unsubscribed, and keeps its unsubscribe token so
// old email footer links stay valid. Welcome sends for newly added feeds run
// synchronously and best-effort.
func (s *Service) Subscribe(ctx context.Context, email string, feeds []string, partnerSlug string) (*SubscribeResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailRe.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(feeds) == 0 {
		return nil, ErrNoFeeds
	}

	valid := make([]string, 0, len(feeds))
	for _, f := range feeds {
		if newsletter.IsValid(f) {
			valid = append(valid, f)
		}
	}
	if len(valid) == 0 {
		return nil, ErrInvalidFeeds
	}

	var existing models.SubscriptionModel
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return s.update(ctx, &existing, valid, partnerSlug)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.create(ctx, email, valid, partnerSlug)
	default:
		return nil, fmt.Errorf("subscription lookup: %w", err)
	}
}

func (s *Service) create(ctx context.Context, email string, feeds []string, partnerSlug string) (*SubscribeResult, error) {
	row := models.SubscriptionModel{
		Email:            email,
		Feeds:            models.StringArray(feeds),
		Status:           models.SubscriptionActive,
		UnsubscribeToken: token.New(),
		PartnerSlug:      partnerSlug,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("subscription create: %w", err)
	}

	s.sendWelcomes(ctx, email, row.UnsubscribeToken, feeds)

	return &SubscribeResult{Created: true, Feeds: feeds, NewFeeds: feeds}, nil
}

func (s *Service) update(ctx context.Context, existing *models.SubscriptionModel, feeds []string, partnerSlug string) (*SubscribeResult, error) {
	merged := append([]string{}, existing.Feeds...)
	var added []string
	for _, f := range feeds {
		if !existing.Feeds.Contains(f) {
			merged = append(merged, f)
			added = append(added, f)
		}
	}

	updates := map[string]interface{}{
		"feeds":  models.StringArray(merged),
		"status": models.SubscriptionActive,
	}
	// The attribution slug is written once and never overwritten.
	if partnerSlug != "" && existing.PartnerSlug == "" {
		updates["partner_slug"] = partnerSlug
	}
	err := s.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("id = ?", existing.ID).
		Updates(updates).Error
	if err != nil {
		return nil, fmt.Errorf("subscription update: %w", err)
	}

	s.sendWelcomes(ctx, existing.Email, existing.UnsubscribeToken, added)

	return &SubscribeResult{Created: false, Feeds: merged, NewFeeds: added}, nil
}

// sendWelcomes pushes the latest issue of each newly added feed. Failures
// only get logged; signup never fails because a welcome mail did.
func (s *Service) sendWelcomes(ctx context.Context, email, unsubscribeToken string, feeds []string) {
	if s.welcome == nil {
		return
	}
	for _, f := range feeds {
		if err := s.welcome.SendLatest(ctx, f, email, unsubscribeToken); err != nil {
			s.logger.Warn("welcome send failed",
				zap.String("feed", f),
				zap.String("email", email),
				zap.Error(err))
		}
	}
}

// Unsubscribe flips a subscription to unsubscribed, located by token or, when
// the token is empty, by address. Repeat calls are idempotent; the row and
// its token are retained so the subscriber can come back.
func (s *Service) Unsubscribe(ctx context.Context, unsubscribeToken, email string) (*models.SubscriptionModel, error) {
	q := s.db.WithContext(ctx)
	if unsubscribeToken != "" {
		q = q.Where("unsubscribe_token = ?", unsubscribeToken)
	} else if email != "" {
		q = q.Where("email = ?", strings.ToLower(strings.TrimSpace(email)))
	} else {
		return nil, ErrNotFound
	}

	var row models.SubscriptionModel
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("subscription lookup: %w", err)
	}

	if row.Status != models.SubscriptionUnsubscribed {
		err := s.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
			Where("id = ?", row.ID).
			Update("status", models.SubscriptionUnsubscribed).Error
		if err != nil {
			return nil, fmt.Errorf("subscription update: %w", err)
		}
		row.Status = models.SubscriptionUnsubscribed
	}
	return &row, nil
}

// Export returns every active subscription in signup order plus the overall
// row count, for the admin export endpoint.
func (s *Service) Export(ctx context.Context) ([]models.SubscriptionModel, int64, error) {
	var rows []models.SubscriptionModel
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SubscriptionActive).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("subscription export: %w", err)
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.SubscriptionModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("subscription count: %w", err)
	}
	return rows, total, nil
}
