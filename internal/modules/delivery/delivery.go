// Package delivery sends rendered reports to subscribers. The batch path is
// idempotent per (email, feed, report date) through the email_logs ledger.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/starboard-analytics/news-core/internal/models"
	"github.com/starboard-analytics/news-core/internal/modules/newsletter"
	"github.com/starboard-analytics/news-core/internal/modules/render"
	"github.com/starboard-analytics/news-core/internal/modules/report"
	"github.com/starboard-analytics/news-core/internal/pkg/mail"
	"github.com/starboard-analytics/news-core/internal/pkg/token"
)

// ErrNoReport signals that no report exists for the requested feed and date.
var ErrNoReport = errors.New("no report for feed and date")

// MailSender is the outbound transport; satisfied by *mail.Sender.
type MailSender interface {
	Send(msg mail.Message) error
}

// BatchResult aggregates one batch run.
type BatchResult struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Service delivers newsletters.
type Service struct {
	db      *gorm.DB
	reports *report.Service
	sender  MailSender
	siteURL string
	logger  *zap.Logger
}

func NewService(db *gorm.DB, reports *report.Service, sender MailSender, siteURL string, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		reports: reports,
		sender:  sender,
		siteURL: siteURL,
		logger:  logger.Named("DeliveryService"),
	}
}

// SendBatch delivers the (feedID, date) report to every active subscriber of
// the feed that the ledger does not already list as sent. Each subscriber is
// attempted independently: failures are logged to the ledger with the error
// text and counted, never aborting the run, and stay eligible for the next
// one. The ledger read and write are not atomic, so concurrent runs for the
// same (feed, date) can double-send; acceptable at this scale.
func (s *Service) SendBatch(ctx context.Context, feedID, date string) (BatchResult, error) {
	var result BatchResult

	n, ok := newsletter.Get(feedID)
	if !ok {
		return result, fmt.Errorf("unknown feed: %s", feedID)
	}

	row, err := s.reports.ByTypeAndDate(ctx, n.ReportType, date)
	if errors.Is(err, report.ErrNotFound) {
		return result, ErrNoReport
	}
	if err != nil {
		return result, fmt.Errorf("report lookup: %w", err)
	}

	subscribers, err := s.activeSubscribers(ctx, feedID)
	if err != nil {
		return result, err
	}
	if len(subscribers) == 0 {
		return result, nil
	}

	alreadySent, err := s.sentEmails(ctx, feedID, date)
	if err != nil {
		return result, err
	}

	for _, sub := range subscribers {
		if alreadySent[sub.Email] {
			result.Skipped++
			continue
		}

		sendErr := s.sendReport(n, row, sub.Email, sub.UnsubscribeToken)

		logRow := models.EmailLogModel{
			SubscriptionID: sub.ID,
			Email:          sub.Email,
			Feed:           feedID,
			ReportDate:     date,
			Status:         models.EmailLogSent,
		}
		if sendErr != nil {
			result.Failed++
			logRow.Status = models.EmailLogFailed
			logRow.Error = sendErr.Error()
			s.logger.Warn("send failed",
				zap.String("feed", feedID),
				zap.String("email", sub.Email),
				zap.Error(sendErr))
		} else {
			result.Sent++
			s.logger.Info("sent",
				zap.String("feed", feedID),
				zap.String("email", sub.Email))
		}
		if err := s.db.WithContext(ctx).Create(&logRow).Error; err != nil {
			s.logger.Error("email log write failed",
				zap.String("feed", feedID),
				zap.String("email", sub.Email),
				zap.Error(err))
		}
	}

	return result, nil
}

// SendLatest delivers the most recent report of a feed to a single address.
// Used for welcome sends on subscribe; it does not write the ledger, so the
// regular batch still covers the subscriber for the current day.
func (s *Service) SendLatest(ctx context.Context, feedID, email, unsubscribeToken string) error {
	n, ok := newsletter.Get(feedID)
	if !ok {
		return fmt.Errorf("unknown feed: %s", feedID)
	}
	row, err := s.reports.Latest(ctx, n.ReportType)
	if errors.Is(err, report.ErrNotFound) {
		return ErrNoReport
	}
	if err != nil {
		return fmt.Errorf("report lookup: %w", err)
	}
	return s.sendReport(n, row, email, unsubscribeToken)
}

// SendDaily runs the scheduled delivery pass across every feed for the given
// date. Feeds without a report are marked "no_report"; per-feed errors are
// recorded without aborting the loop.
func (s *Service) SendDaily(ctx context.Context, date string) map[string]interface{} {
	feeds := newsletter.ValidFeedIDs()
	results := make(map[string]interface{}, len(feeds))
	for _, feedID := range feeds {
		res, err := s.SendBatch(ctx, feedID, date)
		switch {
		case errors.Is(err, ErrNoReport):
			results[feedID] = "no_report"
		case err != nil:
			s.logger.Error("batch send failed", zap.String("feed", feedID), zap.Error(err))
			results[feedID] = fmt.Sprintf("error: %v", err)
		default:
			results[feedID] = res
		}
	}
	return results
}

func (s *Service) sendReport(n newsletter.Newsletter, row *models.ReportModel, email, unsubscribeToken string) error {
	html, err := render.BuildEmailHTML(render.EmailOptions{
		Title:          n.Name,
		Emoji:          n.Emoji,
		Date:           row.Date,
		Content:        row.Content,
		UnsubscribeURL: token.UnsubscribeURL(s.siteURL, unsubscribeToken),
		Brand:          &render.BrandConfig{AccentColor: n.AccentColor},
	})
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	return s.sender.Send(mail.Message{
		To:      []string{email},
		Subject: fmt.Sprintf("%s %s | %s", n.Emoji, n.Name, row.Date),
		HTML:    html,
	})
}

// activeSubscribers returns active subscriptions whose feed set contains the
// feed. Membership is filtered here rather than in SQL so the JSON-backed
// feed column stays portable across dialects.
func (s *Service) activeSubscribers(ctx context.Context, feedID string) ([]models.SubscriptionModel, error) {
	var rows []models.SubscriptionModel
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SubscriptionActive).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("subscriber lookup: %w", err)
	}
	out := rows[:0]
	for _, sub := range rows {
		if sub.Feeds.Contains(feedID) {
			out = append(out, sub)
		}
	}
	return out, nil
}

// sentEmails returns the addresses already logged as sent for (feed, date).
// Failed rows are intentionally not included so they retry.
func (s *Service) sentEmails(ctx context.Context, feedID, date string) (map[string]bool, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&models.EmailLogModel{}).
		Where("feed = ? AND report_date = ? AND status = ?", feedID, date, models.EmailLogSent).
		Pluck("email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("email log lookup: %w", err)
	}
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[e] = true
	}
	return set, nil
}
