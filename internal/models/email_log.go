package models

// Email delivery outcomes.
const (
	EmailLogSent   = "sent"
	EmailLogFailed = "failed"
)

// EmailLogModel is the idempotency ledger for batch sends: one row per send
// attempt of (email, feed, report_date). Only rows with status "sent"
// exclude a subscriber from later runs, so failed sends are retried.
type EmailLogModel struct {
	Base
	SubscriptionID string `json:"subscription_id" gorm:"type:char(36);index"`
	Email          string `json:"email"           gorm:"size:320;not null;index:idx_email_logs_ledger"`
	Feed           string `json:"feed"            gorm:"size:64;not null;index:idx_email_logs_ledger"`
	ReportDate     string `json:"report_date"     gorm:"size:10;not null;index:idx_email_logs_ledger"`
	Status         string `json:"status"          gorm:"size:20;not null"`
	Error          string `json:"error,omitempty" gorm:"type:text"`
}

func (EmailLogModel) TableName() string { return "email_logs" }
