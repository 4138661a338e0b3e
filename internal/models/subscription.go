package models

// Subscription statuses. Rows are never hard-deleted; unsubscribing flips
// the status and a later subscribe reactivates the same row.
const (
	SubscriptionActive       = "active"
	SubscriptionUnsubscribed = "unsubscribed"
)

// SubscriptionModel is one email address and the set of feeds it receives.
type SubscriptionModel struct {
	Base
	Email            string      `json:"email"             gorm:"uniqueIndex;size:320;not null"`
	Feeds            StringArray `json:"feeds"             gorm:"type:text"`
	Status           string      `json:"status"            gorm:"size:20;default:active;index"`
	UnsubscribeToken string      `json:"unsubscribe_token" gorm:"uniqueIndex;size:64"`
	PartnerSlug      string      `json:"partner_slug"      gorm:"size:100"`
}

func (SubscriptionModel) TableName() string { return "subscriptions" }
