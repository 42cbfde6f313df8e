package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber is a newsletter subscription. Emails are case-folded to
// lowercase before any lookup or write, so the unique constraint is
// effectively case-insensitive. UnsubscribedAt is cleared when a cancelled
// subscription is reactivated.
type Subscriber struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	IsActive       bool       `json:"isActive"`
	SubscribedAt   time.Time  `json:"subscribedAt"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewsletterStats is the aggregate snapshot returned by the stats endpoint.
type NewsletterStats struct {
	TotalSubscribers    int       `json:"totalSubscribers"`
	ActiveSubscribers   int       `json:"activeSubscribers"`
	InactiveSubscribers int       `json:"inactiveSubscribers"`
	RecentSubscriptions int       `json:"recentSubscriptions"` // last 30 days
	LastUpdated         time.Time `json:"lastUpdated"`
}
