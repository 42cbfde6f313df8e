package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// NewsletterStore manages newsletter subscriptions. Every email passing
// through this store is folded to lowercase so lookups and the unique
// constraint behave case-insensitively.
type NewsletterStore struct {
	db *sql.DB
}

// NewNewsletterStore returns a new NewsletterStore.
func NewNewsletterStore(db *sql.DB) *NewsletterStore {
	return &NewsletterStore{db: db}
}

const subscriberColumns = `id, email, is_active, subscribed_at, unsubscribed_at, created_at, updated_at`

// scanSubscriber scans a row into a Subscriber struct.
func scanSubscriber(scanner interface{ Scan(...any) error }) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := scanner.Scan(
		&sub.ID, &sub.Email, &sub.IsActive, &sub.SubscribedAt,
		&sub.UnsubscribedAt, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByEmail retrieves a subscriber by email, case-insensitively.
// Returns nil if not found.
func (s *NewsletterStore) FindByEmail(email string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE email = $1
	`, strings.ToLower(email))
	sub, err := scanSubscriber(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscriber by email: %w", err)
	}
	return sub, nil
}

// Create inserts a new active subscription for the email.
func (s *NewsletterStore) Create(email string) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		INSERT INTO newsletter_subscribers (email, is_active)
		VALUES ($1, TRUE)
		RETURNING `+subscriberColumns,
		strings.ToLower(email),
	)
	sub, err := scanSubscriber(row)
	if err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	return sub, nil
}

// Reactivate turns a cancelled subscription back on, clearing the
// unsubscribed_at stamp.
func (s *NewsletterStore) Reactivate(id uuid.UUID) (*models.Subscriber, error) {
	row := s.db.QueryRow(`
		UPDATE newsletter_subscribers
		SET is_active = TRUE, unsubscribed_at = NULL, updated_at = NOW()
		WHERE id = $1
		RETURNING `+subscriberColumns,
		id,
	)
	sub, err := scanSubscriber(row)
	if err != nil {
		return nil, fmt.Errorf("reactivate subscriber: %w", err)
	}
	return sub, nil
}

// Deactivate cancels a subscription and stamps unsubscribed_at.
func (s *NewsletterStore) Deactivate(id uuid.UUID) error {
	_, err := s.db.Exec(`
		UPDATE newsletter_subscribers
		SET is_active = FALSE, unsubscribed_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("deactivate subscriber: %w", err)
	}
	return nil
}

// List returns a page of subscribers, newest subscription first. status
// narrows to "active" or "inactive"; anything else returns all rows.
func (s *NewsletterStore) List(status string, page, limit int) ([]models.Subscriber, int, error) {
	where := ``
	switch status {
	case "active":
		where = `WHERE is_active = TRUE`
	case "inactive":
		where = `WHERE is_active = FALSE`
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM newsletter_subscribers ` + where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subscribers: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := s.db.Query(`
		SELECT `+subscriberColumns+` FROM newsletter_subscribers `+where+`
		ORDER BY subscribed_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var items []models.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan subscriber: %w", err)
		}
		items = append(items, *sub)
	}
	return items, total, rows.Err()
}

// Stats returns the aggregate subscription counts in one query.
func (s *NewsletterStore) Stats() (*models.NewsletterStats, error) {
	stats := &models.NewsletterStats{LastUpdated: time.Now()}
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE NOT is_active),
		       COUNT(*) FILTER (WHERE subscribed_at >= NOW() - INTERVAL '30 days')
		FROM newsletter_subscribers
	`).Scan(
		&stats.TotalSubscribers,
		&stats.ActiveSubscribers,
		&stats.InactiveSubscribers,
		&stats.RecentSubscriptions,
	)
	if err != nil {
		return nil, fmt.Errorf("newsletter stats: %w", err)
	}
	return stats, nil
}
