package store

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewsletterSubscribeFoldsCase(t *testing.T) {
	db := testDB(t)
	store := NewNewsletterStore(db)

	email := "Reader." + uuid.NewString()[:8] + "@Example.COM"
	t.Cleanup(func() { cleanSubscribers(t, db, strings.ToLower(email)) })

	sub, err := store.Create(email)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sub.Email != strings.ToLower(email) {
		t.Errorf("stored email = %q, want lowercase", sub.Email)
	}
	if !sub.IsActive {
		t.Error("new subscriber not active")
	}

	// Lookups with any casing hit the same row.
	found, err := store.FindByEmail(email)
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found == nil || found.ID != sub.ID {
		t.Fatal("mixed-case lookup missed the subscriber")
	}
}

func TestNewsletterUnsubscribeAndReactivate(t *testing.T) {
	db := testDB(t)
	store := NewNewsletterStore(db)

	email := "cycle." + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	sub, err := store.Create(email)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Deactivate(sub.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	off, _ := store.FindByEmail(email)
	if off.IsActive {
		t.Fatal("subscriber still active after deactivate")
	}
	if off.UnsubscribedAt == nil {
		t.Fatal("unsubscribed_at not stamped")
	}

	back, err := store.Reactivate(sub.ID)
	if err != nil {
		t.Fatalf("Reactivate: %v", err)
	}
	if back.ID != sub.ID {
		t.Error("reactivation created a new row")
	}
	if !back.IsActive {
		t.Error("subscriber not active after reactivate")
	}
	if back.UnsubscribedAt != nil {
		t.Error("unsubscribed_at not cleared on reactivate")
	}
}

func TestNewsletterListByStatus(t *testing.T) {
	db := testDB(t)
	store := NewNewsletterStore(db)

	active := "on." + uuid.NewString()[:8] + "@example.com"
	inactive := "off." + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, db, active, inactive) })

	if _, err := store.Create(active); err != nil {
		t.Fatalf("Create active: %v", err)
	}
	sub, err := store.Create(inactive)
	if err != nil {
		t.Fatalf("Create inactive: %v", err)
	}
	if err := store.Deactivate(sub.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	contains := func(status, email string) bool {
		page := 1
		for {
			items, total, err := store.List(status, page, 50)
			if err != nil {
				t.Fatalf("List %s: %v", status, err)
			}
			for _, s := range items {
				if s.Email == email {
					return true
				}
			}
			if page*50 >= total {
				return false
			}
			page++
		}
	}

	if !contains("active", active) {
		t.Error("active subscriber missing from active list")
	}
	if contains("active", inactive) {
		t.Error("inactive subscriber present in active list")
	}
	if !contains("inactive", inactive) {
		t.Error("inactive subscriber missing from inactive list")
	}
	if !contains("all", active) || !contains("all", inactive) {
		t.Error("all list missing subscribers")
	}
}

func TestNewsletterStats(t *testing.T) {
	db := testDB(t)
	store := NewNewsletterStore(db)

	email := "stats." + uuid.NewString()[:8] + "@example.com"
	t.Cleanup(func() { cleanSubscribers(t, db, email) })

	before, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if _, err := store.Create(email); err != nil {
		t.Fatalf("Create: %v", err)
	}

	after, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if after.TotalSubscribers != before.TotalSubscribers+1 {
		t.Errorf("totalSubscribers = %d, want %d", after.TotalSubscribers, before.TotalSubscribers+1)
	}
	if after.ActiveSubscribers != before.ActiveSubscribers+1 {
		t.Errorf("activeSubscribers = %d, want %d", after.ActiveSubscribers, before.ActiveSubscribers+1)
	}
	if after.RecentSubscriptions != before.RecentSubscriptions+1 {
		t.Errorf("recent = %d, want %d", after.RecentSubscriptions, before.RecentSubscriptions+1)
	}
}
