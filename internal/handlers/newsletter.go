package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

const subscribersDefaultLimit = 50

// Newsletter groups the subscription endpoints. Emails are case-folded
// before every lookup and write.
type Newsletter struct {
	subscribers *store.NewsletterStore
	responses   *cache.ResponseCache
}

func NewNewsletter(subscribers *store.NewsletterStore, responses *cache.ResponseCache) *Newsletter {
	return &Newsletter{subscribers: subscribers, responses: responses}
}

// Subscribe handles POST /api/newsletter/subscribe. A cancelled
// subscription for the same email is reactivated in place.
func (h *Newsletter) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req emailPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.subscribers.FindByEmail(email)
	if err != nil {
		respondInternal(w, "find subscriber", err)
		return
	}

	if existing != nil {
		if existing.IsActive {
			respondError(w, http.StatusConflict, "This email is already subscribed")
			return
		}

		reactivated, err := h.subscribers.Reactivate(existing.ID)
		if err != nil {
			respondInternal(w, "reactivate subscriber", err)
			return
		}
		h.responses.Invalidate(r.Context(), cache.NewsletterStatsKey)
		respondMessage(w, http.StatusOK, "Subscription reactivated", subscriberView(reactivated))
		return
	}

	subscriber, err := h.subscribers.Create(email)
	if err != nil {
		respondInternal(w, "create subscriber", err)
		return
	}
	h.responses.Invalidate(r.Context(), cache.NewsletterStatsKey)
	respondMessage(w, http.StatusCreated, "Subscribed to the newsletter", subscriberView(subscriber))
}

// Unsubscribe handles POST /api/newsletter/unsubscribe.
func (h *Newsletter) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req emailPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	subscriber, err := h.subscribers.FindByEmail(email)
	if err != nil {
		respondInternal(w, "find subscriber", err)
		return
	}
	if subscriber == nil {
		respondError(w, http.StatusNotFound, "Email is not subscribed")
		return
	}
	if !subscriber.IsActive {
		respondError(w, http.StatusConflict, "This subscription is already cancelled")
		return
	}

	if err := h.subscribers.Deactivate(subscriber.ID); err != nil {
		respondInternal(w, "deactivate subscriber", err)
		return
	}
	h.responses.Invalidate(r.Context(), cache.NewsletterStatsKey)
	respondMessage(w, http.StatusOK, "Subscription cancelled", nil)
}

// Check handles GET /api/newsletter/check/{email}.
func (h *Newsletter) Check(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "email")))
	if email == "" {
		respondError(w, http.StatusBadRequest, "Email is required")
		return
	}

	subscriber, err := h.subscribers.FindByEmail(email)
	if err != nil {
		respondInternal(w, "find subscriber", err)
		return
	}
	if subscriber == nil {
		respondData(w, http.StatusOK, map[string]any{"isSubscribed": false})
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"isSubscribed":   subscriber.IsActive,
		"email":          subscriber.Email,
		"subscribedAt":   subscriber.SubscribedAt,
		"unsubscribedAt": subscriber.UnsubscribedAt,
	})
}

// Subscribers handles GET /api/newsletter/subscribers.
func (h *Newsletter) Subscribers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, subscribersDefaultLimit)
	status := r.URL.Query().Get("status")
	if status == "" {
		status = "all"
	}

	items, total, err := h.subscribers.List(status, page, limit)
	if err != nil {
		respondInternal(w, "list subscribers", err)
		return
	}
	respondList(w, items, total, page, limit)
}

// Stats handles GET /api/newsletter/stats, served from the response
// cache when fresh.
func (h *Newsletter) Stats(w http.ResponseWriter, r *http.Request) {
	var cached models.NewsletterStats
	if h.responses.Get(r.Context(), cache.NewsletterStatsKey, &cached) {
		respondData(w, http.StatusOK, cached)
		return
	}

	stats, err := h.subscribers.Stats()
	if err != nil {
		respondInternal(w, "newsletter stats", err)
		return
	}
	h.responses.Set(r.Context(), cache.NewsletterStatsKey, stats)
	respondData(w, http.StatusOK, stats)
}

// subscriberView is the public projection of a subscriber row.
func subscriberView(s *models.Subscriber) map[string]any {
	return map[string]any{
		"id":           s.ID,
		"email":        s.Email,
		"subscribedAt": s.SubscribedAt,
	}
}
