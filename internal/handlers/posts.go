package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/blocks"
	"inkwell/internal/cache"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

// Posts groups the post endpoints. Create and update orchestrate slug
// resolution, content-block validation and the counter-consistent write.
type Posts struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	responses  *cache.ResponseCache
}

func NewPosts(posts *store.PostStore, categories *store.CategoryStore, tags *store.TagStore, responses *cache.ResponseCache) *Posts {
	return &Posts{posts: posts, categories: categories, tags: tags, responses: responses}
}

// List handles GET /api/posts.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := parsePagination(r, defaultLimit)

	opts := store.PostListOptions{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: q.Get("sortOrder"),
		Page:      page,
		Limit:     limit,
	}
	if status := q.Get("status"); status != "" && status != "all" {
		opts.Status = status
	}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid categoryId")
			return
		}
		opts.CategoryID = &id
	}
	if raw := q.Get("featured"); raw != "" {
		featured := raw == "true"
		opts.Featured = &featured
	}

	items, total, err := h.posts.List(opts)
	if err != nil {
		respondInternal(w, "list posts", err)
		return
	}
	respondList(w, items, total, page, limit)
}

// Get handles GET /api/posts/{id}. Published posts count the visit.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	h.countView(post)
	respondData(w, http.StatusOK, post)
}

// GetBySlug handles GET /api/posts/slug/{slug}.
func (h *Posts) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	post, err := h.posts.FindBySlug(slug)
	if err != nil {
		respondInternal(w, "find post by slug", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	h.countView(post)
	respondData(w, http.StatusOK, post)
}

// countView bumps the view counter for published posts and reflects the
// new value on the response. A failed bump only logs; the read succeeds.
func (h *Posts) countView(post *models.Post) {
	if !post.IsPublished() {
		return
	}
	views, err := h.posts.IncrementViews(post.ID)
	if err != nil {
		slog.Warn("increment views failed", "post", post.ID, "error", err)
		return
	}
	post.Views = views
}

// ListByTag handles GET /api/posts/tag/{tagID}.
func (h *Posts) ListByTag(w http.ResponseWriter, r *http.Request) {
	tagID, ok := parseID(w, r, "tagID")
	if !ok {
		return
	}

	tag, err := h.tags.FindByID(tagID)
	if err != nil {
		respondInternal(w, "find tag", err)
		return
	}
	if tag == nil {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}

	page, limit := parsePagination(r, defaultLimit)
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(models.PostStatusPublished)
	}

	posts, total, err := h.posts.ListByTag(tagID, status, page, limit)
	if err != nil {
		respondInternal(w, "list tag posts", err)
		return
	}
	respondList(w, posts, total, page, limit)
}

// Create handles POST /api/posts.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	var req postPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, "Post title is required")
		return
	}

	validated, err := blocks.Validate(req.ContentBlocks)
	if err != nil {
		respondBlockError(w, err)
		return
	}

	category, err := h.categories.FindByID(req.CategoryID)
	if err != nil {
		respondInternal(w, "find category", err)
		return
	}
	if category == nil {
		respondError(w, http.StatusBadRequest, "Category not found")
		return
	}

	if h.checkTagIDs(w, req.TagIDs) {
		return
	}

	slug, err := h.posts.ResolveSlug(title, uuid.Nil)
	if err != nil {
		respondInternal(w, "resolve post slug", err)
		return
	}

	status := models.PostStatus(req.Status)
	if req.Status == "" {
		status = models.PostStatusDraft
	}

	post := &models.Post{
		Title:         title,
		Slug:          slug,
		Excerpt:       strings.TrimSpace(req.Excerpt),
		ContentBlocks: validated,
		Status:        status,
		Image:         trimmedOrNil(req.Image),
		AuthorID:      middleware.UserIDFromCtx(r.Context()),
		CategoryID:    req.CategoryID,
	}
	if req.Featured != nil {
		post.Featured = *req.Featured
	}
	if status == models.PostStatusPublished {
		now := time.Now()
		post.PublishedAt = &now
	}

	id, err := h.posts.Create(post, req.TagIDs)
	if err != nil {
		respondInternal(w, "create post", err)
		return
	}

	if len(req.TagIDs) > 0 {
		h.responses.Invalidate(r.Context(), cache.PopularTagsKey)
	}

	created, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find created post", err)
		return
	}
	respondMessage(w, http.StatusCreated, "Post created", created)
}

// Update handles PUT /api/posts/{id}.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	var req postPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, "Post title is required")
		return
	}

	validated, err := blocks.Validate(req.ContentBlocks)
	if err != nil {
		respondBlockError(w, err)
		return
	}

	category, err := h.categories.FindByID(req.CategoryID)
	if err != nil {
		respondInternal(w, "find category", err)
		return
	}
	if category == nil {
		respondError(w, http.StatusBadRequest, "Category not found")
		return
	}

	if h.checkTagIDs(w, req.TagIDs) {
		return
	}

	// Regenerate the slug only when the title actually changed.
	if title != post.Title {
		slug, err := h.posts.ResolveSlug(title, id)
		if err != nil {
			respondInternal(w, "resolve post slug", err)
			return
		}
		post.Slug = slug
	}

	status := models.PostStatus(req.Status)
	if req.Status == "" {
		status = post.Status
	}
	applyStatus(post, status)

	prevCategoryID := post.CategoryID
	post.Title = title
	post.Excerpt = strings.TrimSpace(req.Excerpt)
	post.ContentBlocks = validated
	post.Image = trimmedOrNil(req.Image)
	post.CategoryID = req.CategoryID
	if req.Featured != nil {
		post.Featured = *req.Featured
	}

	if err := h.posts.Update(post, prevCategoryID, req.TagIDs); err != nil {
		respondInternal(w, "update post", err)
		return
	}
	if req.TagIDs != nil {
		h.responses.Invalidate(r.Context(), cache.PopularTagsKey)
	}

	updated, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find updated post", err)
		return
	}
	respondMessage(w, http.StatusOK, "Post updated", updated)
}

// Delete handles DELETE /api/posts/{id}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	if err := h.posts.Delete(id, post.CategoryID); err != nil {
		respondInternal(w, "delete post", err)
		return
	}
	h.responses.Invalidate(r.Context(), cache.PopularTagsKey)
	respondMessage(w, http.StatusOK, "Post deleted", nil)
}

// UpdateStatus handles PUT /api/posts/{id}/status.
func (h *Posts) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req statusPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	applyStatus(post, models.PostStatus(req.Status))

	if err := h.posts.UpdateStatus(id, post.CategoryID, post.Status, post.PublishedAt); err != nil {
		respondInternal(w, "update post status", err)
		return
	}
	respondMessage(w, http.StatusOK, "Post status updated", map[string]any{
		"status":      post.Status,
		"publishedAt": post.PublishedAt,
	})
}

// UpdateFeatured handles PUT /api/posts/{id}/featured.
func (h *Posts) UpdateFeatured(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	var req featuredPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	if err := h.posts.SetFeatured(id, *req.Featured); err != nil {
		respondInternal(w, "set post featured", err)
		return
	}
	respondMessage(w, http.StatusOK, "Post featured flag updated", map[string]any{
		"featured": *req.Featured,
	})
}

// IncrementViews handles PATCH /api/posts/{id}/views.
func (h *Posts) IncrementViews(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	post, err := h.posts.FindByID(id)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	views, err := h.posts.IncrementViews(id)
	if err != nil {
		respondInternal(w, "increment views", err)
		return
	}
	respondMessage(w, http.StatusOK, "Views incremented", map[string]any{"views": views})
}

// applyStatus moves the post to the given status, stamping publishedAt on
// the transition into published and clearing it on any other target.
func applyStatus(post *models.Post, status models.PostStatus) {
	if status == models.PostStatusPublished {
		if post.Status != models.PostStatusPublished {
			now := time.Now()
			post.PublishedAt = &now
		}
	} else {
		post.PublishedAt = nil
	}
	post.Status = status
}

// checkTagIDs verifies every supplied tag exists, replying 400 on the
// first unknown one. Returns true if a response was written.
func (h *Posts) checkTagIDs(w http.ResponseWriter, tagIDs []uuid.UUID) bool {
	for _, tagID := range tagIDs {
		tag, err := h.tags.FindByID(tagID)
		if err != nil {
			respondInternal(w, "find tag", err)
			return true
		}
		if tag == nil {
			respondError(w, http.StatusBadRequest, "Tag not found: "+tagID.String())
			return true
		}
	}
	return false
}

// respondBlockError maps validation failures from the block validator to 400.
func respondBlockError(w http.ResponseWriter, err error) {
	var verr *blocks.ValidationError
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
