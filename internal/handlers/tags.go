package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

// Tags groups the tag endpoints, including post association management.
type Tags struct {
	tags      *store.TagStore
	posts     *store.PostStore
	responses *cache.ResponseCache
}

func NewTags(tags *store.TagStore, posts *store.PostStore, responses *cache.ResponseCache) *Tags {
	return &Tags{tags: tags, posts: posts, responses: responses}
}

// List handles GET /api/tags.
func (h *Tags) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultLimit)
	q := r.URL.Query()

	items, total, err := h.tags.List(q.Get("search"), q.Get("sort"), page, limit)
	if err != nil {
		respondInternal(w, "list tags", err)
		return
	}
	respondList(w, items, total, page, limit)
}

// Popular handles GET /api/tags/popular. Results are served from the
// response cache when fresh.
func (h *Tags) Popular(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 10
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= maxLimit {
		limit = v
	}
	minPosts := 1
	if v, err := strconv.Atoi(q.Get("minPosts")); err == nil && v >= 0 {
		minPosts = v
	}

	// Only the default query is cached; parameterized lookups go to the DB.
	cacheable := limit == 10 && minPosts == 1
	if cacheable {
		var cached []models.Tag
		if h.responses.Get(r.Context(), cache.PopularTagsKey, &cached) {
			respondData(w, http.StatusOK, cached)
			return
		}
	}

	tags, err := h.tags.Popular(limit, minPosts)
	if err != nil {
		respondInternal(w, "list popular tags", err)
		return
	}
	if cacheable {
		h.responses.Set(r.Context(), cache.PopularTagsKey, tags)
	}
	respondData(w, http.StatusOK, tags)
}

// Get handles GET /api/tags/{id}.
func (h *Tags) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	tag, err := h.tags.FindByID(id)
	if err != nil {
		respondInternal(w, "find tag", err)
		return
	}
	if tag == nil {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}
	respondData(w, http.StatusOK, tag)
}

// GetBySlug handles GET /api/tags/slug/{slug}.
func (h *Tags) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	tag, err := h.tags.FindBySlug(slug)
	if err != nil {
		respondInternal(w, "find tag by slug", err)
		return
	}
	if tag == nil {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}
	respondData(w, http.StatusOK, tag)
}

// Create handles POST /api/tags.
func (h *Tags) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Tag name is required")
		return
	}

	exists, err := h.tags.NameExists(name, uuid.Nil)
	if err != nil {
		respondInternal(w, "check tag name", err)
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "A tag with this name already exists")
		return
	}

	slug, err := h.tags.ResolveSlug(name, uuid.Nil)
	if err != nil {
		respondInternal(w, "resolve tag slug", err)
		return
	}

	color := req.Color
	if color == "" {
		color = models.DefaultColor
	}

	tag, err := h.tags.Create(&models.Tag{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		Color:       color,
	})
	if err != nil {
		respondInternal(w, "create tag", err)
		return
	}
	respondMessage(w, http.StatusCreated, "Tag created", tag)
}

// Update handles PUT /api/tags/{id}.
func (h *Tags) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	tag, err := h.tags.FindByID(id)
	if err != nil {
		respondInternal(w, "find tag", err)
		return
	}
	if tag == nil {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}

	var req categoryPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Tag name is required")
		return
	}

	exists, err := h.tags.NameExists(name, id)
	if err != nil {
		respondInternal(w, "check tag name", err)
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "A tag with this name already exists")
		return
	}

	if name != tag.Name {
		slug, err := h.tags.ResolveSlug(name, id)
		if err != nil {
			respondInternal(w, "resolve tag slug", err)
			return
		}
		tag.Slug = slug
	}

	tag.Name = name
	tag.Description = strings.TrimSpace(req.Description)
	if req.Color != "" {
		tag.Color = req.Color
	}

	if err := h.tags.Update(tag); err != nil {
		respondInternal(w, "update tag", err)
		return
	}
	respondMessage(w, http.StatusOK, "Tag updated", tag)
}

// Delete handles DELETE /api/tags/{id}. The guard reads a live
// association count, not the stored posts_count.
func (h *Tags) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	tag, err := h.tags.FindByID(id)
	if err != nil {
		respondInternal(w, "find tag", err)
		return
	}
	if tag == nil {
		respondError(w, http.StatusNotFound, "Tag not found")
		return
	}

	count, err := h.tags.CountAssociations(id)
	if err != nil {
		respondInternal(w, "count tag associations", err)
		return
	}
	if count > 0 {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot delete tag: %d post(s) still reference it", count))
		return
	}

	if err := h.tags.Delete(id); err != nil {
		respondInternal(w, "delete tag", err)
		return
	}
	h.responses.Invalidate(r.Context(), cache.PopularTagsKey)
	respondMessage(w, http.StatusOK, "Tag deleted", nil)
}

// Posts handles GET /api/tags/{id}/posts.
func (h *Tags) Posts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	tag, err := h.tags.FindByID(id)
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

	posts, total, err := h.posts.ListByTag(id, status, page, limit)
	if err != nil {
		respondInternal(w, "list tag posts", err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: map[string]any{
			"tag":   tag,
			"posts": posts,
		},
		Pagination: newPagination(total, page, limit),
	})
}

// Associate handles POST /api/tags/{id}/posts/{postID}.
func (h *Tags) Associate(w http.ResponseWriter, r *http.Request) {
	tagID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	postID, ok := parseID(w, r, "postID")
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

	post, err := h.posts.FindByID(postID)
	if err != nil {
		respondInternal(w, "find post", err)
		return
	}
	if post == nil {
		respondError(w, http.StatusNotFound, "Post not found")
		return
	}

	exists, err := h.tags.AssociationExists(postID, tagID)
	if err != nil {
		respondInternal(w, "check tag association", err)
		return
	}
	if exists {
		respondError(w, http.StatusConflict, "Tag is already associated with this post")
		return
	}

	if err := h.tags.Associate(postID, tagID); err != nil {
		respondInternal(w, "associate tag", err)
		return
	}
	h.responses.Invalidate(r.Context(), cache.PopularTagsKey)
	respondMessage(w, http.StatusCreated, "Tag associated with post", nil)
}

// Disassociate handles DELETE /api/tags/{id}/posts/{postID}.
func (h *Tags) Disassociate(w http.ResponseWriter, r *http.Request) {
	tagID, ok := parseID(w, r, "id")
	if !ok {
		return
	}
	postID, ok := parseID(w, r, "postID")
	if !ok {
		return
	}

	removed, err := h.tags.Disassociate(postID, tagID)
	if err != nil {
		respondInternal(w, "disassociate tag", err)
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "Tag is not associated with this post")
		return
	}
	h.responses.Invalidate(r.Context(), cache.PopularTagsKey)
	respondMessage(w, http.StatusOK, "Tag association removed", nil)
}
