package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"inkwell/internal/models"
	"inkwell/internal/store"
)

// Categories groups the category endpoints.
type Categories struct {
	categories *store.CategoryStore
	posts      *store.PostStore
}

func NewCategories(categories *store.CategoryStore, posts *store.PostStore) *Categories {
	return &Categories{categories: categories, posts: posts}
}

// List handles GET /api/categories.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePagination(r, defaultLimit)
	search := r.URL.Query().Get("search")

	items, total, err := h.categories.List(search, page, limit)
	if err != nil {
		respondInternal(w, "list categories", err)
		return
	}
	respondList(w, items, total, page, limit)
}

// Get handles GET /api/categories/{id}.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.FindByID(id)
	if err != nil {
		respondInternal(w, "find category", err)
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}
	respondData(w, http.StatusOK, category)
}

// Create handles POST /api/categories.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req categoryPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	exists, err := h.categories.NameExists(name, uuid.Nil)
	if err != nil {
		respondInternal(w, "check category name", err)
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "A category with this name already exists")
		return
	}

	slug, err := h.categories.ResolveSlug(name, uuid.Nil)
	if err != nil {
		respondInternal(w, "resolve category slug", err)
		return
	}

	color := req.Color
	if color == "" {
		color = models.DefaultColor
	}

	category, err := h.categories.Create(&models.Category{
		Name:        name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		Color:       color,
	})
	if err != nil {
		respondInternal(w, "create category", err)
		return
	}
	respondMessage(w, http.StatusCreated, "Category created", category)
}

// Update handles PUT /api/categories/{id}.
func (h *Categories) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.FindByID(id)
	if err != nil {
		respondInternal(w, "find category", err)
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	var req categoryPayload
	if msg := decodeJSON(r, &req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "Category name is required")
		return
	}

	exists, err := h.categories.NameExists(name, id)
	if err != nil {
		respondInternal(w, "check category name", err)
		return
	}
	if exists {
		respondError(w, http.StatusBadRequest, "A category with this name already exists")
		return
	}

	// Regenerate the slug only when the name actually changed.
	if name != category.Name {
		slug, err := h.categories.ResolveSlug(name, id)
		if err != nil {
			respondInternal(w, "resolve category slug", err)
			return
		}
		category.Slug = slug
	}

	category.Name = name
	category.Description = strings.TrimSpace(req.Description)
	if req.Color != "" {
		category.Color = req.Color
	}

	if err := h.categories.Update(category); err != nil {
		respondInternal(w, "update category", err)
		return
	}
	respondMessage(w, http.StatusOK, "Category updated", category)
}

// Delete handles DELETE /api/categories/{id}. Deletion is blocked by a
// live post count, not the stored counter.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.FindByID(id)
	if err != nil {
		respondInternal(w, "find category", err)
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	count, err := h.categories.CountPosts(id)
	if err != nil {
		respondInternal(w, "count category posts", err)
		return
	}
	if count > 0 {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Cannot delete category: %d post(s) still reference it", count))
		return
	}

	if err := h.categories.Delete(id); err != nil {
		respondInternal(w, "delete category", err)
		return
	}
	respondMessage(w, http.StatusOK, "Category deleted", nil)
}

// Posts handles GET /api/categories/{id}/posts.
func (h *Categories) Posts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "id")
	if !ok {
		return
	}

	category, err := h.categories.FindByID(id)
	if err != nil {
		respondInternal(w, "find category", err)
		return
	}
	if category == nil {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}

	page, limit := parsePagination(r, defaultLimit)
	status := r.URL.Query().Get("status")
	if status == "" {
		status = string(models.PostStatusPublished)
	}

	posts, total, err := h.posts.ListByCategory(id, status, page, limit)
	if err != nil {
		respondInternal(w, "list category posts", err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data: map[string]any{
			"category": category,
			"posts":    posts,
		},
		Pagination: newPagination(total, page, limit),
	})
}

// parseID reads a UUID path parameter, replying 400 when malformed.
func parseID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}
