package store

import (
	"testing"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

func TestCategorySlugCollision(t *testing.T) {
	db := testDB(t)
	store := NewCategoryStore(db)

	t.Cleanup(func() {
		cleanCategories(t, db, "imposto-de-renda", "imposto-de-renda-1")
	})

	slug1, err := store.ResolveSlug("Imposto de Renda", uuid.Nil)
	if err != nil {
		t.Fatalf("ResolveSlug: %v", err)
	}
	if slug1 != "imposto-de-renda" {
		t.Fatalf("first slug = %q, want %q", slug1, "imposto-de-renda")
	}

	first, err := store.Create(&models.Category{
		Name:  "Imposto de Renda",
		Slug:  slug1,
		Color: models.DefaultColor,
	})
	if err != nil {
		t.Fatalf("create first category: %v", err)
	}

	// The second name normalizes to the same slug, so the resolver must
	// append a numeric suffix.
	slug2, err := store.ResolveSlug("Imposto De Renda!!", uuid.Nil)
	if err != nil {
		t.Fatalf("ResolveSlug second: %v", err)
	}
	if slug2 != "imposto-de-renda-1" {
		t.Errorf("second slug = %q, want %q", slug2, "imposto-de-renda-1")
	}

	// Renaming the first category must not collide with itself.
	keep, err := store.ResolveSlug("Imposto de Renda", first.ID)
	if err != nil {
		t.Fatalf("ResolveSlug with exclude: %v", err)
	}
	if keep != "imposto-de-renda" {
		t.Errorf("exclude-id slug = %q, want %q", keep, "imposto-de-renda")
	}
}

func TestCategoryCRUD(t *testing.T) {
	db := testDB(t)
	store := NewCategoryStore(db)
	c := testCategory(t, db, "Tax Law")

	found, err := store.FindByID(c.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if found == nil || found.Name != c.Name {
		t.Fatalf("FindByID returned %+v", found)
	}
	if found.PostsCount != 0 {
		t.Errorf("new category posts_count = %d, want 0", found.PostsCount)
	}

	found.Description = "updated"
	found.Color = "#FF0000"
	if err := store.Update(found); err != nil {
		t.Fatalf("Update: %v", err)
	}

	again, err := store.FindByID(c.ID)
	if err != nil {
		t.Fatalf("FindByID after update: %v", err)
	}
	if again.Description != "updated" || again.Color != "#FF0000" {
		t.Errorf("update not persisted: %+v", again)
	}

	exists, err := store.NameExists(c.Name, uuid.Nil)
	if err != nil {
		t.Fatalf("NameExists: %v", err)
	}
	if !exists {
		t.Error("NameExists = false for an existing name")
	}
	exists, err = store.NameExists(c.Name, c.ID)
	if err != nil {
		t.Fatalf("NameExists with exclude: %v", err)
	}
	if exists {
		t.Error("NameExists should ignore the excluded row")
	}
}

func TestCategoryFindByIDNotFound(t *testing.T) {
	db := testDB(t)
	store := NewCategoryStore(db)

	c, err := store.FindByID(uuid.New())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil for unknown id, got %+v", c)
	}
}

func TestCategoryRefreshPostsCountIdempotent(t *testing.T) {
	db := testDB(t)
	catStore := NewCategoryStore(db)
	postStore := NewPostStore(db)

	authorID := testUser(t, db)
	cat := testCategory(t, db, "Counting")

	post := seedPost(t, db, postStore, authorID, cat.ID, nil)
	_ = post

	readCount := func() int {
		c, err := catStore.FindByID(cat.ID)
		if err != nil || c == nil {
			t.Fatalf("FindByID: %v", err)
		}
		return c.PostsCount
	}

	if got := readCount(); got != 1 {
		t.Fatalf("posts_count after create = %d, want 1", got)
	}

	// Two refreshes with no intervening writes must store the same value.
	if err := catStore.RefreshPostsCount(cat.ID); err != nil {
		t.Fatalf("first RefreshPostsCount: %v", err)
	}
	first := readCount()
	if err := catStore.RefreshPostsCount(cat.ID); err != nil {
		t.Fatalf("second RefreshPostsCount: %v", err)
	}
	if second := readCount(); second != first {
		t.Errorf("refresh not idempotent: %d then %d", first, second)
	}
}
