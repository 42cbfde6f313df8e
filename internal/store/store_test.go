// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"database/sql"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"inkwell/internal/database"
	"inkwell/internal/models"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkwell")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkwell")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", testDSN())
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Reset goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testUser inserts a throwaway author for posts and schedules its removal.
func testUser(t *testing.T, db *sql.DB) uuid.UUID {
	t.Helper()

	email := "author-" + uuid.NewString() + "@test.local"
	var id uuid.UUID
	err := db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, 'x', 'Test Author')
		RETURNING id
	`, email).Scan(&id)
	if err != nil {
		t.Fatalf("insert test user: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = $1`, id) })
	return id
}

// testCategory inserts a category with a unique name/slug and schedules
// its removal (posts referencing it must be gone first).
func testCategory(t *testing.T, db *sql.DB, name string) *models.Category {
	t.Helper()

	suffix := uuid.NewString()[:8]
	store := NewCategoryStore(db)
	c, err := store.Create(&models.Category{
		Name:  name + " " + suffix,
		Slug:  "test-" + suffix,
		Color: models.DefaultColor,
	})
	if err != nil {
		t.Fatalf("insert test category: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM categories WHERE id = $1`, c.ID) })
	return c
}

// testTag inserts a tag with a unique name/slug and schedules its removal.
func testTag(t *testing.T, db *sql.DB, name string) *models.Tag {
	t.Helper()

	suffix := uuid.NewString()[:8]
	store := NewTagStore(db)
	tag, err := store.Create(&models.Tag{
		Name:  name + " " + suffix,
		Slug:  "test-" + suffix,
		Color: models.DefaultColor,
	})
	if err != nil {
		t.Fatalf("insert test tag: %v", err)
	}
	t.Cleanup(func() { db.Exec(`DELETE FROM tags WHERE id = $1`, tag.ID) })
	return tag
}

// cleanCategories removes test categories by slug. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec(`DELETE FROM categories WHERE slug = $1`, slug)
	}
}

// cleanPosts removes test posts by slug. Call in t.Cleanup().
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, slug := range slugs {
		db.Exec(`DELETE FROM posts WHERE slug = $1`, slug)
	}
}

// cleanSubscribers removes test subscribers by email. Call in t.Cleanup().
func cleanSubscribers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec(`DELETE FROM newsletter_subscribers WHERE email = $1`, email)
	}
}
