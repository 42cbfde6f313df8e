// handler_test.go provides shared test infrastructure for handler
// integration tests. Tests are skipped when PostgreSQL is unavailable;
// the response cache runs without a Valkey client.
package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/auth"
	"inkwell/internal/blocks"
	"inkwell/internal/cache"
	"inkwell/internal/database"
	"inkwell/internal/models"
	"inkwell/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "inkwell")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "inkwell")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB          *sql.DB
	Tokens      *auth.Tokens
	Categories  *Categories
	Posts       *Posts
	Tags        *Tags
	Newsletter  *Newsletter
	Auth        *Auth
	PostStore   *store.PostStore
	CatStore    *store.CategoryStore
	TagStore    *store.TagStore
	SubStore    *store.NewsletterStore
	UserStore   *store.UserStore
	AuthorID    uuid.UUID
	AuthorEmail string
}

// newTestEnv creates a complete test environment. Caching is disabled by
// the nil Valkey client.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)

	postStore := store.NewPostStore(db)
	catStore := store.NewCategoryStore(db)
	tagStore := store.NewTagStore(db)
	subStore := store.NewNewsletterStore(db)
	userStore := store.NewUserStore(db)
	responses := cache.NewResponseCache(nil, 0)

	tokens, err := auth.NewTokens("handler-test-secret")
	require.NoError(t, err)

	email := "author." + uuid.NewString()[:8] + "@example.com"
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	author, err := userStore.Create(&models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "Test Author",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Exec(`DELETE FROM users WHERE id = $1`, author.ID) })

	return &testEnv{
		DB:          db,
		Tokens:      tokens,
		Categories:  NewCategories(catStore, postStore),
		Posts:       NewPosts(postStore, catStore, tagStore, responses),
		Tags:        NewTags(tagStore, postStore, responses),
		Newsletter:  NewNewsletter(subStore, responses),
		Auth:        NewAuth(userStore, tokens),
		PostStore:   postStore,
		CatStore:    catStore,
		TagStore:    tagStore,
		SubStore:    subStore,
		UserStore:   userStore,
		AuthorID:    author.ID,
		AuthorEmail: email,
	}
}

// doJSON runs a handler through a chi router so URL parameters resolve,
// and decodes the response envelope.
func doJSON(t *testing.T, method, path string, body any, register func(chi.Router)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := chi.NewRouter()
	register(r)

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var decoded map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	}
	return rr, decoded
}

// seedCategory inserts a category through the store and schedules removal.
func seedCategory(t *testing.T, env *testEnv, name string) *models.Category {
	t.Helper()

	suffix := uuid.NewString()[:8]
	c, err := env.CatStore.Create(&models.Category{
		Name:  name + " " + suffix,
		Slug:  "test-" + suffix,
		Color: models.DefaultColor,
	})
	require.NoError(t, err)
	t.Cleanup(func() { env.DB.Exec(`DELETE FROM categories WHERE id = $1`, c.ID) })
	return c
}

// seedTag inserts a tag through the store and schedules removal.
func seedTag(t *testing.T, env *testEnv, name string) *models.Tag {
	t.Helper()

	suffix := uuid.NewString()[:8]
	tag, err := env.TagStore.Create(&models.Tag{
		Name:  name + " " + suffix,
		Slug:  "test-" + suffix,
		Color: models.DefaultColor,
	})
	require.NoError(t, err)
	t.Cleanup(func() { env.DB.Exec(`DELETE FROM tags WHERE id = $1`, tag.ID) })
	return tag
}

// seedPost inserts a post through the store and schedules removal.
func seedPost(t *testing.T, env *testEnv, categoryID uuid.UUID, status models.PostStatus) *models.Post {
	t.Helper()

	suffix := uuid.NewString()[:8]
	p := &models.Post{
		Title: "Handler Post " + suffix,
		Slug:  "handler-post-" + suffix,
		ContentBlocks: []blocks.Block{
			{ID: "b1", Type: blocks.TypeParagraph, Content: "body", Order: 1},
		},
		Status:     status,
		AuthorID:   env.AuthorID,
		CategoryID: categoryID,
	}
	id, err := env.PostStore.Create(p, nil)
	require.NoError(t, err)
	t.Cleanup(func() { env.DB.Exec(`DELETE FROM posts WHERE id = $1`, id) })

	created, err := env.PostStore.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, created)
	return created
}

// data extracts the envelope data object from a decoded response.
func data(t *testing.T, decoded map[string]any) map[string]any {
	t.Helper()
	d, ok := decoded["data"].(map[string]any)
	require.True(t, ok, "response data is not an object: %v", decoded["data"])
	return d
}
