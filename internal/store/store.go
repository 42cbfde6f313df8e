// Package store contains the persistence layer: one store per entity,
// raw SQL against PostgreSQL. Multi-step writes that must leave the
// denormalized posts_count columns consistent run inside a single
// transaction.
package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/slug"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting the counter helpers run either standalone or inside a transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// maxSlugProbes caps the unique-slug probing loop. Hitting the cap means a
// pathological number of same-named rows already exist; failing is better
// than looping forever.
const maxSlugProbes = 100

// fallbackSlug is used when the source text contains no alphanumeric
// characters at all.
const fallbackSlug = "item"

// resolveUniqueSlug derives a collision-free slug from text. It probes
// taken() with the base slug, then with -1, -2, … suffixes until a free
// candidate is found. The uniqueness holds at the instant of the check
// only; the row insert can still race a concurrent writer, which the
// database's unique constraint then rejects.
func resolveUniqueSlug(text string, taken func(candidate string) (bool, error)) (string, error) {
	base := slug.Generate(text)
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for n := 1; ; n++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		if n > maxSlugProbes {
			return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugProbes)
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// refreshCategoryPostsCount recomputes a category's denormalized post count
// from the posts relation and writes it back in a single statement.
func refreshCategoryPostsCount(q querier, categoryID uuid.UUID) error {
	_, err := q.Exec(`
		UPDATE categories
		SET posts_count = (SELECT COUNT(*) FROM posts WHERE category_id = $1),
		    updated_at = NOW()
		WHERE id = $1
	`, categoryID)
	if err != nil {
		return fmt.Errorf("refresh category posts count: %w", err)
	}
	return nil
}

// refreshTagPostsCount recomputes a tag's denormalized post count from the
// post_tags association rows.
func refreshTagPostsCount(q querier, tagID uuid.UUID) error {
	_, err := q.Exec(`
		UPDATE tags
		SET posts_count = (SELECT COUNT(*) FROM post_tags WHERE tag_id = $1),
		    updated_at = NOW()
		WHERE id = $1
	`, tagID)
	if err != nil {
		return fmt.Errorf("refresh tag posts count: %w", err)
	}
	return nil
}
