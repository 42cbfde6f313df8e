package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// TagStore manages tags and their post associations.
type TagStore struct {
	db *sql.DB
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB) *TagStore {
	return &TagStore{db: db}
}

const tagColumns = `id, name, slug, description, color, posts_count, created_at, updated_at`

// scanTag scans a row into a Tag struct.
func scanTag(scanner interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	err := scanner.Scan(
		&t.ID, &t.Name, &t.Slug, &t.Description, &t.Color,
		&t.PostsCount, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// tagSortColumns whitelists the sort keys accepted by List.
var tagSortColumns = map[string]string{
	"postsCount": "posts_count DESC",
	"name":       "name ASC",
	"createdAt":  "created_at DESC",
}

// List returns a page of tags with the total row count. sort selects the
// ordering ("postsCount", "name" or "createdAt"); anything else falls back
// to postsCount descending.
func (s *TagStore) List(search, sort string, page, limit int) ([]models.Tag, int, error) {
	where := ``
	args := []any{}
	if search != "" {
		where = `WHERE name ILIKE $1 OR description ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM tags `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tags: %w", err)
	}

	orderBy, ok := tagSortColumns[sort]
	if !ok {
		orderBy = tagSortColumns["postsCount"]
	}

	offset := (page - 1) * limit
	args = append(args, limit, offset)
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s FROM tags %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, tagColumns, where, orderBy, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var items []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, total, rows.Err()
}

// Popular returns up to limit tags with at least minPosts associated posts,
// most-used first.
func (s *TagStore) Popular(limit, minPosts int) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT `+tagColumns+` FROM tags
		WHERE posts_count >= $1
		ORDER BY posts_count DESC
		LIMIT $2
	`, minPosts, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular tags: %w", err)
	}
	defer rows.Close()

	var items []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// FindByID retrieves a tag by ID. Returns nil if not found.
func (s *TagStore) FindByID(id uuid.UUID) (*models.Tag, error) {
	row := s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE id = $1`, id)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by id: %w", err)
	}
	return t, nil
}

// FindBySlug retrieves a tag by slug. Returns nil if not found.
func (s *TagStore) FindBySlug(slug string) (*models.Tag, error) {
	row := s.db.QueryRow(`SELECT `+tagColumns+` FROM tags WHERE slug = $1`, slug)
	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return t, nil
}

// NameExists reports whether another tag already uses the given name.
func (s *TagStore) NameExists(name string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM tags WHERE name = $1 AND id != $2)
	`, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("tag name exists: %w", err)
	}
	return exists, nil
}

// ResolveSlug derives a collision-free slug for the given name.
func (s *TagStore) ResolveSlug(name string, excludeID uuid.UUID) (string, error) {
	return resolveUniqueSlug(name, func(candidate string) (bool, error) {
		var exists bool
		err := s.db.QueryRow(`
			SELECT EXISTS (SELECT 1 FROM tags WHERE slug = $1 AND id != $2)
		`, candidate, excludeID).Scan(&exists)
		return exists, err
	})
}

// Create inserts a new tag and returns it.
func (s *TagStore) Create(t *models.Tag) (*models.Tag, error) {
	row := s.db.QueryRow(`
		INSERT INTO tags (name, slug, description, color)
		VALUES ($1, $2, $3, $4)
		RETURNING `+tagColumns,
		t.Name, t.Slug, t.Description, t.Color,
	)
	result, err := scanTag(row)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return result, nil
}

// Update modifies an existing tag.
func (s *TagStore) Update(t *models.Tag) error {
	_, err := s.db.Exec(`
		UPDATE tags SET
			name = $1, slug = $2, description = $3, color = $4, updated_at = NOW()
		WHERE id = $5
	`, t.Name, t.Slug, t.Description, t.Color, t.ID)
	if err != nil {
		return fmt.Errorf("update tag: %w", err)
	}
	return nil
}

// Delete removes a tag by ID. Association rows cascade-delete.
func (s *TagStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	return nil
}

// CountAssociations returns the live number of post associations for the
// tag. The deletion guard reads this, not the stored posts_count.
func (s *TagStore) CountAssociations(id uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM post_tags WHERE tag_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tag associations: %w", err)
	}
	return count, nil
}

// AssociationExists reports whether the tag is already attached to the post.
func (s *TagStore) AssociationExists(postID, tagID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM post_tags WHERE post_id = $1 AND tag_id = $2)
	`, postID, tagID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("association exists: %w", err)
	}
	return exists, nil
}

// Associate attaches the tag to the post and refreshes the tag's counter,
// both in one transaction.
func (s *TagStore) Associate(postID, tagID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("associate tag: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, postID, tagID); err != nil {
		return fmt.Errorf("associate tag: %w", err)
	}
	if err := refreshTagPostsCount(tx, tagID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("associate tag: commit: %w", err)
	}
	return nil
}

// Disassociate detaches the tag from the post and refreshes the tag's
// counter, both in one transaction. Returns false when no association row
// existed.
func (s *TagStore) Disassociate(postID, tagID uuid.UUID) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("disassociate tag: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = $1 AND tag_id = $2`, postID, tagID)
	if err != nil {
		return false, fmt.Errorf("disassociate tag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("disassociate tag: rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := refreshTagPostsCount(tx, tagID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("disassociate tag: commit: %w", err)
	}
	return true, nil
}

// RefreshPostsCount recomputes and stores the tag's denormalized post count.
func (s *TagStore) RefreshPostsCount(id uuid.UUID) error {
	return refreshTagPostsCount(s.db, id)
}

// ListByPost returns the tags attached to a post, name ascending.
func (s *TagStore) ListByPost(postID uuid.UUID) ([]models.Tag, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug, t.description, t.color, t.posts_count, t.created_at, t.updated_at
		FROM tags t
		JOIN post_tags pt ON pt.tag_id = t.id
		WHERE pt.post_id = $1
		ORDER BY t.name ASC
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("list tags by post: %w", err)
	}
	defer rows.Close()

	var items []models.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}
