package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/models"
)

// PostStore handles all post-related database operations, including the
// tag-association bookkeeping and counter refreshes that accompany post
// writes.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postColumns are the post row columns joined with the compact author and
// category shapes embedded in responses.
const postColumns = `
	p.id, p.title, p.slug, p.excerpt, p.content_blocks, p.status, p.image,
	p.featured, p.views, p.author_id, p.category_id, p.published_at,
	p.created_at, p.updated_at,
	u.id, u.display_name, u.email,
	c.id, c.name, c.slug, c.color`

const postJoins = `
	FROM posts p
	JOIN users u ON u.id = p.author_id
	JOIN categories c ON c.id = p.category_id`

// scanPost scans a joined post row, decoding the JSONB content blocks.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var (
		p        models.Post
		raw      []byte
		author   models.UserRef
		category models.CategoryRef
	)
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &raw, &p.Status, &p.Image,
		&p.Featured, &p.Views, &p.AuthorID, &p.CategoryID, &p.PublishedAt,
		&p.CreatedAt, &p.UpdatedAt,
		&author.ID, &author.DisplayName, &author.Email,
		&category.ID, &category.Name, &category.Slug, &category.Color,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.ContentBlocks); err != nil {
		return nil, fmt.Errorf("decode content blocks: %w", err)
	}
	p.Author = &author
	p.Category = &category
	return &p, nil
}

// postSortColumns whitelists the sort keys accepted by List.
var postSortColumns = map[string]string{
	"createdAt":   "p.created_at",
	"publishedAt": "p.published_at",
	"views":       "p.views",
	"title":       "p.title",
}

// PostListOptions are the filters and paging parameters for List.
type PostListOptions struct {
	Search     string     // substring over title, excerpt and block content
	Status     string     // "", "all", or a concrete status
	CategoryID *uuid.UUID
	Featured   *bool
	SortBy     string // "createdAt", "publishedAt", "views", "title"
	SortOrder  string // "asc" or "desc"
	Page       int
	Limit      int
}

// List returns a filtered, sorted page of posts with author and category
// joined, plus the total matching row count.
func (s *PostStore) List(opts PostListOptions) ([]models.Post, int, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Search != "" {
		ph := arg("%" + opts.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(p.title ILIKE %s OR p.excerpt ILIKE %s OR p.content_blocks::text ILIKE %s)", ph, ph, ph))
	}
	if opts.Status != "" && opts.Status != "all" {
		conds = append(conds, "p.status = "+arg(opts.Status))
	}
	if opts.CategoryID != nil {
		conds = append(conds, "p.category_id = "+arg(*opts.CategoryID))
	}
	if opts.Featured != nil {
		conds = append(conds, "p.featured = "+arg(*opts.Featured))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) "+postJoins+" "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	sortCol, ok := postSortColumns[opts.SortBy]
	if !ok {
		sortCol = postSortColumns["createdAt"]
	}
	dir := "DESC"
	if strings.EqualFold(opts.SortOrder, "asc") {
		dir = "ASC"
	}
	orderBy := sortCol + " " + dir
	if sortCol == "p.published_at" {
		orderBy += " NULLS LAST"
	}

	offset := (opts.Page - 1) * opts.Limit
	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s LIMIT %s OFFSET %s`,
		postColumns, postJoins, where, orderBy, arg(opts.Limit), arg(offset))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, total, rows.Err()
}

// FindByID retrieves a post with author and category joined. Returns nil
// if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` `+postJoins+` WHERE p.id = $1`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a post by its slug. Returns nil if not found.
func (s *PostStore) FindBySlug(slug string) (*models.Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` `+postJoins+` WHERE p.slug = $1`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// ListByCategory returns a page of a category's posts, newest published
// first. status filters to one publishing state; "all" disables the filter.
func (s *PostStore) ListByCategory(categoryID uuid.UUID, status string, page, limit int) ([]models.Post, int, error) {
	return s.listByRelation("p.category_id = $1", categoryID, status, page, limit)
}

// ListByTag returns a page of posts carrying the tag, newest published first.
func (s *PostStore) ListByTag(tagID uuid.UUID, status string, page, limit int) ([]models.Post, int, error) {
	return s.listByRelation(
		"p.id IN (SELECT post_id FROM post_tags WHERE tag_id = $1)", tagID, status, page, limit)
}

func (s *PostStore) listByRelation(cond string, relID uuid.UUID, status string, page, limit int) ([]models.Post, int, error) {
	args := []any{relID}
	where := "WHERE " + cond
	if status != "" && status != "all" {
		args = append(args, status)
		where += fmt.Sprintf(" AND p.status = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow("SELECT COUNT(*) "+postJoins+" "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count related posts: %w", err)
	}

	offset := (page - 1) * limit
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT %s %s %s
		ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC
		LIMIT $%d OFFSET $%d
	`, postColumns, postJoins, where, len(args)-1, len(args))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list related posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, total, rows.Err()
}

// SlugExists reports whether another post already uses the given slug.
func (s *PostStore) SlugExists(slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id != $2)
	`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("post slug exists: %w", err)
	}
	return exists, nil
}

// ResolveSlug derives a collision-free slug for the given title.
func (s *PostStore) ResolveSlug(title string, excludeID uuid.UUID) (string, error) {
	return resolveUniqueSlug(title, func(candidate string) (bool, error) {
		return s.SlugExists(candidate, excludeID)
	})
}

// Create inserts the post, attaches the given tags, and refreshes the
// category's and every attached tag's posts_count, all in one transaction.
// The post and its counters commit together or not at all.
func (s *PostStore) Create(p *models.Post, tagIDs []uuid.UUID) (uuid.UUID, error) {
	body, err := json.Marshal(p.ContentBlocks)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create post: encode blocks: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("create post: begin: %w", err)
	}
	defer tx.Rollback()

	var id uuid.UUID
	err = tx.QueryRow(`
		INSERT INTO posts (title, slug, excerpt, content_blocks, status, image,
		                   featured, author_id, category_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, p.Title, p.Slug, p.Excerpt, body, p.Status, p.Image,
		p.Featured, p.AuthorID, p.CategoryID, p.PublishedAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create post: %w", err)
	}

	for _, tagID := range tagIDs {
		if _, err := tx.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, id, tagID); err != nil {
			return uuid.Nil, fmt.Errorf("create post: attach tag: %w", err)
		}
	}

	if err := refreshCategoryPostsCount(tx, p.CategoryID); err != nil {
		return uuid.Nil, err
	}
	for _, tagID := range tagIDs {
		if err := refreshTagPostsCount(tx, tagID); err != nil {
			return uuid.Nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("create post: commit: %w", err)
	}
	return id, nil
}

// Update rewrites the post row. When tagIDs is non-nil the tag set is fully
// replaced: every existing association is dropped and the supplied list
// inserted. Counters refresh for the previous category (when it changed),
// the current category, and every tag touched on either side of the
// replacement. The whole sequence is one transaction.
func (s *PostStore) Update(p *models.Post, prevCategoryID uuid.UUID, tagIDs []uuid.UUID) error {
	body, err := json.Marshal(p.ContentBlocks)
	if err != nil {
		return fmt.Errorf("update post: encode blocks: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update post: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE posts SET
			title = $1, slug = $2, excerpt = $3, content_blocks = $4, status = $5,
			image = $6, featured = $7, category_id = $8, published_at = $9,
			updated_at = NOW()
		WHERE id = $10
	`, p.Title, p.Slug, p.Excerpt, body, p.Status,
		p.Image, p.Featured, p.CategoryID, p.PublishedAt, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	touched := map[uuid.UUID]bool{}
	if tagIDs != nil {
		prev, err := tagIDsForPost(tx, p.ID)
		if err != nil {
			return err
		}
		for _, id := range prev {
			touched[id] = true
		}

		if _, err := tx.Exec(`DELETE FROM post_tags WHERE post_id = $1`, p.ID); err != nil {
			return fmt.Errorf("update post: clear tags: %w", err)
		}
		for _, tagID := range tagIDs {
			if _, err := tx.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, p.ID, tagID); err != nil {
				return fmt.Errorf("update post: attach tag: %w", err)
			}
			touched[tagID] = true
		}
	}

	if prevCategoryID != p.CategoryID {
		if err := refreshCategoryPostsCount(tx, prevCategoryID); err != nil {
			return err
		}
	}
	if err := refreshCategoryPostsCount(tx, p.CategoryID); err != nil {
		return err
	}
	for tagID := range touched {
		if err := refreshTagPostsCount(tx, tagID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update post: commit: %w", err)
	}
	return nil
}

// Delete removes the post. Association rows cascade, so the affected tag
// IDs are collected first and their counters refreshed together with the
// category's, all in one transaction.
func (s *PostStore) Delete(id, categoryID uuid.UUID) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("delete post: begin: %w", err)
	}
	defer tx.Rollback()

	tagIDs, err := tagIDsForPost(tx, id)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}

	if err := refreshCategoryPostsCount(tx, categoryID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if err := refreshTagPostsCount(tx, tagID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete post: commit: %w", err)
	}
	return nil
}

// UpdateStatus sets the publishing state and published_at stamp, then
// refreshes the category counter in the same transaction. The membership
// didn't change, so the recompute is a no-op on the stored value, matching
// the behavior of the other status-affecting writes.
func (s *PostStore) UpdateStatus(id, categoryID uuid.UUID, status models.PostStatus, publishedAt *time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update post status: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE posts SET status = $1, published_at = $2, updated_at = NOW()
		WHERE id = $3
	`, status, publishedAt, id)
	if err != nil {
		return fmt.Errorf("update post status: %w", err)
	}

	if err := refreshCategoryPostsCount(tx, categoryID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update post status: commit: %w", err)
	}
	return nil
}

// SetFeatured flips the featured flag.
func (s *PostStore) SetFeatured(id uuid.UUID, featured bool) error {
	_, err := s.db.Exec(`
		UPDATE posts SET featured = $1, updated_at = NOW() WHERE id = $2
	`, featured, id)
	if err != nil {
		return fmt.Errorf("set post featured: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter atomically and returns the new
// value. A single UPDATE expression avoids the read-then-write race.
func (s *PostStore) IncrementViews(id uuid.UUID) (int, error) {
	var views int
	err := s.db.QueryRow(`
		UPDATE posts SET views = views + 1 WHERE id = $1 RETURNING views
	`, id).Scan(&views)
	if err != nil {
		return 0, fmt.Errorf("increment post views: %w", err)
	}
	return views, nil
}

// tagIDsForPost returns the IDs of tags currently attached to the post.
func tagIDsForPost(q querier, postID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := q.Query(`SELECT tag_id FROM post_tags WHERE post_id = $1`, postID)
	if err != nil {
		return nil, fmt.Errorf("list post tag ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tag id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
