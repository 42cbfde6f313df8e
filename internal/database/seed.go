package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/blocks"
)

// Seed populates the database with initial development data: a default
// admin author, a category, two tags, and one published post wired to all
// of them with its counters set. It is a no-op when users already exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var authorID string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id
	`, "admin@inkwell.local", string(hash), "Admin").Scan(&authorID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	var categoryID string
	err = db.QueryRow(`
		INSERT INTO categories (name, slug, description, color)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, "General", "general", "Catch-all category for new posts", "#3B82F6").Scan(&categoryID)
	if err != nil {
		return fmt.Errorf("seed insert category: %w", err)
	}

	tagNames := [][2]string{{"Announcements", "announcements"}, {"Guides", "guides"}}
	tagIDs := make([]string, 0, len(tagNames))
	for _, tn := range tagNames {
		var id string
		err = db.QueryRow(`
			INSERT INTO tags (name, slug)
			VALUES ($1, $2)
			RETURNING id
		`, tn[0], tn[1]).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed insert tag: %w", err)
		}
		tagIDs = append(tagIDs, id)
	}

	body, err := json.Marshal([]blocks.Block{
		{ID: "seed-title", Type: blocks.TypeTitle, Content: "Welcome to the blog", Order: 1},
		{ID: "seed-paragraph", Type: blocks.TypeParagraph, Content: "This is the first post. Edit or delete it, then start writing.", Order: 2},
	})
	if err != nil {
		return fmt.Errorf("seed marshal blocks: %w", err)
	}

	var postID string
	err = db.QueryRow(`
		INSERT INTO posts (title, slug, excerpt, content_blocks, status, author_id, category_id, published_at)
		VALUES ($1, $2, $3, $4, 'published', $5, $6, NOW())
		RETURNING id
	`, "Hello World", "hello-world", "The obligatory first post.", body, authorID, categoryID).Scan(&postID)
	if err != nil {
		return fmt.Errorf("seed insert post: %w", err)
	}

	for _, tagID := range tagIDs {
		if _, err := db.Exec(`INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)`, postID, tagID); err != nil {
			return fmt.Errorf("seed insert post_tag: %w", err)
		}
	}

	// Bring the denormalized counters in line with the rows just inserted.
	if _, err := db.Exec(`
		UPDATE categories SET posts_count = (SELECT COUNT(*) FROM posts WHERE category_id = categories.id)
	`); err != nil {
		return fmt.Errorf("seed refresh category counts: %w", err)
	}
	if _, err := db.Exec(`
		UPDATE tags SET posts_count = (SELECT COUNT(*) FROM post_tags WHERE tag_id = tags.id)
	`); err != nil {
		return fmt.Errorf("seed refresh tag counts: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", "admin@inkwell.local",
		"password", "admin",
	)

	return nil
}
