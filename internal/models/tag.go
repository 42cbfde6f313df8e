package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag labels posts through the post_tags association table. PostsCount is
// denormalized from the association row count for the tag.
type Tag struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	PostsCount  int       `json:"postsCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
