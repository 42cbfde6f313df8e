package models

import (
	"time"

	"github.com/google/uuid"

	"inkwell/internal/blocks"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusArchived  PostStatus = "archived"
)

// IsValid reports whether s is one of the known post statuses.
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return true
	}
	return false
}

// Post is a blog article. The body is an ordered list of typed content
// blocks stored as JSONB. PublishedAt is non-nil exactly while the status
// is published: transitioning into published stamps it, transitioning out
// clears it.
type Post struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Excerpt       string         `json:"excerpt"`
	ContentBlocks []blocks.Block `json:"contentBlocks"`
	Status        PostStatus     `json:"status"`
	Image         *string        `json:"image,omitempty"`
	Featured      bool           `json:"featured"`
	Views         int            `json:"views"`
	AuthorID      uuid.UUID      `json:"authorId"`
	CategoryID    uuid.UUID      `json:"categoryId"`
	PublishedAt   *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// Populated by read queries via joins; not columns on the posts table.
	Author   *UserRef     `json:"author,omitempty"`
	Category *CategoryRef `json:"category,omitempty"`
	Tags     []Tag        `json:"tags,omitempty"`
}

// IsPublished returns true if the post is in published status.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}
