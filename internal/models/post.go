// Package models contains data structures for the application's domain models.
package models

import (
	"encoding/json"
	"time"
)

// Post is the sole domain entity: a blog post owned by an identity from the
// external auth service.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	// Date, Cover, and Tag are caller-supplied opaque values passed through
	// verbatim. Tag is stored as JSONB so search can match its text rendering.
	Date  *string         `json:"date"`
	Cover *string         `json:"cover"`
	Tag   json.RawMessage `gorm:"type:jsonb" json:"tag"`
	// Author references the owning identity in the external auth service.
	// Nulled in responses to unauthenticated callers.
	Author *string `gorm:"type:uuid;index" json:"author"`
}

// Redacted returns a copy of the post with the author field cleared.
func (p *Post) Redacted() *Post {
	c := *p
	c.Author = nil
	return &c
}

// RedactPosts returns copies of posts with author fields cleared.
func RedactPosts(posts []*Post) []*Post {
	out := make([]*Post, len(posts))
	for i, p := range posts {
		out[i] = p.Redacted()
	}
	return out
}

// PostList is the paginated response envelope for the list endpoint.
type PostList struct {
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
	Total int64   `json:"total"`
	Posts []*Post `json:"posts"`
}
