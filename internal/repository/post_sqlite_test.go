package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Post{}))
	return db
}

func seedPost(t *testing.T, db *gorm.DB, title, slug, content string, age time.Duration, author string, tags ...string) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     title,
		Slug:      slug,
		Content:   content,
		CreatedAt: time.Now().Add(-age),
	}
	if author != "" {
		post.Author = &author
	}
	if len(tags) > 0 {
		raw, err := json.Marshal(tags)
		require.NoError(t, err)
		post.Tag = raw
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

func TestPostRepository_ListOrdering(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	seedPost(t, db, "Oldest", "oldest", "a", 3*time.Hour, "")
	seedPost(t, db, "Middle", "middle", "b", 2*time.Hour, "")
	seedPost(t, db, "Newest", "newest", "c", 1*time.Hour, "")

	posts, total, err := repo.List(ctx, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, posts, 3)
	assert.Equal(t, "Newest", posts[0].Title)
	assert.Equal(t, "Middle", posts[1].Title)
	assert.Equal(t, "Oldest", posts[2].Title)
}

func TestPostRepository_ListPagination(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		seedPost(t, db,
			fmt.Sprintf("Post %02d", i),
			fmt.Sprintf("post-%02d", i),
			"content",
			time.Duration(i)*time.Minute,
			"")
	}

	// Page 2 with limit 5 skips the 5 newest.
	posts, total, err := repo.List(ctx, "", 5, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, posts, 5)
	assert.Equal(t, "Post 05", posts[0].Title)
	assert.Equal(t, "Post 09", posts[4].Title)

	// Past the last page yields an empty slice, total unchanged.
	posts, total, err = repo.List(ctx, "", 5, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	assert.Empty(t, posts)
}

func TestPostRepository_ListSearch(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	seedPost(t, db, "Gardening Basics", "gardening-basics", "soil and seeds", time.Hour, "")
	seedPost(t, db, "Cooking", "cooking", "A guide to GARDENING indoors", 2*time.Hour, "")
	seedPost(t, db, "Travel", "travel", "packing light", 3*time.Hour, "", "gardening", "outdoors")
	seedPost(t, db, "Woodworking", "woodworking", "joinery", 4*time.Hour, "")

	tests := []struct {
		name          string
		search        string
		expectedSlugs []string
	}{
		{
			name:          "Title Match Case-Insensitive",
			search:        "GARDEN",
			expectedSlugs: []string{"gardening-basics", "cooking", "travel"},
		},
		{
			name:          "Content Match",
			search:        "joinery",
			expectedSlugs: []string{"woodworking"},
		},
		{
			name:          "Tag Match",
			search:        "outdoors",
			expectedSlugs: []string{"travel"},
		},
		{
			name:          "No Match",
			search:        "astronomy",
			expectedSlugs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := repo.List(ctx, tt.search, 10, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.expectedSlugs)), total)

			slugs := make([]string, 0, len(posts))
			for _, p := range posts {
				slugs = append(slugs, p.Slug)
			}
			assert.Equal(t, tt.expectedSlugs, slugs)
		})
	}
}

func TestPostRepository_UpdateFields(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := seedPost(t, db, "Draft", "draft", "wip", time.Hour, "")

	updated, err := repo.Update(ctx, post.ID, map[string]any{
		"title":   "Published",
		"content": "final",
	})
	require.NoError(t, err)
	assert.Equal(t, "Published", updated.Title)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, "draft", updated.Slug)

	_, err = repo.Update(ctx, 9999, map[string]any{"title": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepository_DeleteOwnership(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := "123e4567-e89b-42d3-a456-426614174000"
	bob := "223e4567-e89b-42d3-a456-426614174000"
	post := seedPost(t, db, "Mine", "mine", "content", time.Hour, alice)

	// Another identity cannot delete it.
	err := repo.Delete(ctx, post.ID, bob)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// The owner can.
	require.NoError(t, repo.Delete(ctx, post.ID, alice))
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPostRepository_DuplicateSlug(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	seedPost(t, db, "First", "shared-slug", "a", time.Hour, "")

	err := repo.Create(ctx, &models.Post{Title: "Second", Slug: "shared-slug", Content: "b"})
	require.Error(t, err)
	assert.True(t, IsDuplicateSlug(err))
}
