// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	List(ctx context.Context, search string, limit, offset int) ([]*models.Post, int64, error)
	Update(ctx context.Context, id uint, fields map[string]any) (*models.Post, error)
	Delete(ctx context.Context, id uint, author string) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// IsDuplicateSlug reports whether err is a unique constraint violation on the
// slug column. Covers both the postgres driver and the sqlite driver used in
// tests.
func IsDuplicateSlug(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Create", "posts")
	defer span.End()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		middleware.PostOperations.WithLabelValues("create", "error").Inc()
		return err
	}
	middleware.PostOperations.WithLabelValues("create", "ok").Inc()
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetByID", "posts")
	defer span.End()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetBySlug", "posts")
	defer span.End()

	var post models.Post
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts ordered newest first, plus the total count of matching
// rows before limit/offset. A non-empty search term matches case-insensitively
// against title, content, and the tag list.
func (r *postRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.Post, int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "List", "posts")
	defer span.End()

	base := r.db.WithContext(ctx).Model(&models.Post{})
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		base = base.Where(
			"LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(CAST(tag AS TEXT)) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []*models.Post
	err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Update applies the given column values to the post and returns the updated
// row. Returns gorm.ErrRecordNotFound when the post does not exist.
func (r *postRepository) Update(ctx context.Context, id uint, fields map[string]any) (*models.Post, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Update", "posts")
	defer span.End()

	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := r.db.WithContext(ctx).Model(&post).Updates(fields).Error; err != nil {
			middleware.PostOperations.WithLabelValues("update", "error").Inc()
			return nil, err
		}
	}
	middleware.PostOperations.WithLabelValues("update", "ok").Inc()
	return &post, nil
}

// Delete removes the post only when it belongs to the given author. Returns
// gorm.ErrRecordNotFound when no such row exists, which covers both a missing
// post and a post owned by someone else.
func (r *postRepository) Delete(ctx context.Context, id uint, author string) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "posts")
	defer span.End()

	result := r.db.WithContext(ctx).
		Where("id = ? AND author = ?", id, author).
		Delete(&models.Post{})
	if result.Error != nil {
		middleware.PostOperations.WithLabelValues("delete", "error").Inc()
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	middleware.PostOperations.WithLabelValues("delete", "ok").Inc()
	return nil
}
