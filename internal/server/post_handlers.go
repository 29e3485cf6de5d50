package server

import (
	"encoding/json"
	"log/slog"
	"strings"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const slugCharsetMessage = "Slug may only contain lowercase letters, numbers, and hyphens"

// GetPosts handles GET /posts with pagination and free-text search.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c)
	q := strings.TrimSpace(c.Query("q"))

	posts, total, err := s.postRepo.List(c.UserContext(), q, page.Limit, page.Offset)
	if err != nil {
		middleware.Logger.ErrorContext(c.UserContext(), "list posts failed",
			slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewStorageError("Failed to fetch posts"))
	}

	// Author identities are only visible to authenticated callers.
	if _, ok := s.optionalIdentity(c); !ok {
		posts = models.RedactPosts(posts)
	}

	return c.JSON(models.PostList{
		Page:  page.Page,
		Limit: page.Limit,
		Total: total,
		Posts: posts,
	})
}

// GetPost handles GET /posts/:idOrSlug. An all-digit parameter is treated as
// an ID, anything else as a slug.
func (s *Server) GetPost(c *fiber.Ctx) error {
	param := c.Params("idOrSlug")

	var (
		post *models.Post
		err  error
	)
	if isNumeric(param) {
		id, _ := c.ParamsInt("idOrSlug")
		post, err = s.postRepo.GetByID(c.UserContext(), uint(id))
	} else {
		post, err = s.postRepo.GetBySlug(c.UserContext(), param)
	}
	if err != nil {
		if repository.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post"))
		}
		middleware.Logger.ErrorContext(c.UserContext(), "get post failed",
			slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewStorageError("Failed to fetch post"))
	}

	if _, ok := s.optionalIdentity(c); !ok {
		post = post.Redacted()
	}

	return c.JSON(post)
}

type createPostRequest struct {
	Title   string          `json:"title"`
	Content string          `json:"content"`
	Slug    string          `json:"slug"`
	Date    *string         `json:"date"`
	Cover   *string         `json:"cover"`
	Tag     json.RawMessage `json:"tag"`
	Author  string          `json:"author"`
}

// CreatePost handles POST /posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ident := c.Locals("identity").(*auth.Identity)

	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" || content == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Title and content are required"))
	}

	// The slug comes from the request when supplied, otherwise it is derived
	// from the title. Either way it is normalized before validation.
	slug := req.Slug
	if strings.TrimSpace(slug) == "" {
		slug = title
	}
	slug = validation.ToSlug(slug)
	if !validation.IsValidSlug(slug) {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(slugCharsetMessage))
	}

	author := ident.ID
	if req.Author != "" {
		if !validation.IsValidUUID(req.Author) {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Author must be a valid UUID"))
		}
		author = req.Author
	}

	post := &models.Post{
		Title:   title,
		Content: content,
		Slug:    slug,
		Date:    req.Date,
		Cover:   req.Cover,
		Tag:     req.Tag,
		Author:  &author,
	}

	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		if repository.IsDuplicateSlug(err) {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Slug already exists"))
		}
		middleware.Logger.ErrorContext(c.UserContext(), "create post failed",
			slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewStorageError("Failed to create post"))
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

type updatePostRequest struct {
	Title   *string         `json:"title"`
	Content *string         `json:"content"`
	Slug    *string         `json:"slug"`
	Date    *string         `json:"date"`
	Cover   *string         `json:"cover"`
	Tag     json.RawMessage `json:"tag"`
	Author  *string         `json:"author"`
}

// UpdatePost handles PUT /posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	var req updatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	fields := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Title cannot be empty"))
		}
		fields["title"] = title
	}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Content cannot be empty"))
		}
		fields["content"] = content
	}
	if req.Slug != nil {
		slug := validation.ToSlug(*req.Slug)
		if !validation.IsValidSlug(slug) {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(slugCharsetMessage))
		}
		fields["slug"] = slug
	}
	if req.Date != nil {
		fields["date"] = *req.Date
	}
	if req.Cover != nil {
		fields["cover"] = *req.Cover
	}
	if req.Tag != nil {
		fields["tag"] = req.Tag
	}
	if req.Author != nil {
		if !validation.IsValidUUID(*req.Author) {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Author must be a valid UUID"))
		}
		fields["author"] = *req.Author
	}

	// Rejected before any store call.
	if len(fields) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No fields to update"))
	}

	post, err := s.postRepo.Update(c.UserContext(), id, fields)
	if err != nil {
		switch {
		case repository.IsNotFound(err):
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post"))
		case repository.IsDuplicateSlug(err):
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Slug already exists"))
		default:
			middleware.Logger.ErrorContext(c.UserContext(), "update post failed",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewStorageError("Failed to update post"))
		}
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /posts/:id. The delete is scoped to rows owned by
// the resolved identity, so another identity's post reads as not found.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ident := c.Locals("identity").(*auth.Identity)

	id, err := s.parsePostID(c)
	if err != nil {
		return nil
	}

	if err := s.postRepo.Delete(c.UserContext(), id, ident.ID); err != nil {
		if repository.IsNotFound(err) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError("Post"))
		}
		middleware.Logger.ErrorContext(c.UserContext(), "delete post failed",
			slog.String("error", err.Error()))
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewStorageError("Failed to delete post"))
	}

	return c.SendStatus(fiber.StatusNoContent)
}
