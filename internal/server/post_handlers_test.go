package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, search string, limit, offset int) ([]*models.Post, int64, error) {
	args := m.Called(ctx, search, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) Update(ctx context.Context, id uint, fields map[string]any) (*models.Post, error) {
	args := m.Called(ctx, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) Delete(ctx context.Context, id uint, author string) error {
	args := m.Called(ctx, id, author)
	return args.Error(0)
}

// newTestServer builds a Server around a mock repository and the local auth
// provider, with routes registered on a fresh app.
func newTestServer(t *testing.T) (*fiber.App, *MockPostRepository, *auth.LocalProvider) {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	mockRepo := new(MockPostRepository)
	provider := auth.NewLocalProvider("test-secret")
	s := &Server{
		config:       &config.Config{},
		authProvider: provider,
		postRepo:     mockRepo,
	}

	app := fiber.New()
	app.Get("/posts", s.GetPosts)
	app.Get("/posts/:idOrSlug", s.GetPost)
	protected := app.Group("/posts", s.AuthRequired())
	protected.Post("/", s.CreatePost)
	protected.Put("/:id", s.UpdatePost)
	protected.Delete("/:id", s.DeletePost)
	return app, mockRepo, provider
}

// signUpTestUser registers a user on the local provider and returns the token
// and identity ID.
func signUpTestUser(t *testing.T, provider *auth.LocalProvider, email string) (string, string) {
	t.Helper()
	sess, err := provider.SignUp(context.Background(), email, "hunter22")
	require.NoError(t, err)
	return sess.AccessToken, sess.User.ID
}

func TestGetPostsRedaction(t *testing.T) {
	app, mockRepo, provider := newTestServer(t)
	token, userID := signUpTestUser(t, provider, "alice@example.com")

	posts := []*models.Post{
		{ID: 1, Title: "First", Slug: "first", Author: &userID},
	}
	mockRepo.On("List", mock.Anything, "", 10, 0).Return(posts, int64(1), nil)

	t.Run("Unauthenticated Sees Null Author", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.PostList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		assert.Equal(t, 1, list.Page)
		assert.Equal(t, 10, list.Limit)
		assert.Equal(t, int64(1), list.Total)
		require.Len(t, list.Posts, 1)
		assert.Nil(t, list.Posts[0].Author)
	})

	t.Run("Authenticated Sees Author", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.PostList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		require.Len(t, list.Posts, 1)
		require.NotNil(t, list.Posts[0].Author)
		assert.Equal(t, userID, *list.Posts[0].Author)
	})

	t.Run("Garbage Token Reads As Anonymous", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var list models.PostList
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
		require.Len(t, list.Posts, 1)
		assert.Nil(t, list.Posts[0].Author)
	})
}

func TestGetPostsPagination(t *testing.T) {
	app, mockRepo, _ := newTestServer(t)

	tests := []struct {
		name           string
		url            string
		expectedSearch string
		expectedLimit  int
		expectedOffset int
	}{
		{"Defaults", "/posts", "", 10, 0},
		{"Page Two", "/posts?page=2&limit=5", "", 5, 5},
		{"Limit Clamped To Max", "/posts?limit=500", "", 100, 0},
		{"Page Floor Of One", "/posts?page=0", "", 10, 0},
		{"Search Term Forwarded", "/posts?q=gardening", "gardening", 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo.On("List", mock.Anything, tt.expectedSearch, tt.expectedLimit, tt.expectedOffset).
				Return([]*models.Post{}, int64(0), nil).Once()

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestGetPost(t *testing.T) {
	app, mockRepo, _ := newTestServer(t)

	t.Run("By Slug", func(t *testing.T) {
		mockRepo.On("GetBySlug", mock.Anything, "hello-world").
			Return(&models.Post{ID: 1, Slug: "hello-world", Title: "Hello"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/posts/hello-world", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("By ID", func(t *testing.T) {
		mockRepo.On("GetByID", mock.Anything, uint(42)).
			Return(&models.Post{ID: 42, Slug: "some-post"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/posts/42", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockRepo.On("GetBySlug", mock.Anything, "missing").
			Return(nil, gorm.ErrRecordNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/posts/missing", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Post not found", body.Error)
	})
}

func TestCreatePost(t *testing.T) {
	app, mockRepo, provider := newTestServer(t)
	token, userID := signUpTestUser(t, provider, "alice@example.com")

	tests := []struct {
		name           string
		body           map[string]any
		mockSetup      func()
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Success With Derived Slug And Default Author",
			body: map[string]any{
				"title":   "Hello, World!!!",
				"content": "Body text",
			},
			mockSetup: func() {
				mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
					return p.Slug == "hello-world" && p.Author != nil && *p.Author == userID
				})).Return(nil).Once()
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Missing Fields",
			body: map[string]any{
				"title":   "  ",
				"content": "Body",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Title and content are required",
		},
		{
			name: "Invalid Explicit Author",
			body: map[string]any{
				"title":   "Post",
				"content": "Body",
				"author":  "not-a-uuid",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Author must be a valid UUID",
		},
		{
			name: "Duplicate Slug",
			body: map[string]any{
				"title":   "Shared",
				"content": "Body",
				"slug":    "shared-slug",
			},
			mockSetup: func() {
				mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
					return p.Slug == "shared-slug"
				})).Return(errDuplicateForTest).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "Slug already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mockSetup != nil {
				tt.mockSetup()
			}
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest(http.MethodPost, "/posts", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedError != "" {
				var errBody models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&errBody))
				assert.Equal(t, tt.expectedError, errBody.Error)
			}
		})
	}
	mockRepo.AssertExpectations(t)
}

func TestUpdatePost(t *testing.T) {
	app, mockRepo, provider := newTestServer(t)
	token, _ := signUpTestUser(t, provider, "alice@example.com")

	doPut := func(t *testing.T, path string, body map[string]any) *http.Response {
		t.Helper()
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("No Fields Rejected Before Store", func(t *testing.T) {
		resp := doPut(t, "/posts/1", map[string]any{})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Supplied Slug Is Normalized", func(t *testing.T) {
		mockRepo.On("Update", mock.Anything, uint(1), map[string]any{"slug": "new-title"}).
			Return(&models.Post{ID: 1, Slug: "new-title"}, nil).Once()

		resp := doPut(t, "/posts/1", map[string]any{"slug": "New Title!"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockRepo.On("Update", mock.Anything, uint(99), mock.Anything).
			Return(nil, gorm.ErrRecordNotFound).Once()

		resp := doPut(t, "/posts/99", map[string]any{"title": "X"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		resp := doPut(t, "/posts/abc", map[string]any{"title": "X"})
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	mockRepo.AssertExpectations(t)
}

func TestDeletePost(t *testing.T) {
	app, mockRepo, provider := newTestServer(t)
	token, userID := signUpTestUser(t, provider, "alice@example.com")

	doDelete := func(t *testing.T, path string) *http.Response {
		t.Helper()
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo.On("Delete", mock.Anything, uint(1), userID).Return(nil).Once()

		resp := doDelete(t, "/posts/1")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockRepo.On("Delete", mock.Anything, uint(2), userID).
			Return(gorm.ErrRecordNotFound).Once()

		resp := doDelete(t, "/posts/2")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Post not found", body.Error)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		resp := doDelete(t, "/posts/abc")
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
	mockRepo.AssertExpectations(t)
}
