package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thoughtstream/internal/auth"
	"thoughtstream/internal/config"
	"thoughtstream/internal/models"
	"thoughtstream/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubPostRepo implements repository.PostRepository with function fields.
type stubPostRepo struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint) (*models.Post, error)
	getByUserIDFn func(context.Context, uint, int, int) ([]*models.Post, error)
	listFn        func(context.Context, int, int) ([]*models.Post, error)
	updateFn      func(context.Context, *models.Post) error
	deleteFn      func(context.Context, uint) error
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *stubPostRepo) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubPostRepo) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset)
}
func (s *stubPostRepo) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *stubPostRepo) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *stubPostRepo) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

// stubCommentRepo implements repository.CommentRepository with function fields.
type stubCommentRepo struct {
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint) ([]*models.Comment, error)
	listByParentFn func(context.Context, uint, uint) ([]*models.Comment, error)
	updateFn       func(context.Context, *models.Comment) error
	deleteFn       func(context.Context, *models.Comment) error
}

func (s *stubCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *stubCommentRepo) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *stubCommentRepo) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *stubCommentRepo) ListByParent(ctx context.Context, postID, parentID uint) ([]*models.Comment, error) {
	return s.listByParentFn(ctx, postID, parentID)
}
func (s *stubCommentRepo) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *stubCommentRepo) Delete(ctx context.Context, comment *models.Comment) error {
	return s.deleteFn(ctx, comment)
}

// testAPI wires a Server with stubbed repositories into a Fiber app with the
// production route shape, including the authentication gate on the protected
// group.
type testAPI struct {
	app         *fiber.App
	server      *Server
	postRepo    *stubPostRepo
	commentRepo *stubCommentRepo
	users       map[uint]*models.User
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	postRepo := &stubPostRepo{
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:     func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		getByUserIDFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		listFn:        func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
	}
	commentRepo := &stubCommentRepo{
		createFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:      func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn:   func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listByParentFn: func(_ context.Context, _, _ uint) ([]*models.Comment, error) { return nil, nil },
		updateFn:       func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:       func(_ context.Context, _ *models.Comment) error { return nil },
	}

	api := &testAPI{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		users: map[uint]*models.User{
			1: {ID: 1, Username: "alice", Email: "alice@example.com"},
			2: {ID: 2, Username: "bob", Email: "bob@example.com"},
		},
	}

	s := &Server{
		config:      &config.Config{JWTSecret: "test_secret"},
		tokens:      auth.NewCodec("test_secret", time.Hour, 30*24*time.Hour, 7*24*time.Hour),
		postRepo:    postRepo,
		commentRepo: commentRepo,
	}
	s.postService = service.NewPostService(postRepo)
	s.commentService = service.NewCommentService(commentRepo, postRepo)
	api.server = s

	// The gate resolves subjects against the in-memory user table
	s.userRepo = userLookupFunc(func(_ context.Context, id uint) (*models.User, error) {
		if u, ok := api.users[id]; ok {
			return u, nil
		}
		return nil, models.NewNotFoundError("User", id)
	})

	app := fiber.New()
	apiGroup := app.Group("/api")

	publicPosts := apiGroup.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	protected := apiGroup.Group("", s.AuthRequired())
	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Put("/:id/comments/:commentId", s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	api.app = app
	return api
}

// userLookupFunc adapts a lookup function to the subset of UserRepository the
// server needs for resolving token subjects.
type userLookupFunc func(ctx context.Context, id uint) (*models.User, error)

func (f userLookupFunc) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return f(ctx, id)
}
func (f userLookupFunc) GetByEmail(context.Context, string) (*models.User, error) { return nil, nil }
func (f userLookupFunc) GetByUsername(context.Context, string) (*models.User, error) {
	return nil, nil
}
func (f userLookupFunc) Create(context.Context, *models.User) error { return nil }
func (f userLookupFunc) Update(context.Context, *models.User) error { return nil }
func (f userLookupFunc) Delete(context.Context, uint) error         { return nil }

func (a *testAPI) tokenFor(t *testing.T, userID uint) string {
	t.Helper()
	token, err := a.server.tokens.Issue(userID, auth.KindAccess, false)
	require.NoError(t, err)
	return token
}

func (a *testAPI) request(t *testing.T, method, path, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var reqBody *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestCreatePost_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.request(t, http.MethodPost, "/api/posts", "", map[string]any{
		"title": "t", "content": "c",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, models.CodeNoCredentials, body["code"])
}

func TestCreatePost_Success(t *testing.T) {
	api := newTestAPI(t)

	var created *models.Post
	api.postRepo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 11
		created = p
		return nil
	}
	api.postRepo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Title: "Hello", Content: "World", UserID: 1}, nil
	}

	resp, body := api.request(t, http.MethodPost, "/api/posts", api.tokenFor(t, 1), map[string]any{
		"title":   "Hello",
		"content": "World",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, float64(11), body["id"])
	require.NotNil(t, created)
	assert.Equal(t, uint(1), created.UserID)
}

func TestCreatePost_Validation(t *testing.T) {
	api := newTestAPI(t)

	resp, body := api.request(t, http.MethodPost, "/api/posts", api.tokenFor(t, 1), map[string]any{
		"title": "", "content": "body",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, models.CodeValidation, body["code"])
}

func TestGetPosts_Public(t *testing.T) {
	api := newTestAPI(t)
	api.postRepo.listFn = func(_ context.Context, limit, offset int) ([]*models.Post, error) {
		assert.Equal(t, 20, limit)
		assert.Equal(t, 0, offset)
		return []*models.Post{{ID: 1}, {ID: 2}}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	resp, err := api.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	assert.Len(t, posts, 2)
}

func TestGetPost_NotFound(t *testing.T) {
	api := newTestAPI(t)
	api.postRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Post, error) {
		return nil, gorm.ErrRecordNotFound
	}

	req := httptest.NewRequest(http.MethodGet, "/api/posts/99", nil)
	resp, err := api.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdatePost_Ownership(t *testing.T) {
	api := newTestAPI(t)
	api.postRepo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, Title: "old", Content: "old", UserID: 1}, nil
	}

	t.Run("Owner Can Update", func(t *testing.T) {
		resp, body := api.request(t, http.MethodPut, "/api/posts/5", api.tokenFor(t, 1), map[string]any{
			"title": "new",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "new", body["title"])
	})

	t.Run("Non-Owner Gets 403", func(t *testing.T) {
		resp, body := api.request(t, http.MethodPut, "/api/posts/5", api.tokenFor(t, 2), map[string]any{
			"title": "hijack",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, models.CodeNotOwner, body["code"])
	})
}

func TestDeletePost(t *testing.T) {
	api := newTestAPI(t)
	api.postRepo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1}, nil
	}

	t.Run("Owner Deletes", func(t *testing.T) {
		deleted := false
		api.postRepo.deleteFn = func(_ context.Context, _ uint) error {
			deleted = true
			return nil
		}
		resp, _ := api.request(t, http.MethodDelete, "/api/posts/5", api.tokenFor(t, 1), nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.True(t, deleted)
	})

	t.Run("Non-Owner Gets 403", func(t *testing.T) {
		resp, _ := api.request(t, http.MethodDelete, "/api/posts/5", api.tokenFor(t, 2), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestProtectedRoute_GateCodes(t *testing.T) {
	api := newTestAPI(t)

	t.Run("Expired Token", func(t *testing.T) {
		expiredCodec := auth.NewCodec("test_secret", -time.Hour, time.Hour, time.Hour)
		token, err := expiredCodec.Issue(1, auth.KindAccess, false)
		require.NoError(t, err)

		resp, body := api.request(t, http.MethodPost, "/api/posts", token, map[string]any{
			"title": "t", "content": "c",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeTokenExpired, body["code"])
	})

	t.Run("Unknown Subject", func(t *testing.T) {
		resp, body := api.request(t, http.MethodPost, "/api/posts", api.tokenFor(t, 42), map[string]any{
			"title": "t", "content": "c",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, models.CodeUnknownSubject, body["code"])
	})
}
