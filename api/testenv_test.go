package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/backend/auth"
	"github.com/inkwell-blog/backend/models"
)

// testEnv wires the real router and handlers against in-memory stores.
type testEnv struct {
	router *chi.Mux
	blogs  *fakeBlogStore
	users  *fakeUserStore
	tokens auth.TokenIssuer
}

func newTestEnv() *testEnv {
	blogs := newFakeBlogStore()
	users := newFakeUserStore()
	tokens := auth.NewTokenIssuer("test-secret")

	handlers := &routeHandlers{
		authHandler: newAuthHandler(users, tokens),
		blogHandler: newBlogHandler(blogs, users),
		userHandler: newUserHandler(blogs),
	}

	router := chi.NewRouter()
	setupRoutes(router, handlers, newAuthMiddleware(tokens, users))

	return &testEnv{
		router: router,
		blogs:  blogs,
		users:  users,
		tokens: tokens,
	}
}

// createUser inserts an account directly and returns it with a valid
// bearer token.
func (e *testEnv) createUser(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Role:     role,
	}
	require.NoError(t, e.users.Insert(context.Background(), user))

	token, err := e.tokens.Issue(user.ID.Hex())
	require.NoError(t, err)
	return user, token
}

// do performs a request against the router. A non-nil body is JSON
// encoded; a non-empty token is sent as a bearer header.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
}

// createBlog posts a blog through the API and returns the response view.
func (e *testEnv) createBlog(t *testing.T, token string, req createBlogRequest) BlogResponse {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/blogs", token, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var blog BlogResponse
	decodeBody(t, rec, &blog)
	return blog
}
