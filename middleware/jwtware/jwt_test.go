package jwtware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/auth"
	"github.com/goliatone/go-todos/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver knows a single token
type fakeResolver struct {
	token string
	user  *auth.User
	calls int
}

func (f *fakeResolver) CurrentUser(_ context.Context, token string) (*auth.User, error) {
	f.calls++
	if token == "expired" {
		return nil, auth.ErrSignatureExpired
	}
	if token != f.token {
		return nil, auth.ErrCouldNotValidateCredentials
	}
	return f.user, nil
}

type harness struct {
	app      *fiber.App
	router   router.Router[*fiber.App]
	resolver *fakeResolver
	lastErr  error
}

// newServer returns a fiber backed router whose error handler records the
// error that ended the request.
func newServer(h *harness) router.Server[*fiber.App] {
	return router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		h.app = fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				h.lastErr = err
				return c.SendStatus(fiber.StatusUnauthorized)
			},
		})
		return h.app
	})
}

func newHarness(t *testing.T, cfg jwtware.Config) *harness {
	t.Helper()

	h := &harness{
		resolver: &fakeResolver{
			token: "good-token",
			user:  &auth.User{ID: 7, Username: "alice", Email: "alice@example.com"},
		},
	}

	if cfg.Resolver == nil {
		cfg.Resolver = h.resolver
	}

	srv := newServer(h)
	h.router = srv.Router()

	me := func(c router.Context) error {
		user, ok := jwtware.CurrentUser(c)
		require.True(t, ok)

		fromCtx, ok := auth.FromContext(c.Context())
		require.True(t, ok)
		assert.Equal(t, user, fromCtx)

		return c.SendString(user.Username)
	}

	protected := jwtware.New(cfg)
	h.router.Get("/me", me, protected)
	h.router.Get("/me/:token", me, protected)

	return h
}

func (h *harness) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	res, err := h.app.Test(req, -1)
	require.NoError(t, err)
	return res
}

func TestNew_HeaderExtraction(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		status  int
		wantErr error
	}{
		{name: "valid bearer", header: "Bearer good-token", status: fiber.StatusOK},
		{name: "scheme is case insensitive", header: "bearer good-token", status: fiber.StatusOK},
		{name: "missing header", header: "", status: fiber.StatusUnauthorized, wantErr: auth.ErrNotAuthenticated},
		{name: "wrong scheme", header: "Basic good-token", status: fiber.StatusUnauthorized, wantErr: auth.ErrNotAuthenticated},
		{name: "scheme only", header: "Bearer", status: fiber.StatusUnauthorized, wantErr: auth.ErrNotAuthenticated},
		{name: "no separator", header: "Bearergood-token", status: fiber.StatusUnauthorized, wantErr: auth.ErrNotAuthenticated},
		{name: "unknown token", header: "Bearer bad-token", status: fiber.StatusUnauthorized, wantErr: auth.ErrCouldNotValidateCredentials},
		{name: "expired token", header: "Bearer expired", status: fiber.StatusUnauthorized, wantErr: auth.ErrSignatureExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, jwtware.Config{})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}

			res := h.do(t, req)
			assert.Equal(t, tt.status, res.StatusCode)

			if tt.wantErr != nil {
				assert.ErrorIs(t, h.lastErr, tt.wantErr)
			} else {
				assert.NoError(t, h.lastErr)
			}
		})
	}
}

func TestNew_MissingTokenSkipsResolver(t *testing.T) {
	h := newHarness(t, jwtware.Config{})

	res := h.do(t, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, 0, h.resolver.calls)
}

func TestNew_TokenLookupSources(t *testing.T) {
	tests := []struct {
		name   string
		lookup string
		build  func() *http.Request
	}{
		{
			name:   "query",
			lookup: "query:access_token",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/me?access_token=good-token", nil)
			},
		},
		{
			name:   "cookie",
			lookup: "cookie:jwt",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/me", nil)
				req.AddCookie(&http.Cookie{Name: "jwt", Value: "good-token"})
				return req
			},
		},
		{
			name:   "param",
			lookup: "param:token",
			build: func() *http.Request {
				return httptest.NewRequest(http.MethodGet, "/me/good-token", nil)
			},
		},
		{
			name:   "header falls through to cookie",
			lookup: "header:Authorization,cookie:access_token",
			build: func() *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/me", nil)
				req.AddCookie(&http.Cookie{Name: "access_token", Value: "good-token"})
				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, jwtware.Config{TokenLookup: tt.lookup})
			res := h.do(t, tt.build())
			assert.Equal(t, fiber.StatusOK, res.StatusCode)
			assert.NoError(t, h.lastErr)
		})
	}
}

func TestGetExtractors(t *testing.T) {
	assert.Len(t, jwtware.GetExtractors("header:Authorization,cookie:jwt,query:t,param:token"), 4)
	assert.Len(t, jwtware.GetExtractors(" header : Authorization , bogus:x, nocolon"), 1)
	assert.Empty(t, jwtware.GetExtractors(""))
}

func TestNew_Filter(t *testing.T) {
	h := &harness{}
	srv := newServer(h)

	srv.Router().Get("/open", func(c router.Context) error {
		_, ok := jwtware.CurrentUser(c)
		assert.False(t, ok)
		return c.Status(fiber.StatusNoContent).SendString("")
	}, jwtware.New(jwtware.Config{
		Resolver: &fakeResolver{},
		Filter:   func(c router.Context) bool { return true },
	}))

	res, err := h.app.Test(httptest.NewRequest(http.MethodGet, "/open", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, res.StatusCode)
}

func TestNew_ValidationListeners(t *testing.T) {
	seen := 0
	h := newHarness(t, jwtware.Config{
		ValidationListeners: []jwtware.ValidationListener{
			nil,
			func(c router.Context, user *auth.User) error {
				seen++
				if user.ID != 7 {
					return auth.ErrNotEnoughPermissions
				}
				return nil
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")

	res := h.do(t, req)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, 1, seen)

	h.resolver.user = &auth.User{ID: 8, Username: "bob"}
	res = h.do(t, req)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	assert.ErrorIs(t, h.lastErr, auth.ErrNotEnoughPermissions)
	assert.Equal(t, 2, seen)
}

func TestNew_RequiresResolver(t *testing.T) {
	assert.Panics(t, func() {
		jwtware.New()
	})
}

func TestCurrentUser_CustomKey(t *testing.T) {
	h := &harness{}
	srv := newServer(h)

	srv.Router().Get("/", func(c router.Context) error {
		_, ok := jwtware.CurrentUser(c)
		assert.False(t, ok)

		user, ok := jwtware.CurrentUser(c, "principal")
		require.True(t, ok)
		assert.Equal(t, int64(1), user.ID)
		return c.SendString("ok")
	}, jwtware.New(jwtware.Config{
		Resolver:    &fakeResolver{token: "t", user: &auth.User{ID: 1}},
		ContextKey:  "principal",
		TokenLookup: "query:t",
	}))

	res, err := h.app.Test(httptest.NewRequest(http.MethodGet, "/?t=t", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
