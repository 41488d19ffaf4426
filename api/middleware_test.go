package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-todos/api"
	"github.com/goliatone/go-todos/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter(t *testing.T) {
	limiter := api.NewIPRateLimiter(1, 2)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))

	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per ip")
	assert.Same(t, limiter.GetLimiter("10.0.0.1"), limiter.GetLimiter("10.0.0.1"))
}

func TestServer_LoginRateLimit(t *testing.T) {
	ts := newTestServer(t, api.WithLoginRateLimit(1, 2))
	ts.register(t, "alice", "alice@example.com", "secret")

	assert.Equal(t, http.StatusOK, ts.login(t, "alice", "secret").status)
	assert.Equal(t, http.StatusBadRequest, ts.login(t, "alice", "wrong").status)

	limited := ts.login(t, "alice", "secret")
	assert.Equal(t, http.StatusTooManyRequests, limited.status)
	assert.Equal(t, "Too many login attempts", limited.detail())
	assert.Equal(t, "1", limited.header.Get(fiber.HeaderRetryAfter))

	// other routes are not limited
	res := ts.json(t, http.MethodGet, "/users/", "", nil)
	assert.Equal(t, http.StatusOK, res.status)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{name: "auth error", err: auth.ErrCouldNotValidateCredentials, status: http.StatusUnauthorized, detail: "Could not validate credentials"},
		{name: "forbidden", err: auth.ErrNotEnoughPermissions, status: http.StatusForbidden, detail: "Not enough permissions"},
		{name: "fiber error", err: fiber.ErrMethodNotAllowed, status: http.StatusMethodNotAllowed, detail: "Method Not Allowed"},
		{name: "category only", err: errors.New("gone", errors.CategoryNotFound), status: http.StatusNotFound, detail: "gone"},
		{name: "internal error is masked", err: errors.New("db exploded", errors.CategoryInternal), status: http.StatusInternalServerError, detail: "Internal Server Error"},
		{name: "plain error is masked", err: assert.AnError, status: http.StatusInternalServerError, detail: "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: api.ErrorHandler(auth.NopLogger{})})
			app.Get("/", func(c *fiber.Ctx) error {
				return tt.err
			})

			res, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
			require.NoError(t, err)

			var body api.ErrorResponse
			require.NoError(t, decode(res, &body))

			assert.Equal(t, tt.status, res.StatusCode)
			assert.Equal(t, tt.detail, body.Detail)
		})
	}
}
