package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-todos/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// movableClock lets a test step time across the expiry boundary
type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time {
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestTokenService(t *testing.T, clock *movableClock) *auth.TokenServiceImpl {
	t.Helper()
	ts, err := auth.NewTokenService(defaultTestConfig(), auth.WithClock(clock.Now), auth.WithTokenLogger(auth.NopLogger{}))
	require.NoError(t, err)
	return ts
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name    string
		cfg     testConfig
		wantErr bool
	}{
		{name: "HS256", cfg: testConfig{key: "k", alg: "HS256", minutes: 30}},
		{name: "HS384", cfg: testConfig{key: "k", alg: "HS384", minutes: 30}},
		{name: "HS512 lower case", cfg: testConfig{key: "k", alg: "hs512", minutes: 30}},
		{name: "RS256 is rejected", cfg: testConfig{key: "k", alg: "RS256", minutes: 30}, wantErr: true},
		{name: "none is rejected", cfg: testConfig{key: "k", alg: "none", minutes: 30}, wantErr: true},
		{name: "empty key", cfg: testConfig{key: "", alg: "HS256", minutes: 30}, wantErr: true},
		{name: "zero lifetime", cfg: testConfig{key: "k", alg: "HS256", minutes: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := auth.NewTokenService(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, ts)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Duration(tt.cfg.minutes)*time.Minute, ts.Lifetime())
		})
	}
}

func TestTokenService_IssueAndParse(t *testing.T) {
	clock := &movableClock{now: time.Date(2023, 12, 11, 12, 0, 0, 0, time.UTC)}
	ts := newTestTokenService(t, clock)

	token, err := ts.Issue("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ts.Parse(token)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", claims.Subject())
	assert.Equal(t, clock.now, claims.IssuedAt().UTC())
	assert.Equal(t, clock.now.Add(30*time.Minute), claims.Expires().UTC())
	assert.NotEmpty(t, claims.TokenID())
}

func TestTokenService_IssueTwiceGivesDistinctTokens(t *testing.T) {
	clock := &movableClock{now: time.Date(2023, 12, 11, 12, 0, 0, 0, time.UTC)}
	ts := newTestTokenService(t, clock)

	first, err := ts.Issue("alice@example.com")
	require.NoError(t, err)
	second, err := ts.Issue("alice@example.com")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenService_ExpiryBoundary(t *testing.T) {
	issuedAt := time.Date(2023, 12, 11, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		advance time.Duration
		expired bool
	}{
		{name: "one second before expiry", advance: 30*time.Minute - time.Second, expired: false},
		{name: "exactly at expiry", advance: 30 * time.Minute, expired: true},
		{name: "one second after expiry", advance: 30*time.Minute + time.Second, expired: true},
		{name: "thirty one minutes later", advance: 31 * time.Minute, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &movableClock{now: issuedAt}
			ts := newTestTokenService(t, clock)

			token, err := ts.Issue("alice@example.com")
			require.NoError(t, err)

			clock.Advance(tt.advance)

			claims, err := ts.Parse(token)
			if tt.expired {
				assert.ErrorIs(t, err, auth.ErrTokenExpired)
				assert.True(t, auth.IsTokenExpiredError(err))
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice@example.com", claims.Subject())
		})
	}
}

func TestTokenService_ParseRejects(t *testing.T) {
	now := time.Date(2023, 12, 11, 12, 0, 0, 0, time.UTC)
	clock := &movableClock{now: now}
	ts := newTestTokenService(t, clock)

	sign := func(method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}

	valid, err := ts.Issue("alice@example.com")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "invalid_token"},
		{name: "empty", token: ""},
		{
			name:  "wrong key",
			token: sign(jwt.SigningMethodHS256, []byte("other-key"), jwt.MapClaims{"sub": "alice@example.com", "exp": now.Add(time.Hour).Unix()}),
		},
		{
			name:  "other HMAC algorithm",
			token: sign(jwt.SigningMethodHS512, []byte("test-signing-key"), jwt.MapClaims{"sub": "alice@example.com", "exp": now.Add(time.Hour).Unix()}),
		},
		{
			name:  "unsigned",
			token: sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"sub": "alice@example.com", "exp": now.Add(time.Hour).Unix()}),
		},
		{
			name:  "missing subject",
			token: sign(jwt.SigningMethodHS256, []byte("test-signing-key"), jwt.MapClaims{"no-email": "test", "exp": now.Add(time.Hour).Unix()}),
		},
		{
			name:  "empty subject",
			token: sign(jwt.SigningMethodHS256, []byte("test-signing-key"), jwt.MapClaims{"sub": "", "exp": now.Add(time.Hour).Unix()}),
		},
		{
			name:  "missing expiry",
			token: sign(jwt.SigningMethodHS256, []byte("test-signing-key"), jwt.MapClaims{"sub": "alice@example.com"}),
		},
		{
			name:  "tampered payload",
			token: valid[:len(valid)-4] + "abcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Parse(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.True(t, auth.IsMalformedError(err), "got %v", err)
			assert.False(t, auth.IsTokenExpiredError(err))
		})
	}
}

func TestTokenService_FixedClock(t *testing.T) {
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	ts, err := auth.NewTokenService(defaultTestConfig(), auth.WithClock(auth.FixedClock(at)))
	require.NoError(t, err)

	token, err := ts.Issue("bob@example.com")
	require.NoError(t, err)

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, at, claims.IssuedAt().UTC())
	assert.Equal(t, at.Add(ts.Lifetime()), claims.Expires().UTC())
}
