package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenService issues and parses access tokens
type TokenService interface {
	Issue(subject string) (string, error)
	Parse(token string) (*JWTClaims, error)
}

// TokenServiceImpl implements the TokenService interface using a shared
// HMAC secret.
type TokenServiceImpl struct {
	signingKey    []byte
	signingMethod jwt.SigningMethod
	lifetime      time.Duration
	clock         Clock
	logger        Logger
}

var _ TokenService = (*TokenServiceImpl)(nil)

// TokenServiceOption configures a TokenServiceImpl
type TokenServiceOption func(*TokenServiceImpl)

// WithClock overrides the clock used for both issuance and validation
func WithClock(clock Clock) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if clock != nil {
			ts.clock = clock
		}
	}
}

// WithTokenLogger sets the logger
func WithTokenLogger(logger Logger) TokenServiceOption {
	return func(ts *TokenServiceImpl) {
		if logger != nil {
			ts.logger = logger
		}
	}
}

// NewTokenService creates a new TokenService instance from config. Only the
// HMAC family is accepted since the key is a shared secret.
func NewTokenService(cfg Config, opts ...TokenServiceOption) (*TokenServiceImpl, error) {
	method, err := resolveSigningMethod(cfg.GetSigningMethod())
	if err != nil {
		return nil, err
	}

	if cfg.GetSigningKey() == "" {
		return nil, errors.New("signing key must not be empty", errors.CategoryBadInput).
			WithTextCode("INVALID_SIGNING_KEY")
	}

	if cfg.GetTokenExpiration() <= 0 {
		return nil, errors.New("token expiration must be a positive number of minutes", errors.CategoryBadInput).
			WithTextCode("INVALID_TOKEN_EXPIRATION").
			WithMetadata(map[string]any{"minutes": cfg.GetTokenExpiration()})
	}

	ts := &TokenServiceImpl{
		signingKey:    []byte(cfg.GetSigningKey()),
		signingMethod: method,
		lifetime:      time.Duration(cfg.GetTokenExpiration()) * time.Minute,
		clock:         UTCNow,
		logger:        defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ts)
		}
	}

	return ts, nil
}

// Lifetime returns how long issued tokens stay valid
func (ts *TokenServiceImpl) Lifetime() time.Duration {
	return ts.lifetime
}

// Issue signs a token for subject valid from now until now + lifetime
func (ts *TokenServiceImpl) Issue(subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("token subject must not be empty", errors.CategoryInternal)
	}

	now := ts.clock().UTC()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.lifetime)),
		},
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(ts.signingMethod, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Parse verifies signature, algorithm and expiry before returning claims.
// Tokens past expiry yield ErrTokenExpired, everything else that does not
// verify or carries no subject yields ErrTokenMalformed.
func (ts *TokenServiceImpl) Parse(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Warn("TokenService parse encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	},
		jwt.WithValidMethods([]string{ts.signingMethod.Alg()}),
		jwt.WithTimeFunc(ts.clock),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	if strings.TrimSpace(claims.Subject()) == "" {
		ts.logger.Debug("TokenService parse rejected token without subject", "jti", claims.TokenID())
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

func resolveSigningMethod(alg string) (jwt.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case jwt.SigningMethodHS256.Alg():
		return jwt.SigningMethodHS256, nil
	case jwt.SigningMethodHS384.Alg():
		return jwt.SigningMethodHS384, nil
	case jwt.SigningMethodHS512.Alg():
		return jwt.SigningMethodHS512, nil
	default:
		return nil, errors.New("unsupported signing algorithm", errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_ALGORITHM").
			WithMetadata(map[string]any{"algorithm": alg})
	}
}
