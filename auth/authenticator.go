package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther runs the login, refresh and principal resolution flows
type Auther struct {
	provider     *UserProvider
	users        UserFinder
	tokenService TokenService
	logger       Logger
	activitySink ActivitySink
	clock        Clock
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users UserFinder, tokenService TokenService, hasher *BcryptHasher) *Auther {
	return &Auther{
		provider:     NewUserProvider(users, hasher),
		users:        users,
		tokenService: tokenService,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
		clock:        UTCNow,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.provider.WithLogger(logger)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login exchanges an email or username plus password for an access token
// whose subject is the user's email.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	user, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Debug("Login verify identity error", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, 0, identifier, map[string]any{
			"error": err.Error(),
		})
		return "", err
	}

	token, err := s.tokenService.Issue(user.Email)
	if err != nil {
		s.logger.Error("Login failed to issue token", "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, user.ID, identifier, map[string]any{
			"error": err.Error(),
		})
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, user.ID, identifier, nil)

	return token, nil
}

// Refresh issues a fresh token for a user already resolved from a valid
// token. Expired tokens never reach here.
func (s *Auther) Refresh(ctx context.Context, user *User) (string, error) {
	if user == nil {
		return "", ErrCouldNotValidateCredentials
	}

	token, err := s.tokenService.Issue(user.Email)
	if err != nil {
		s.logger.Error("Refresh failed to issue token", "error", err)
		return "", err
	}

	s.emitAuthEvent(ctx, ActivityEventTokenRefresh, user.ID, user.Email, nil)

	return token, nil
}

// CurrentUser resolves the bearer token into the user it was issued for.
func (s *Auther) CurrentUser(ctx context.Context, raw string) (*User, error) {
	claims, err := s.tokenService.Parse(raw)
	if err != nil {
		if IsTokenExpiredError(err) {
			return nil, ErrSignatureExpired
		}
		s.logger.Debug("CurrentUser token rejected", "error", err)
		return nil, ErrCouldNotValidateCredentials
	}

	user, err := s.users.GetByEmail(ctx, claims.Subject())
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrCouldNotValidateCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to resolve token subject")
	}

	return user, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, userID int64, identifier string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		UserID:     userID,
		Identifier: identifier,
		Metadata:   metadata,
		OccurredAt: s.now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error", "error", err)
	}
}

func (s *Auther) now() time.Time {
	if s.clock == nil {
		return UTCNow()
	}
	return s.clock()
}
