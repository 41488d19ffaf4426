package auth

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserProvider verifies credentials against the user store
type UserProvider struct {
	store  UserFinder
	hasher *BcryptHasher
	logger Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder, hasher *BcryptHasher) *UserProvider {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &UserProvider{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity will find the user and compare the password. An unknown
// identifier and a wrong password both yield ErrIncorrectCredentials.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			u.hasher.burn(password)
			return nil, ErrIncorrectCredentials
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	ok, err := u.hasher.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		u.logger.Error("stored password hash could not be verified", "user_id", user.ID, "error", err)
		return nil, err
	}

	if !ok {
		return nil, ErrIncorrectCredentials
	}

	return user, nil
}
