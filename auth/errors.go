package auth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeIncorrectCredentials = "INCORRECT_CREDENTIALS"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeSignatureExpired     = "SIGNATURE_EXPIRED"
	TextCodeNotAuthenticated     = "NOT_AUTHENTICATED"
	TextCodeNotEnoughPermissions = "NOT_ENOUGH_PERMISSIONS"
	TextCodeUserNotFound         = "USER_NOT_FOUND"
	TextCodeUserConflict         = "USER_CONFLICT"
	TextCodeUsernameExists       = "USERNAME_EXISTS"
	TextCodeEmailExists          = "EMAIL_EXISTS"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeTokenMalformed       = "TOKEN_MALFORMED"
	TextCodeEmptyPassword        = "EMPTY_PASSWORD"
	TextCodeInvalidCreds         = "PASSWORD_MISMATCH"
)

// ErrIncorrectCredentials is the single failure returned by Login, whether
// the account does not exist or the password does not match.
var ErrIncorrectCredentials = errors.New("Incorrect email or password", errors.CategoryAuth).
	WithTextCode(TextCodeIncorrectCredentials).
	WithCode(errors.CodeBadRequest)

// ErrCouldNotValidateCredentials is returned for malformed tokens, tokens
// without a subject and tokens whose subject no longer maps to a user.
var ErrCouldNotValidateCredentials = errors.New("Could not validate credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrSignatureExpired is returned when a well formed token is past its expiry.
var ErrSignatureExpired = errors.New("Signature has expired", errors.CategoryAuth).
	WithTextCode(TextCodeSignatureExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthenticated is returned when a request carries no bearer token
var ErrNotAuthenticated = errors.New("Not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrNotEnoughPermissions ownership violation on a user record
var ErrNotEnoughPermissions = errors.New("Not enough permissions", errors.CategoryAuthz).
	WithTextCode(TextCodeNotEnoughPermissions).
	WithCode(errors.CodeForbidden)

var ErrUserNotFound = errors.New("User not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrUserConflict is raised when the store rejects an update because the
// username or email is already taken.
var ErrUserConflict = errors.New("Username or Email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserConflict).
	WithCode(errors.CodeConflict)

var ErrUsernameExists = errors.New("Username already exists", errors.CategoryBadInput).
	WithTextCode(TextCodeUsernameExists).
	WithCode(errors.CodeBadRequest)

var ErrEmailExists = errors.New("Email already exists", errors.CategoryBadInput).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeBadRequest)

// ErrTokenExpired is the token codec expiry failure
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is the token codec decode failure. Tokens that verify
// but carry no subject end up here too.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString we do not hash empty passwords
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword password does not match digest
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
