package auth

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetSigningMethod() string
	// GetTokenExpiration returns the access token lifetime in minutes
	GetTokenExpiration() int
	GetPasswordHashCost() int
}

// UserFinder is the read side of the user store the auth core needs
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print("[ERR] AUTH " + newline(format+pairs(args)))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Print("[WRN] AUTH " + newline(format+pairs(args)))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print("[INF] AUTH " + newline(format+pairs(args)))
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print("[DBG] AUTH " + newline(format+pairs(args)))
}

// NopLogger discards everything, handy in tests
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// pairs renders key/value arguments as " key=value"
func pairs(args []any) string {
	out := ""
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			out += fmt.Sprintf(" %v=%v", args[i], args[i+1])
			continue
		}
		out += fmt.Sprintf(" %v", args[i])
	}
	return out
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
