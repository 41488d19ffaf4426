package auth

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-todos/todos"
)

// RepositoryManager exposes all repositories plus the multi table
// operations that must run in a single transaction.
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Todos() todos.Todos

	// RegisterUser inserts a user after checking username and email are free
	RegisterUser(ctx context.Context, user *User) (*User, error)
	// UpdateUser persists new credentials, ErrUserConflict on collisions
	UpdateUser(ctx context.Context, user *User) (*User, error)
	// DeleteUser removes the user and every todo they own
	DeleteUser(ctx context.Context, id int64) error
}
