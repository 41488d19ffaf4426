package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-todos/auth"
	"github.com/goliatone/go-todos/todos"
	"github.com/uptrace/bun"
)

type mngr struct {
	db     *bun.DB
	users  auth.Users
	todos  todos.Todos
	logger auth.Logger
}

var _ auth.RepositoryManager = (*mngr)(nil)

// Option configures the repository manager
type Option func(*mngr)

// WithLogger sets the logger used for transaction level events
func WithLogger(logger auth.Logger) Option {
	return func(m *mngr) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewRepositoryManager wires the users and todos repositories on db
func NewRepositoryManager(db *bun.DB, opts ...Option) auth.RepositoryManager {
	m := &mngr{
		db:     db,
		users:  auth.NewUsersRepository(db),
		todos:  todos.NewTodosRepository(db),
		logger: auth.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.todos == nil {
		return errors.New("repository todos should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() auth.Users {
	return m.users
}

func (m mngr) Todos() todos.Todos {
	return m.todos
}

// RegisterUser checks that neither the username nor the email are taken and
// inserts the user. A username collision is reported ahead of an email one.
func (m mngr) RegisterUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	var created *auth.User
	err := m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := m.users.FindByUsernameOrEmailTx(ctx, tx, user.Username, user.Email)
		if err != nil {
			return err
		}

		if err := collisionError(existing, user); err != nil {
			return err
		}

		created, err = m.users.CreateTx(ctx, tx, user)
		if err != nil {
			if IsUniqueViolation(err) {
				return auth.ErrUserConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateUser persists the new credentials for user
func (m mngr) UpdateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	var updated *auth.User
	err := m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		updated, err = m.users.UpdateTx(ctx, tx, user)
		if err != nil {
			if IsUniqueViolation(err) {
				return auth.ErrUserConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteUser removes the user's todos and then the user in one transaction
func (m mngr) DeleteUser(ctx context.Context, id int64) error {
	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		n, err := m.todos.DeleteByOwnerTx(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := m.users.DeleteTx(ctx, tx, id); err != nil {
			return err
		}

		m.logger.Debug("user deleted", "user_id", id, "todos", n)
		return nil
	})
}

func collisionError(existing []*auth.User, candidate *auth.User) error {
	if len(existing) == 0 {
		return nil
	}

	for _, u := range existing {
		if u.Username == candidate.Username {
			return auth.ErrUsernameExists
		}
	}

	return auth.ErrEmailExists
}
