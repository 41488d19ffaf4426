package auth

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Users is the user store
type Users interface {
	UserFinder

	GetByID(ctx context.Context, id int64) (*User, error)
	GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error)
	GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error)
	FindByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) ([]*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) error
}

type users struct {
	db  *bun.DB
	now func() time.Time
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{
		db:  db,
		now: UTCNow,
	}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*User, error) {
	return a.getBy(ctx, tx, "id", id)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getBy(ctx, a.db, "email", strings.TrimSpace(email))
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier)
}

// GetByIdentifierTx looks a user up by email when identifier parses as an
// address and by username otherwise.
func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	opt, ok := resolveUserIdentifier(identifier)
	if !ok {
		return nil, ErrUserNotFound
	}
	return a.getBy(ctx, tx, opt.column, opt.value)
}

// FindByUsernameOrEmailTx returns every user holding either value. Callers
// use it to pre-check uniqueness before an insert.
func (a *users) FindByUsernameOrEmailTx(ctx context.Context, tx bun.IDB, username, email string) ([]*User, error) {
	records := make([]*User, 0, 2)
	err := tx.NewSelect().
		Model(&records).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("?TableAlias.username = ?", username).
				WhereOr("?TableAlias.email = ?", email)
		}).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)

	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up users")
	}
	return records, nil
}

func (a *users) List(ctx context.Context, offset, limit int) ([]*User, error) {
	records := make([]*User, 0)
	err := a.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(ctx)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list users")
	}
	return records, nil
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	now := a.now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateTx replaces username, email and password hash. Store errors are
// returned as they come so callers can tell a uniqueness violation apart.
func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	now := a.now()
	record.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(record).
		Column("username", "email", "password_hash", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}
	return record, nil
}

func (a *users) DeleteTx(ctx context.Context, tx bun.IDB, id int64) error {
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete user")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (a *users) getBy(ctx context.Context, tx bun.IDB, column string, value any) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user").
			WithMetadata(map[string]any{column: value})
	}
	return record, nil
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) (identifierOption, bool) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return identifierOption{}, false
	}

	if isEmail(trimmed) {
		return identifierOption{column: "email", value: trimmed}, true
	}

	return identifierOption{column: "username", value: trimmed}, true
}

func isEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
