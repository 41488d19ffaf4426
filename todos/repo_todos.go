package todos

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// DefaultLimit is used when a listing does not set one
const DefaultLimit = 100

// Todos is the owner scoped todo store. Every lookup is constrained by the
// owner's id so a todo owned by someone else is indistinguishable from a
// missing one.
type Todos interface {
	Create(ctx context.Context, record *Todo) (*Todo, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Todo) (*Todo, error)
	GetForOwner(ctx context.Context, ownerID, id int64) (*Todo, error)
	GetForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id int64) (*Todo, error)
	ListForOwner(ctx context.Context, ownerID int64, filter Filter) ([]*Todo, error)
	UpdateForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id int64, patch Patch) (*Todo, error)
	DeleteForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id int64) error
	DeleteByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) (int64, error)
}

type todos struct {
	db  *bun.DB
	now func() time.Time
}

var _ Todos = (*todos)(nil)

// NewTodosRepository returns a bun backed Todos
func NewTodosRepository(db *bun.DB) Todos {
	return &todos{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *todos) Create(ctx context.Context, record *Todo) (*Todo, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *todos) CreateTx(ctx context.Context, tx bun.IDB, record *Todo) (*Todo, error) {
	if record.State == "" {
		record.State = DefaultState
	}

	now := r.now()
	record.CreatedAt = &now
	record.UpdatedAt = &now

	if _, err := tx.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create todo")
	}
	return record, nil
}

func (r *todos) GetForOwner(ctx context.Context, ownerID, id int64) (*Todo, error) {
	return r.GetForOwnerTx(ctx, r.db, ownerID, id)
}

func (r *todos) GetForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id int64) (*Todo, error) {
	record := &Todo{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", ownerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrTodoNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to fetch todo")
	}
	return record, nil
}

func (r *todos) ListForOwner(ctx context.Context, ownerID int64, filter Filter) ([]*Todo, error) {
	records := make([]*Todo, 0)
	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", ownerID)

	if filter.Title != "" {
		q = q.Where("?TableAlias.title LIKE ?", contains(filter.Title))
	}

	if filter.Description != "" {
		q = q.Where("?TableAlias.description LIKE ?", contains(filter.Description))
	}

	if filter.State != "" {
		q = q.Where("?TableAlias.state = ?", filter.State)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	err := q.OrderExpr("?TableAlias.id ASC").
		Offset(filter.Offset).
		Limit(limit).
		Scan(ctx)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to list todos")
	}
	return records, nil
}

func (r *todos) UpdateForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id int64, patch Patch) (*Todo, error) {
	record, err := r.GetForOwnerTx(ctx, tx, ownerID, id)
	if err != nil {
		return nil, err
	}

	cols := patch.Apply(record)
	if len(cols) == 0 {
		return record, nil
	}

	now := r.now()
	record.UpdatedAt = &now
	cols = append(cols, "updated_at")

	_, err = tx.NewUpdate().
		Model(record).
		Column(cols...).
		Where("?TableAlias.id = ?", record.ID).
		Where("?TableAlias.user_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update todo")
	}
	return record, nil
}

func (r *todos) DeleteForOwnerTx(ctx context.Context, tx bun.IDB, ownerID, id int64) error {
	res, err := tx.NewDelete().
		Model((*Todo)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.user_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete todo")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// DeleteByOwnerTx removes every todo owned by ownerID and returns how many
// rows went away.
func (r *todos) DeleteByOwnerTx(ctx context.Context, tx bun.IDB, ownerID int64) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Todo)(nil)).
		Where("?TableAlias.user_id = ?", ownerID).
		Exec(ctx)
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to delete todos")
	}

	n, _ := res.RowsAffected()
	return n, nil
}

func contains(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}
