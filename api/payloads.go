package api

import (
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/auth"
	"github.com/goliatone/go-todos/todos"
)

const (
	DefaultOffset = 0
	DefaultLimit  = 100
	MaxLimit      = 100
)

// LoginPayload is the OAuth2 password form. Username holds either an email
// or a username.
type LoginPayload struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (r LoginPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required),
			validation.Field(&r.Password, validation.Required),
		)
	}, "Invalid login request payload")
}

// UserPayload is used to create and to replace a user
type UserPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will validate the payload
func (r UserPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
			validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
			validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
		)
	}, "Invalid user payload")
}

// TodoPayload creates a todo. State is not accepted, new todos are drafts.
type TodoPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate will validate the payload
func (r TodoPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
			validation.Field(&r.Description, validation.Required),
		)
	}, "Invalid todo payload")
}

// TodoPatchPayload carries a partial todo update. Absent fields stay nil.
type TodoPatchPayload struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	State       *string `json:"state"`
}

// Validate will validate the payload. Present fields follow the same rules
// as on create.
func (r TodoPatchPayload) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&r,
			validation.Field(&r.Title, validation.When(r.Title != nil, validation.Required, validation.Length(1, 255))),
			validation.Field(&r.Description, validation.When(r.Description != nil, validation.Required)),
			validation.Field(&r.State, validation.When(r.State != nil, validation.Required), validation.By(validState)),
		)
	}, "Invalid todo payload")
}

// Patch converts the payload into a todos.Patch
func (r TodoPatchPayload) Patch() todos.Patch {
	p := todos.Patch{
		Title:       r.Title,
		Description: r.Description,
	}
	if r.State != nil {
		s, _ := todos.ParseState(*r.State)
		p.State = &s
	}
	return p
}

// validState accepts an empty value, Required decides whether one is allowed
func validState(value any) error {
	var raw string
	switch v := value.(type) {
	case *string:
		if v == nil {
			return nil
		}
		raw = *v
	case string:
		raw = v
	default:
		return nil
	}

	if strings.TrimSpace(raw) == "" {
		return nil
	}

	if _, ok := todos.ParseState(raw); !ok {
		return validation.NewError("validation_invalid_state", "must be one of draft, todo, doing, done, trash")
	}
	return nil
}

// Page is the offset/limit pair shared by every listing
type Page struct {
	Offset int
	Limit  int
}

// Validate will validate the page bounds
func (p Page) Validate() *errors.Error {
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&p,
			validation.Field(&p.Offset, validation.Min(0)),
			validation.Field(&p.Limit, validation.Required, validation.Min(1), validation.Max(MaxLimit)),
		)
	}, "Invalid pagination")
}

// TodoFilterPayload is the todo listing query string
type TodoFilterPayload struct {
	Page
	Title       string
	Description string
	State       string
}

// Validate will validate the filter
func (f TodoFilterPayload) Validate() *errors.Error {
	if err := f.Page.Validate(); err != nil {
		return err
	}
	return errors.ValidateWithOzzo(func() error {
		return validation.ValidateStruct(&f,
			validation.Field(&f.State, validation.By(validState)),
		)
	}, "Invalid todo filter")
}

// Filter converts the payload into a todos.Filter
func (f TodoFilterPayload) Filter() todos.Filter {
	state, _ := todos.ParseState(f.State)
	if f.State == "" {
		state = ""
	}
	return todos.Filter{
		Title:       f.Title,
		Description: f.Description,
		State:       state,
		Offset:      f.Offset,
		Limit:       f.Limit,
	}
}

func parsePage(c router.Context) (Page, error) {
	offset, err := queryInt(c, "offset", DefaultOffset)
	if err != nil {
		return Page{}, err
	}

	limit, err := queryInt(c, "limit", DefaultLimit)
	if err != nil {
		return Page{}, err
	}

	p := Page{Offset: offset, Limit: limit}
	if verr := p.Validate(); verr != nil {
		return Page{}, validationFailed(verr)
	}
	return p, nil
}

func parseTodoFilter(c router.Context) (TodoFilterPayload, error) {
	page, err := parsePage(c)
	if err != nil {
		return TodoFilterPayload{}, err
	}

	f := TodoFilterPayload{
		Page:        page,
		Title:       strings.TrimSpace(c.Query("title", "")),
		Description: strings.TrimSpace(c.Query("description", "")),
		State:       strings.TrimSpace(c.Query("state", "")),
	}

	if verr := f.Validate(); verr != nil {
		return TodoFilterPayload{}, validationFailed(verr)
	}
	return f, nil
}

func queryInt(c router.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key, ""))
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidInput("query parameter "+key+" must be an integer", err)
	}
	return n, nil
}

func pathID(c router.Context, key string) (int64, error) {
	n, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil {
		return 0, invalidInput("path parameter "+key+" must be an integer", err)
	}
	return n, nil
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// UserList wraps a page of users
type UserList struct {
	Users []auth.PublicUser `json:"users"`
}

// TodoView is the public shape of a todo
type TodoView struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	State       todos.TodoState `json:"state"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// TodoList wraps a page of todos
type TodoList struct {
	Todos []TodoView `json:"todos"`
}

func newTodoView(t *todos.Todo) TodoView {
	v := TodoView{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		State:       t.State,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	return v
}
