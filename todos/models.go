package todos

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// TodoState is the lifecycle state of a todo
type TodoState string

const (
	StateDraft TodoState = "draft"
	StateTodo  TodoState = "todo"
	StateDoing TodoState = "doing"
	StateDone  TodoState = "done"
	StateTrash TodoState = "trash"
)

// DefaultState is assigned on create
const DefaultState = StateDraft

// States lists every valid state in display order
var States = []TodoState{StateDraft, StateTodo, StateDoing, StateDone, StateTrash}

// Valid reports whether s is one of the known states
func (s TodoState) Valid() bool {
	for _, st := range States {
		if s == st {
			return true
		}
	}
	return false
}

// ParseState normalizes raw input into a TodoState
func ParseState(raw string) (TodoState, bool) {
	s := TodoState(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Todo is the todo model. It always belongs to exactly one user.
type Todo struct {
	bun.BaseModel `bun:"table:todos,alias:td"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID        int64      `bun:"user_id,notnull" json:"user_id"`
	Title         string     `bun:"title,notnull" json:"title"`
	Description   string     `bun:"description,notnull" json:"description"`
	State         TodoState  `bun:"state,notnull,default:'draft'" json:"state"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// Patch holds a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Description *string
	State       *TodoState
}

// Empty reports whether the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.State == nil
}

// Apply copies the set fields onto t and returns the changed column names
func (p Patch) Apply(t *Todo) []string {
	cols := make([]string, 0, 4)
	if p.Title != nil {
		t.Title = *p.Title
		cols = append(cols, "title")
	}
	if p.Description != nil {
		t.Description = *p.Description
		cols = append(cols, "description")
	}
	if p.State != nil {
		t.State = *p.State
		cols = append(cols, "state")
	}
	return cols
}

// Filter narrows a todo listing. Title and Description are substring
// matches, State is exact.
type Filter struct {
	Title       string
	Description string
	State       TodoState
	Offset      int
	Limit       int
}
