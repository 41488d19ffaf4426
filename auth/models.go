package auth

import (
	"time"

	"github.com/goliatone/go-todos/todos"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64         `bun:"id,pk,autoincrement" json:"id"`
	Username      string        `bun:"username,notnull,unique" json:"username"`
	Email         string        `bun:"email,notnull,unique" json:"email"`
	PasswordHash  string        `bun:"password_hash,notnull" json:"-"`
	Todos         []*todos.Todo `bun:"rel:has-many,join:id=user_id" json:"todos,omitempty"`
	CreatedAt     *time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at,omitempty"`
}

// PublicUser is what we expose about a user
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Public returns the public view of u
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
