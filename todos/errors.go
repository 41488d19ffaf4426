package todos

import "github.com/goliatone/go-errors"

const TextCodeTodoNotFound = "TODO_NOT_FOUND"

// ErrTodoNotFound covers both missing todos and todos owned by someone else
var ErrTodoNotFound = errors.New("Todo not found.", errors.CategoryNotFound).
	WithTextCode(TextCodeTodoNotFound).
	WithCode(errors.CodeNotFound)

// IsNotFound reports whether err is ErrTodoNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTodoNotFound)
}
