package api

import (
	"context"
	"net/http"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/todos"
	"github.com/uptrace/bun"
)

func (s *Server) CreateTodo(c router.Context) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	payload := new(TodoPayload)
	if err := c.Bind(payload); err != nil {
		return invalidInput("Invalid todo payload", err)
	}

	if err := payload.Validate(); err != nil {
		return validationFailed(err)
	}

	s.debug("create todo", payload)

	todo, err := s.Repo.Todos().Create(c.Context(), &todos.Todo{
		UserID:      user.ID,
		Title:       payload.Title,
		Description: payload.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newTodoView(todo))
}

func (s *Server) ListTodos(c router.Context) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	filter, err := parseTodoFilter(c)
	if err != nil {
		return err
	}

	s.debug("list todos", filter)

	records, err := s.Repo.Todos().ListForOwner(c.Context(), user.ID, filter.Filter())
	if err != nil {
		return err
	}

	out := TodoList{Todos: make([]TodoView, 0, len(records))}
	for _, t := range records {
		out.Todos = append(out.Todos, newTodoView(t))
	}

	return c.JSON(router.StatusOK, out)
}

// PatchTodo applies only the fields present in the body
func (s *Server) PatchTodo(c router.Context) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	payload := new(TodoPatchPayload)
	if err := c.Bind(payload); err != nil {
		return invalidInput("Invalid todo payload", err)
	}

	if err := payload.Validate(); err != nil {
		return validationFailed(err)
	}

	s.debug("patch todo", payload)

	var updated *todos.Todo
	err = s.Repo.RunInTx(c.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		updated, err = s.Repo.Todos().UpdateForOwnerTx(ctx, tx, user.ID, id, payload.Patch())
		return err
	})
	if err != nil {
		if todos.IsNotFound(err) {
			s.Logger.Info("todo not found", "todo_id", id, "user_id", user.ID)
		}
		return err
	}

	return c.JSON(router.StatusOK, newTodoView(updated))
}

func (s *Server) DeleteTodo(c router.Context) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	err = s.Repo.RunInTx(c.Context(), nil, func(ctx context.Context, tx bun.Tx) error {
		return s.Repo.Todos().DeleteForOwnerTx(ctx, tx, user.ID, id)
	})
	if err != nil {
		if todos.IsNotFound(err) {
			s.Logger.Info("todo not found", "todo_id", id, "user_id", user.ID)
		}
		return err
	}

	return c.JSON(router.StatusOK, MessageResponse{Message: "Task has been deleted successfully."})
}
