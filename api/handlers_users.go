package api

import (
	"net/http"

	"github.com/goliatone/go-router"
	"github.com/goliatone/go-todos/auth"
)

func (s *Server) CreateUser(c router.Context) error {
	payload := new(UserPayload)
	if err := c.Bind(payload); err != nil {
		return invalidInput("Invalid user payload", err)
	}

	if err := payload.Validate(); err != nil {
		return validationFailed(err)
	}

	hash, err := s.Hasher.HashPassword(payload.Password)
	if err != nil {
		return err
	}

	user, err := s.Repo.RegisterUser(c.Context(), &auth.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return err
	}

	s.Logger.Info("user created", "user_id", user.ID)

	return c.JSON(http.StatusCreated, user.Public())
}

func (s *Server) ListUsers(c router.Context) error {
	page, err := parsePage(c)
	if err != nil {
		return err
	}

	records, err := s.Repo.Users().List(c.Context(), page.Offset, page.Limit)
	if err != nil {
		return err
	}

	out := UserList{Users: make([]auth.PublicUser, 0, len(records))}
	for _, u := range records {
		out.Users = append(out.Users, u.Public())
	}

	return c.JSON(router.StatusOK, out)
}

func (s *Server) GetUser(c router.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	user, err := s.Repo.Users().GetByID(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, user.Public())
}

// UpdateUser replaces the caller's own username, email and password
func (s *Server) UpdateUser(c router.Context) error {
	current, err := s.currentUser(c)
	if err != nil {
		return err
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	payload := new(UserPayload)
	if err := c.Bind(payload); err != nil {
		return invalidInput("Invalid user payload", err)
	}

	if err := payload.Validate(); err != nil {
		return validationFailed(err)
	}

	if err := auth.AuthorizeOwner(current, id); err != nil {
		s.Logger.Warn("user update forbidden", "user_id", current.ID, "target_id", id)
		return err
	}

	hash, err := s.Hasher.HashPassword(payload.Password)
	if err != nil {
		return err
	}

	record := &auth.User{
		ID:           current.ID,
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		CreatedAt:    current.CreatedAt,
	}

	user, err := s.Repo.UpdateUser(c.Context(), record)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, user.Public())
}

// DeleteUser removes the caller's own account and todos
func (s *Server) DeleteUser(c router.Context) error {
	current, err := s.currentUser(c)
	if err != nil {
		return err
	}

	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := auth.AuthorizeOwner(current, id); err != nil {
		s.Logger.Warn("user delete forbidden", "user_id", current.ID, "target_id", id)
		return err
	}

	if err := s.Repo.DeleteUser(c.Context(), id); err != nil {
		return err
	}

	return c.JSON(router.StatusOK, MessageResponse{Message: "User deleted"})
}
