package api

import (
	"github.com/goliatone/go-router"
)

// LoginPost exchanges form credentials for an access token
func (s *Server) LoginPost(c router.Context) error {
	payload := new(LoginPayload)
	if err := c.Bind(payload); err != nil {
		return invalidInput("Invalid login request payload", err)
	}

	if err := payload.Validate(); err != nil {
		return validationFailed(err)
	}

	token, err := s.Auther.Login(c.Context(), payload.Username, payload.Password)
	if err != nil {
		s.Logger.Info("login rejected", "ip", clientIP(c))
		return err
	}

	return c.JSON(router.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// RefreshPost issues a new token for the bearer of a still valid one
func (s *Server) RefreshPost(c router.Context) error {
	user, err := s.currentUser(c)
	if err != nil {
		return err
	}

	token, err := s.Auther.Refresh(c.Context(), user)
	if err != nil {
		return err
	}

	return c.JSON(router.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
