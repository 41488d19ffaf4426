package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-todos/auth"
)

// ErrTooManyLoginAttempts is returned by the login rate limiter
var ErrTooManyLoginAttempts = errors.New("Too many login attempts", errors.CategoryRateLimit).
	WithTextCode("TOO_MANY_LOGIN_ATTEMPTS").
	WithCode(http.StatusTooManyRequests)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Detail string `json:"detail"`
	Errors any    `json:"errors,omitempty"`
}

// invalidInput marks a request that could not be parsed or validated
func invalidInput(message string, err error) *errors.Error {
	var out *errors.Error
	if err != nil {
		out = errors.Wrap(err, errors.CategoryValidation, message)
	} else {
		out = errors.New(message, errors.CategoryValidation)
	}
	return out.WithTextCode("INVALID_INPUT").WithCode(http.StatusUnprocessableEntity)
}

// validationFailed reports payload validation errors as 422
func validationFailed(verr *errors.Error) error {
	return verr.WithCode(http.StatusUnprocessableEntity)
}

// ErrorHandler renders errors as {"detail": "..."}. Domain errors keep their
// code, fiber errors keep theirs and anything else is a 500.
func ErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = auth.NopLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError
		body := ErrorResponse{Detail: http.StatusText(http.StatusInternalServerError)}

		var fiberErr *fiber.Error
		var richErr *errors.Error

		switch {
		case errors.As(err, &richErr):
			status = statusFor(richErr)
			if status < http.StatusInternalServerError {
				body.Detail = richErr.Message
			}
			if richErr.Category == errors.CategoryValidation {
				if m := richErr.ValidationMap(); len(m) > 0 {
					body.Errors = m
				}
			}
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			body.Detail = fiberErr.Message
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		}

		if status == http.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}

		return c.Status(status).JSON(body)
	}
}

func statusFor(err *errors.Error) int {
	if err.Code >= 400 && err.Code < 600 {
		return err.Code
	}

	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return http.StatusUnprocessableEntity
	case errors.CategoryAuth:
		return http.StatusUnauthorized
	case errors.CategoryAuthz:
		return http.StatusForbidden
	case errors.CategoryNotFound:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
