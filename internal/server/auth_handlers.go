package server

import (
	"errors"
	"log/slog"

	"inkwell/internal/auth"
	"inkwell/internal/middleware"
	"inkwell/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /auth/signup by proxying to the auth provider.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password required"))
	}

	sess, err := s.authProvider.SignUp(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRateLimited):
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewValidationError("email rate limit exceeded"))
		case errors.Is(err, auth.ErrUserExists):
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("User already registered"))
		case errors.Is(err, auth.ErrInvalidCredentials):
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid email or password"))
		default:
			middleware.Logger.ErrorContext(c.UserContext(), "signup failed",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewStorageError("Failed to sign up"))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    sess.User,
		"session": sess,
	})
}

// Signin handles POST /auth/signin by proxying to the auth provider.
func (s *Server) Signin(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password required"))
	}

	sess, err := s.authProvider.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid login credentials"))
		case errors.Is(err, auth.ErrRateLimited):
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewValidationError("email rate limit exceeded"))
		default:
			middleware.Logger.ErrorContext(c.UserContext(), "signin failed",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewStorageError("Failed to sign in"))
		}
	}

	return c.JSON(fiber.Map{
		"user":    sess.User,
		"session": sess,
	})
}
