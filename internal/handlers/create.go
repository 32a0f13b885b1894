package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/models"
	"github.com/dkovalev2015/user-accounts/internal/services"
)

// UserCreator defines the interface that the user creation service must implement.
type UserCreator interface {
	Create(ctx context.Context, name, email, password string) (*models.User, error)
}

// CreateUserRequest represents the JSON body for user creation
// swagger:model CreateUserRequest
type CreateUserRequest struct {
	// Display name
	// required: true
	// example: John Doe
	Name string `json:"name" validate:"required"`

	// Email
	// required: true
	// example: john@example.com
	Email string `json:"email" validate:"required,email"`

	// Password, at least 6 characters
	// required: true
	// example: password123
	Password string `json:"password" validate:"required,min=6"`
}

// NewCreateUserHandler returns an HTTP handler that creates a user.
// @Summary Create a user
// @Description Creates a user record. The password is hashed before storing and never returned.
// @Tags users
// @Accept json
// @Produce json
// @Param createUserRequest body handlers.CreateUserRequest true "User creation request"
// @Success 201 {object} models.User "Created user"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 409 {object} handlers.ErrorResponse "Email already exists"
// @Security BearerAuth
// @Router /users [post]
func NewCreateUserHandler(svc UserCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest

		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		user, err := svc.Create(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmailAlreadyExists):
				writeError(w, http.StatusConflict, "Email already exists")
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}
