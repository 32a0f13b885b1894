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

// UserUpdater defines the interface that the user update service must implement.
type UserUpdater interface {
	Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error)
}

// UpdateUserRequest represents the JSON body for a partial user update.
// Absent fields are left unchanged.
// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	// Display name
	// example: John Doe
	Name *string `json:"name" validate:"omitempty"`

	// Email
	// example: john@example.com
	Email *string `json:"email" validate:"omitempty,email"`

	// Password, at least 6 characters when present
	// example: password123
	Password *string `json:"password" validate:"omitempty,min=6"`
}

// NewUpdateUserHandler returns an HTTP handler that partially updates a user.
// @Summary Update a user
// @Description Applies the provided fields to a user. A present password is re-hashed before storing.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param updateUserRequest body handlers.UpdateUserRequest true "User update request"
// @Success 200 {object} models.User "Updated user"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Failure 409 {object} handlers.ErrorResponse "Email already exists"
// @Security BearerAuth
// @Router /users/{id} [patch]
func NewUpdateUserHandler(svc UserUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		var req UpdateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		user, err := svc.Update(r.Context(), id, models.UserUpdate{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			case errors.Is(err, services.ErrEmailAlreadyExists):
				writeError(w, http.StatusConflict, "Email already exists")
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
