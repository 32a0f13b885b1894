package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/services"
)

// UserRemover defines the interface that the user deletion service must implement.
type UserRemover interface {
	Remove(ctx context.Context, id int64) error
}

// NewDeleteUserHandler returns an HTTP handler that deletes a user.
// @Summary Delete a user
// @Description Permanently deletes a user by id
// @Tags users
// @Param id path int true "User ID"
// @Success 204 "User deleted"
// @Failure 400 {object} handlers.ErrorResponse "Invalid user id"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /users/{id} [delete]
func NewDeleteUserHandler(svc UserRemover) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		if err := svc.Remove(r.Context(), id); err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
