package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/models"
	"github.com/dkovalev2015/user-accounts/internal/services"
)

// UserGetter defines the interface that the user lookup service must implement.
type UserGetter interface {
	Get(ctx context.Context, id int64) (*models.User, error)
}

// NewGetUserHandler returns an HTTP handler that fetches a single user.
// @Summary Get a user
// @Description Returns one user by id, without the password field
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User "User"
// @Failure 400 {object} handlers.ErrorResponse "Invalid user id"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Security BearerAuth
// @Router /users/{id} [get]
func NewGetUserHandler(svc UserGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}

		user, err := svc.Get(r.Context(), id)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, "user not found")
			default:
				logger.Log.Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}
