package handlers

import (
	"context"
	"net/http"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/models"
)

// UserLister defines the interface that the user listing service must implement.
type UserLister interface {
	List(ctx context.Context) ([]models.User, error)
}

// NewListUsersHandler returns an HTTP handler that lists all users.
// @Summary List users
// @Description Returns all users without their password fields
// @Tags users
// @Produce json
// @Success 200 {array} models.User "Users"
// @Security BearerAuth
// @Router /users [get]
func NewListUsersHandler(svc UserLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.List(r.Context())
		if err != nil {
			logger.Log.Errorw("internal server error", "err", err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, users)
	}
}
