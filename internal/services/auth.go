package services

import (
	"context"
	"errors"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/models"
)

// ErrInvalidCredentials is returned by Login when no user matches the
// presented email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserProvider defines the user operations needed by authentication.
type UserProvider interface {
	Create(ctx context.Context, name, email, password string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	ValidatePassword(plainPassword, hashedPassword string) bool
}

// TokenIssuer defines an interface for generating JWT tokens.
type TokenIssuer interface {
	Generate(ctx context.Context, userID int64, email string) (string, error)
}

// AuthService turns credential presentations into signed tokens.
type AuthService struct {
	users UserProvider
	jwt   TokenIssuer
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(users UserProvider, jwt TokenIssuer) *AuthService {
	return &AuthService{
		users: users,
		jwt:   jwt,
	}
}

// ValidateUser checks a credential pair against the store. No match is an
// expected outcome: it yields a nil user, not an error.
func (svc *AuthService) ValidateUser(ctx context.Context, email, password string) (*models.User, error) {
	row, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user by email", "err", err)
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	if !svc.users.ValidatePassword(password, row.PasswordHash) {
		logger.Log.Infow("password mismatch", "email", email)
		return nil, nil
	}

	user := row.Public()
	return &user, nil
}

// Login authenticates a user and returns a signed access token.
func (svc *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := svc.ValidateUser(ctx, email, password)
	if err != nil {
		return "", err
	}
	if user == nil {
		logger.Log.Infow("login rejected", "email", email)
		return "", ErrInvalidCredentials
	}

	token, err := svc.jwt.Generate(ctx, user.ID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", err
	}

	return token, nil
}

// Signup creates a new user and returns a signed access token alongside the
// created record.
func (svc *AuthService) Signup(ctx context.Context, name, email, password string) (string, *models.User, error) {
	user, err := svc.users.Create(ctx, name, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := svc.jwt.Generate(ctx, user.ID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", nil, err
	}

	return token, user, nil
}
