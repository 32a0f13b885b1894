package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkovalev2015/user-accounts/internal/jwt"
	"github.com/dkovalev2015/user-accounts/internal/models"
	"github.com/dkovalev2015/user-accounts/internal/services"
)

func TestAuthService_ValidateUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := services.NewMockUserProvider(ctrl)
	mockJWT := services.NewMockTokenIssuer(ctrl)

	svc := services.NewAuthService(mockUsers, mockJWT)
	ctx := context.Background()

	row := &models.UserDB{ID: 1, Name: "John Doe", Email: "john@example.com", PasswordHash: "hashedpassword"}

	t.Run("valid credentials", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "john@example.com").
			Return(row, nil)
		mockUsers.EXPECT().
			ValidatePassword("password123", "hashedpassword").
			Return(true)

		user, err := svc.ValidateUser(ctx, "john@example.com", "password123")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "John Doe", user.Name)
		assert.Equal(t, "john@example.com", user.Email)
	})

	t.Run("unknown email yields nil, not an error", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "nobody@example.com").
			Return(nil, nil)

		user, err := svc.ValidateUser(ctx, "nobody@example.com", "password123")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("wrong password yields nil, not an error", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "john@example.com").
			Return(row, nil)
		mockUsers.EXPECT().
			ValidatePassword("wrongpassword", "hashedpassword").
			Return(false)

		user, err := svc.ValidateUser(ctx, "john@example.com", "wrongpassword")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("store error propagates", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "john@example.com").
			Return(nil, errors.New("db error"))

		user, err := svc.ValidateUser(ctx, "john@example.com", "password123")
		assert.EqualError(t, err, "db error")
		assert.Nil(t, user)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := services.NewMockUserProvider(ctrl)
	mockJWT := services.NewMockTokenIssuer(ctrl)

	svc := services.NewAuthService(mockUsers, mockJWT)
	ctx := context.Background()

	row := &models.UserDB{ID: 1, Name: "John Doe", Email: "john@example.com", PasswordHash: "hashedpassword"}

	t.Run("successful login", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "john@example.com").
			Return(row, nil)
		mockUsers.EXPECT().
			ValidatePassword("password123", "hashedpassword").
			Return(true)
		mockJWT.EXPECT().
			Generate(gomock.Any(), int64(1), "john@example.com").
			Return("jwt-token", nil)

		token, err := svc.Login(ctx, "john@example.com", "password123")
		assert.NoError(t, err)
		assert.Equal(t, "jwt-token", token)
	})

	t.Run("unknown email", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "nobody@example.com").
			Return(nil, nil)

		token, err := svc.Login(ctx, "nobody@example.com", "password123")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "john@example.com").
			Return(row, nil)
		mockUsers.EXPECT().
			ValidatePassword("wrongpassword", "hashedpassword").
			Return(false)

		token, err := svc.Login(ctx, "john@example.com", "wrongpassword")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("JWT generation error", func(t *testing.T) {
		mockUsers.EXPECT().
			GetByEmail(gomock.Any(), "john@example.com").
			Return(row, nil)
		mockUsers.EXPECT().
			ValidatePassword("password123", "hashedpassword").
			Return(true)
		mockJWT.EXPECT().
			Generate(gomock.Any(), int64(1), "john@example.com").
			Return("", errors.New("jwt error"))

		token, err := svc.Login(ctx, "john@example.com", "password123")
		assert.EqualError(t, err, "jwt error")
		assert.Empty(t, token)
	})
}

func TestAuthService_Signup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := services.NewMockUserProvider(ctrl)
	mockJWT := services.NewMockTokenIssuer(ctrl)

	svc := services.NewAuthService(mockUsers, mockJWT)
	ctx := context.Background()

	t.Run("successful signup", func(t *testing.T) {
		created := &models.User{ID: 1, Name: "John Doe", Email: "john@example.com"}

		mockUsers.EXPECT().
			Create(gomock.Any(), "John Doe", "john@example.com", "password123").
			Return(created, nil)
		mockJWT.EXPECT().
			Generate(gomock.Any(), int64(1), "john@example.com").
			Return("jwt-token", nil)

		token, user, err := svc.Signup(ctx, "John Doe", "john@example.com", "password123")
		assert.NoError(t, err)
		assert.Equal(t, "jwt-token", token)
		assert.Equal(t, created, user)
	})

	t.Run("email conflict propagates", func(t *testing.T) {
		mockUsers.EXPECT().
			Create(gomock.Any(), "John Doe", "john@example.com", "password123").
			Return(nil, services.ErrEmailAlreadyExists)

		token, user, err := svc.Signup(ctx, "John Doe", "john@example.com", "password123")
		assert.ErrorIs(t, err, services.ErrEmailAlreadyExists)
		assert.Empty(t, token)
		assert.Nil(t, user)
	})
}

// TestSignupThenLogin wires a real UserService and JWT over an in-memory
// store: a signup followed by a login with the same credentials must succeed,
// and a login with a wrong password must not.
func TestSignupThenLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockReader := services.NewMockUserReader(ctrl)
	mockWriter := services.NewMockUserWriter(ctrl)

	store := map[string]*models.UserDB{}
	var nextID int64

	mockReader.EXPECT().
		GetByEmail(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, email string) (*models.UserDB, error) {
			return store[email], nil
		}).
		AnyTimes()
	mockWriter.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, name, email, passwordHash string) (*models.UserDB, error) {
			nextID++
			row := &models.UserDB{ID: nextID, Name: name, Email: email, PasswordHash: passwordHash}
			store[email] = row
			return row, nil
		}).
		AnyTimes()

	userService := services.NewUserService(mockReader, mockWriter, nil)
	tokens := jwt.New(jwt.WithSecretKey("test-secret"), jwt.WithExpiration(time.Minute))
	authService := services.NewAuthService(userService, tokens)

	ctx := context.Background()

	token, user, err := authService.Signup(ctx, "John Doe", "john@example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "john@example.com", user.Email)

	// The stored value is a hash, not the plaintext.
	assert.NotEqual(t, "password123", store["john@example.com"].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(store["john@example.com"].PasswordHash), []byte("password123")))

	loginToken, err := authService.Login(ctx, "john@example.com", "password123")
	assert.NoError(t, err)
	assert.NotEmpty(t, loginToken)

	claims, err := tokens.GetClaims(ctx, loginToken)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "john@example.com", claims.Email)

	_, err = authService.Login(ctx, "john@example.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Reusing the email is a conflict.
	_, _, err = authService.Signup(ctx, "Jane Doe", "john@example.com", "password456")
	assert.ErrorIs(t, err, services.ErrEmailAlreadyExists)
}
