package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

func userColumns() []string {
	return []string{"id", "name", "email", "password_hash", "created_at", "updated_at"}
}

func TestUserReadRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserReadRepository(db)
	ctx := context.Background()

	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(int64(1), "John Doe", "john@example.com", "hash", now, now))

		user, err := repo.GetByID(ctx, 1)
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "john@example.com", user.Email)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("absent yields nil, not an error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
			WithArgs(int64(42)).
			WillReturnRows(sqlmock.NewRows(userColumns()))

		user, err := repo.GetByID(ctx, 42)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserReadRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserReadRepository(db)
	ctx := context.Background()

	now := time.Now()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("john@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(int64(1), "John Doe", "john@example.com", "hash", now, now))

		user, err := repo.GetByEmail(ctx, "john@example.com")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, "John Doe", user.Name)
	})

	t.Run("absent yields nil, not an error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns()))

		user, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserReadRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserReadRepository(db)

	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM users`).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(int64(1), "John Doe", "john@example.com", "hash1", now, now).
			AddRow(int64(2), "Jane Doe", "jane@example.com", "hash2", now, now))

	users, err := repo.List(context.Background())
	assert.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "jane@example.com", users[1].Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)
	ctx := context.Background()

	now := time.Now()

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("John Doe", "john@example.com", "hash").
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(int64(1), "John Doe", "john@example.com", "hash", now, now))

		user, err := repo.Create(ctx, "John Doe", "john@example.com", "hash")
		assert.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
	})

	t.Run("unique violation mapped", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Jane Doe", "john@example.com", "hash").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		user, err := repo.Create(ctx, "Jane Doe", "john@example.com", "hash")
		assert.ErrorIs(t, err, ErrUniqueViolation)
		assert.Nil(t, user)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WithArgs("Jane Doe", "jane@example.com", "hash").
			WillReturnError(errors.New("connection reset"))

		user, err := repo.Create(ctx, "Jane Doe", "jane@example.com", "hash")
		assert.EqualError(t, err, "connection reset")
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)
	ctx := context.Background()

	now := time.Now()

	strptr := func(s string) *string { return &s }

	t.Run("partial update with nil fields", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).
			WithArgs(int64(1), "New Name", nil, nil).
			WillReturnRows(sqlmock.NewRows(userColumns()).
				AddRow(int64(1), "New Name", "john@example.com", "hash", now, now))

		user, err := repo.Update(ctx, 1, strptr("New Name"), nil, nil)
		assert.NoError(t, err)
		assert.Equal(t, "New Name", user.Name)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("absent row yields nil", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).
			WithArgs(int64(42), "New Name", nil, nil).
			WillReturnRows(sqlmock.NewRows(userColumns()))

		user, err := repo.Update(ctx, 42, strptr("New Name"), nil, nil)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("unique violation mapped", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE users`).
			WithArgs(int64(1), nil, "taken@example.com", nil).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		user, err := repo.Update(ctx, 1, nil, strptr("taken@example.com"), nil)
		assert.ErrorIs(t, err, ErrUniqueViolation)
		assert.Nil(t, user)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserWriteRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deleted, err := repo.Delete(ctx, 1)
		assert.NoError(t, err)
		assert.True(t, deleted)
	})

	t.Run("no row", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs(int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		deleted, err := repo.Delete(ctx, 42)
		assert.NoError(t, err)
		assert.False(t, deleted)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
