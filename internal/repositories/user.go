package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/middlewares"
	"github.com/dkovalev2015/user-accounts/internal/models"
)

// ErrUniqueViolation is returned when an insert or update hits the unique
// index on users.email. The index is the actual uniqueness enforcer; the
// service-level existence check is only a fast path.
var ErrUniqueViolation = errors.New("unique constraint violated")

// Postgres SQLSTATE for unique_violation.
const uniqueViolationCode = "23505"

// UserReadRepository provides read access to the users table.
type UserReadRepository struct {
	db *sqlx.DB
}

// NewUserReadRepository creates a new UserReadRepository.
func NewUserReadRepository(db *sqlx.DB) *UserReadRepository {
	return &UserReadRepository{db: db}
}

// GetByID returns the user with the given id, or nil if no row matches.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserDB, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user models.UserDB
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, query, id)
	logQuery(query, []any{id}, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByEmail returns the raw user record for the given email, including the
// password hash, or nil if no row matches.
func (r *UserReadRepository) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	var user models.UserDB
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, query, email)
	logQuery(query, []any{email}, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// List returns all user records.
func (r *UserReadRepository) List(ctx context.Context) ([]models.UserDB, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
	`

	var users []models.UserDB
	err := sqlx.SelectContext(ctx, ext(ctx, r.db), &users, query)
	logQuery(query, nil, err)

	if err != nil {
		return nil, err
	}

	return users, nil
}

// UserWriteRepository provides write access to the users table.
type UserWriteRepository struct {
	db *sqlx.DB
}

// NewUserWriteRepository creates a new UserWriteRepository.
func NewUserWriteRepository(db *sqlx.DB) *UserWriteRepository {
	return &UserWriteRepository{db: db}
}

// Create inserts a new user and returns the stored row.
func (r *UserWriteRepository) Create(ctx context.Context, name, email, passwordHash string) (*models.UserDB, error) {
	const query = `
		INSERT INTO users (name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, name, email, password_hash, created_at, updated_at
	`
	args := []any{name, email, passwordHash}

	var user models.UserDB
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, query, args...)
	logQuery(query, args, err)

	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return &user, nil
}

// Update applies the non-nil fields to the user with the given id and
// returns the refreshed row, or nil if no row matches.
func (r *UserWriteRepository) Update(ctx context.Context, id int64, name, email, passwordHash *string) (*models.UserDB, error) {
	const query = `
		UPDATE users
		SET name = COALESCE($2, name),
		    email = COALESCE($3, email),
		    password_hash = COALESCE($4, password_hash),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, password_hash, created_at, updated_at
	`
	args := []any{id, name, email, passwordHash}

	var user models.UserDB
	err := sqlx.GetContext(ctx, ext(ctx, r.db), &user, query, args...)
	logQuery(query, args, err)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapUniqueViolation(err)
	}

	return &user, nil
}

// Delete removes the user with the given id permanently. It reports whether
// a row was actually deleted.
func (r *UserWriteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM users WHERE id = $1`

	res, err := ext(ctx, r.db).ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}
	logQuery(query, []any{id}, err)

	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// ext returns the transaction bound to the request context when present,
// and the shared pool otherwise.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx := middlewares.GetTxFromContext(ctx); tx != nil {
		return tx
	}
	return db
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrUniqueViolation
	}
	return err
}

// logQuery logs the statement collapsed to a single line.
func logQuery(query string, args []any, err error) {
	logger.Log.Infow("users query",
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"error", err,
	)
}
