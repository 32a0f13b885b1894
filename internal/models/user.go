package models

import "time"

// UserDB represents a row of the users table, including the password hash.
// It never crosses the service boundary; handlers only ever see User.
type UserDB struct {
	ID           int64     `db:"id"`            // Primary key
	Name         string    `db:"name"`          // Display name
	Email        string    `db:"email"`         // Unique email
	PasswordHash string    `db:"password_hash"` // bcrypt hash
	CreatedAt    time.Time `db:"created_at"`    // Creation timestamp
	UpdatedAt    time.Time `db:"updated_at"`    // Last update timestamp
}

// User is the outward projection of a user record, without the password hash.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Public maps the stored row to its outward projection.
func (u UserDB) Public() User {
	return User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserUpdate carries the optional fields of a partial user update.
// Nil means "leave unchanged".
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}
