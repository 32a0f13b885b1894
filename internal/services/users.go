package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/dkovalev2015/user-accounts/internal/logger"
	"github.com/dkovalev2015/user-accounts/internal/models"
	"github.com/dkovalev2015/user-accounts/internal/repositories"
)

// Error variables
var (
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// PasswordHashCost is the bcrypt work factor used for every hash and
// re-hash. Adjust here, never at a call site.
const PasswordHashCost = 10

// Lifecycle event names published to Kafka.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// UserReader defines read operations for users.
type UserReader interface {
	GetByID(ctx context.Context, id int64) (*models.UserDB, error)
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	List(ctx context.Context) ([]models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Create(ctx context.Context, name, email, passwordHash string) (*models.UserDB, error)
	Update(ctx context.Context, id int64, name, email, passwordHash *string) (*models.UserDB, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// UserService owns all reads and writes of user records.
type UserService struct {
	reader      UserReader
	writer      UserWriter
	kafkaWriter KafkaWriter
}

// NewUserService creates a new UserService. The Kafka writer may be nil, in
// which case lifecycle events are skipped.
func NewUserService(reader UserReader, writer UserWriter, kafkaWriter KafkaWriter) *UserService {
	return &UserService{
		reader:      reader,
		writer:      writer,
		kafkaWriter: kafkaWriter,
	}
}

// Create hashes the password and inserts a new user. The returned value is
// the public projection, without the hash.
func (s *UserService) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	existing, err := s.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return nil, err
	}
	if existing != nil {
		logger.Log.Infow("user already exists", "email", email)
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), PasswordHashCost)
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return nil, err
	}

	row, err := s.writer.Create(ctx, name, email, string(hashedPassword))
	if err != nil {
		// The pre-check above is only a fast path. Two concurrent creates
		// can both pass it; the unique index catches the loser here.
		if errors.Is(err, repositories.ErrUniqueViolation) {
			logger.Log.Infow("user already exists", "email", email)
			return nil, ErrEmailAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return nil, err
	}

	user := row.Public()
	s.publishEvent(ctx, EventUserCreated, user)

	return &user, nil
}

// List returns all users, projected without their password hashes.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	rows, err := s.reader.List(ctx)
	if err != nil {
		logger.Log.Errorw("failed to list users", "err", err)
		return nil, err
	}

	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.Public())
	}

	return users, nil
}

// Get returns a single user without the password hash.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "id", id, "err", err)
		return nil, err
	}
	if row == nil {
		return nil, ErrUserNotFound
	}

	user := row.Public()
	return &user, nil
}

// GetByEmail returns the raw stored record including the password hash, or
// nil when no user matches. Used internally by authentication only.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.UserDB, error) {
	return s.reader.GetByEmail(ctx, email)
}

// Update applies the provided fields to an existing user. A present password
// is re-hashed; an absent one leaves the stored hash untouched.
func (s *UserService) Update(ctx context.Context, id int64, upd models.UserUpdate) (*models.User, error) {
	current, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "id", id, "err", err)
		return nil, err
	}
	if current == nil {
		return nil, ErrUserNotFound
	}

	if upd.Email != nil && *upd.Email != current.Email {
		other, err := s.reader.GetByEmail(ctx, *upd.Email)
		if err != nil {
			logger.Log.Errorw("failed to check email owner", "err", err)
			return nil, err
		}
		if other != nil && other.ID != id {
			logger.Log.Infow("email already taken", "email", *upd.Email)
			return nil, ErrEmailAlreadyExists
		}
	}

	var passwordHash *string
	if upd.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*upd.Password), PasswordHashCost)
		if err != nil {
			logger.Log.Errorw("failed to hash password", "err", err)
			return nil, err
		}
		h := string(hashed)
		passwordHash = &h
	}

	row, err := s.writer.Update(ctx, id, upd.Name, upd.Email, passwordHash)
	if err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			logger.Log.Infow("email already taken", "id", id)
			return nil, ErrEmailAlreadyExists
		}
		logger.Log.Errorw("failed to update user", "id", id, "err", err)
		return nil, err
	}
	if row == nil {
		return nil, ErrUserNotFound
	}

	user := row.Public()
	s.publishEvent(ctx, EventUserUpdated, user)

	return &user, nil
}

// Remove deletes a user permanently.
func (s *UserService) Remove(ctx context.Context, id int64) error {
	row, err := s.reader.GetByID(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to get user", "id", id, "err", err)
		return err
	}
	if row == nil {
		return ErrUserNotFound
	}

	deleted, err := s.writer.Delete(ctx, id)
	if err != nil {
		logger.Log.Errorw("failed to delete user", "id", id, "err", err)
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	s.publishEvent(ctx, EventUserDeleted, row.Public())

	return nil
}

// ValidatePassword reports whether the plaintext candidate matches the
// stored hash. A mismatch is an expected outcome, never an error.
func (s *UserService) ValidatePassword(plainPassword, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword)) == nil
}

// UserEvent is the payload of a user lifecycle message.
type UserEvent struct {
	EventID   string      `json:"event_id"`
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	User      models.User `json:"user"`
}

// publishEvent publishes a user lifecycle event to Kafka. The payload is the
// public projection; the hash never leaves the service.
func (s *UserService) publishEvent(ctx context.Context, event string, user models.User) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "event", event, "user_id", user.ID)
		return
	}

	evt := UserEvent{
		EventID:   uuid.NewString(),
		Event:     event,
		Timestamp: time.Now().Unix(),
		User:      user,
	}

	data, err := json.Marshal(evt)
	if err != nil {
		logger.Log.Errorw("Failed to marshal user event for Kafka", "event", event, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(evt.EventID),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish user event to Kafka", "event", event, "error", err)
	} else {
		logger.Log.Infow("User event published to Kafka", "event", event, "user_id", user.ID)
	}
}
