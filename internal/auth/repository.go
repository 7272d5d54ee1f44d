package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/vendaria/vendaria/internal/apperror"
)

// mysqlErrDuplicateEntry is the MySQL error number for a unique key violation.
const mysqlErrDuplicateEntry = 1062

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	EmailTakenByOther(ctx context.Context, email string, id int64) (bool, error)
	UpdateProfile(ctx context.Context, id int64, name, email, updatedAt string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash, updatedAt string) error
	Delete(ctx context.Context, id int64) error
}

// userRepository implements UserRepository with hand-written MySQL queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row and fills in the assigned ID. A unique-key
// violation on email (possible under the registration race despite the
// service's existence check) surfaces as a Conflict.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (name, email, password, profile, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Profile,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("user with this email already exists")
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted user id: %w", err)
	}
	user.ID = id

	return nil
}

// FindByID retrieves a user by id.
// Returns apperror.NotFound if no user exists with this id.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, name, email, password, profile, created_at, updated_at
	          FROM users WHERE id = ?`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Profile,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by id: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a user by email (exact, case-sensitive match --
// the column uses a binary collation).
// Returns apperror.NotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, name, email, password, profile, created_at, updated_at
	          FROM users WHERE email = ?`

	user := &User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Profile,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during registration for the specific 409 message before the insert;
// the unique index is the actual guarantee.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// EmailTakenByOther returns true if a user other than id holds the email.
// Used on profile update so users can "change" to their own current email.
func (r *userRepository) EmailTakenByOther(ctx context.Context, email string, id int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ? AND id != ?)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, email, id).Scan(&taken); err != nil {
		return false, fmt.Errorf("checking email ownership: %w", err)
	}

	return taken, nil
}

// UpdateProfile sets a new name and email for the given user.
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, name, email, updatedAt string) error {
	query := `UPDATE users SET name = ?, email = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, name, email, updatedAt, id)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperror.NewConflict("email is already taken by another user")
		}
		return fmt.Errorf("updating profile: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		// Zero rows also happens when the values are unchanged, so re-check
		// existence before reporting the record gone.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}

	return nil
}

// UpdatePassword sets a new password hash for the given user.
func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passwordHash, updatedAt string) error {
	query := `UPDATE users SET password = ?, updated_at = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, passwordHash, updatedAt, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	return nil
}

// Delete removes the user row unconditionally.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	return nil
}

// isDuplicateEntry reports whether err is a MySQL unique key violation.
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}
