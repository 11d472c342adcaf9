package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/lostfound/internal/model"
)

// ErrEmailTaken is returned when a user with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

const userColumns = `id, email, name, password_hash, is_active, is_staff, is_superuser, created_at`

// CreateUser creates a new user. The email is normalized before storing.
func CreateUser(ctx context.Context, db *sql.DB, email, name, passwordHash string) (*model.User, error) {
	return insertUser(ctx, db, email, name, passwordHash, false)
}

// CreateSuperuser creates a staff user with superuser rights.
func CreateSuperuser(ctx context.Context, db *sql.DB, email, name, passwordHash string) (*model.User, error) {
	return insertUser(ctx, db, email, name, passwordHash, true)
}

func insertUser(ctx context.Context, db *sql.DB, email, name, passwordHash string, super bool) (*model.User, error) {
	email = model.NormalizeEmail(email)
	if err := model.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (email, name, password_hash, is_staff, is_superuser) VALUES (?, ?, ?, ?, ?)`,
		email, name, passwordHash, super, super,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	row := db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email. The lookup normalizes the email the
// same way CreateUser does.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, model.NormalizeEmail(email))
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users ordered by ID.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUserName updates a user's display name.
func UpdateUserName(ctx context.Context, db *sql.DB, id int64, name string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	return nil
}

// SetUserActive enables or disables a user account.
func SetUserActive(ctx context.Context, db *sql.DB, id int64, active bool) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("updating user active flag: %w", err)
	}
	return nil
}

// SetUserStaff grants or revokes staff rights.
func SetUserStaff(ctx context.Context, db *sql.DB, id int64, staff bool) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET is_staff = ? WHERE id = ?`, staff, id)
	if err != nil {
		return fmt.Errorf("updating user staff flag: %w", err)
	}
	return nil
}

// DeleteUser deletes a user together with their items, tags and claims.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.IsSuperuser, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// isUniqueViolation reports whether err comes from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
