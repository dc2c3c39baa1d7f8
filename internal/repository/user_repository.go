package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rajeet-04/railway/internal/model"
	"github.com/rajeet-04/railway/internal/utils"
)

// UserRepo provides data access to the users table.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// ErrEmailExists is returned by Create when the normalized email is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// Create hashes the password, inserts the user and returns its ID.
// Emails are normalized to lower case before storage so lookups are
// case insensitive.
func (r *UserRepo) Create(ctx context.Context, email, password, fullName string, phone *string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, phone) VALUES (?, ?, ?, ?)`,
		email, hash, fullName, phone)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getWhere(ctx, "email = ?", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *UserRepo) getWhere(ctx context.Context, cond string, arg interface{}) (model.User, error) {
	var u model.User
	var createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, phone, is_admin, is_active, created_at, updated_at
		 FROM users WHERE `+cond+` LIMIT 1`, arg).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.IsAdmin, &u.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return u, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return u, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return u, err
	}
	return u, nil
}
