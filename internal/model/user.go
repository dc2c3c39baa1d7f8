package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Passwords are stored as bcrypt hashes only.  IsAdmin grants
// access to the admin import endpoint and lets the user cancel any
// booking, not just their own.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  FullName     – display name of the user.
//  Phone        – contact phone number (nullable).
//  IsAdmin      – whether the user has administrative privileges.
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	FullName     string    // users.full_name
	Phone        *string   // users.phone (nullable)
	IsAdmin      bool      // users.is_admin
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
