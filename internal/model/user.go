package model

import "time"

// User represents an account record as stored in the `users` table.
// PasswordHash holds the bcrypt digest of the password; the plaintext is
// never retained past the registration or login call boundary. The struct
// carries no json tags because handlers define their own response types.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique account name; immutable after registration.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of registration.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
}
