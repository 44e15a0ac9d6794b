package auth

import "time"

// User is the credential-bearing view of an account. The grant lists ride
// along so login can answer with the routes the account may open.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Permissions  []string
	Roles        []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
