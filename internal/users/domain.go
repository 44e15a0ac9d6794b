package users

import "time"

// User is a dashboard account. Permissions hold capability tokens and
// Roles hold role names; both feed the grants resolver on every request.
type User struct {
	ID          int64
	Email       string
	Name        string
	Permissions []string
	Roles       []string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
