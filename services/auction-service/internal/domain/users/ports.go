package users

import "context"

// Repository persists users
type Repository interface {
	// NextUserID allocates a new id from a shared counter
	NextUserID(ctx context.Context) (int64, error)

	CreateUser(ctx context.Context, user *User) error

	// GetUser returns ErrUserNotFound when the id is unknown
	GetUser(ctx context.Context, id int64) (*User, error)
}

// Mailbox is the per-user queue of delivered notifications
type Mailbox interface {
	Append(ctx context.Context, userID int64, message string) error

	// Drain returns every queued message and clears the queue atomically
	Drain(ctx context.Context, userID int64) ([]string, error)
}
