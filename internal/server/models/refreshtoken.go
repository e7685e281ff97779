package models

import "time"

// RefreshToken is a stored, single-use refresh token.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
