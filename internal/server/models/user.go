// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. Password holds an argon2id hash, never the
// plain credential. Favorite, Lat and Lng are optional profile attributes
// forwarded to the embedding provider.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Nickname  string    `json:"nickname"`
	Password  string    `json:"-"`
	Favorite  *string   `json:"favorite,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	Lng       *float64  `json:"lng,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
