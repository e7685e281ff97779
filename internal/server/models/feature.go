package models

import "time"

// UserFeature is the stored embedding of a user. At most one row exists per
// user (UNIQUE user_id). BVector is the packed big-endian vector; its
// length is Size × width(DType).
type UserFeature struct {
	ID        int64
	UserID    int64
	BVector   []byte
	Size      int
	DType     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
