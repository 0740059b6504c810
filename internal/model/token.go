package model

import "time"

// StoredToken is the bearer token persisted between runs, one row per session key.
type StoredToken struct {
	Key       string `gorm:"primaryKey;column:session_key"`
	Token     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
