package models

import "time"

// User is a registered account together with its contributions.
type User struct {
	ID            int64     `json:"-"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Contributions []string  `json:"contributions"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
