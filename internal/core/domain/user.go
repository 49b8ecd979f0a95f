package domain

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User models an account known to the marketplace. The credential secret is
// only ever held as a hash and is never serialized, so every JSON copy of a
// User (including the persisted session) is scrubbed.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Role         string    `json:"role" bson:"role"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Scrubbed returns a copy of u without credential material.
func (u User) Scrubbed() User {
	u.PasswordHash = ""
	return u
}

// UsernameKey is the form usernames are compared in. Lookups and uniqueness
// checks ignore case.
func UsernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
