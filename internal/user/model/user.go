package model

import "github.com/google/uuid"

// User is created at first successful login. The password is stored as
// supplied; credential hardening is the session gateway's concern, not the
// core's.
type User struct {
	ID        uuid.UUID `json:"id"`
	IP        string    `json:"ip"`
	Nickname  string    `json:"nickname"`
	Password  string    `json:"password"`
	CreatedAt int64     `json:"created_at"`
}

// UsersDoc is the users collection: nickname -> record.
type UsersDoc map[string]User

// CooldownsDoc is the nickname_cooldowns collection: nickname -> unix time
// of the last nickname change.
type CooldownsDoc map[string]int64
