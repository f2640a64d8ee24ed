package auth

import "time"

// User represents a stored user account. Soft deleted accounts keep their row
// with IsActive=false and their email stays reserved.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	DisplayName  *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary is the outward representation of a user. The password hash is never
// exposed.
type Summary struct {
	Email     string    `json:"email"`
	Username  *string   `json:"username"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfilePatch describes a partial profile update. Nil fields are untouched.
type ProfilePatch struct {
	Email       *string
	DisplayName *string
}

func (u *User) summary() *Summary {
	return &Summary{
		Email:     u.Email,
		Username:  u.DisplayName,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
