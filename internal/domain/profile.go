package domain

import (
	"time"

	"github.com/google/uuid"
)

type ProfileRole string

const (
	ProfileRoleUser  ProfileRole = "user"
	ProfileRoleAdmin ProfileRole = "admin"
)

type Profile struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	FullName      string      `json:"full_name"`
	PasswordHash  string      `json:"-"`
	Role          ProfileRole `json:"role"`
	IsVerified    bool        `json:"is_verified"`
	RatingAverage float64     `json:"rating_average"`
	RatingCount   int32       `json:"rating_count"`
	PushToken     string      `json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == ProfileRoleAdmin
}

// ProfileSummary is the slice of a profile embedded in booking reads.
type ProfileSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}
