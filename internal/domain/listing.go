package domain

import (
	"time"

	"github.com/google/uuid"
)

type ListingApprovalStatus string

const (
	ListingApprovalPending  ListingApprovalStatus = "pending"
	ListingApprovalApproved ListingApprovalStatus = "approved"
	ListingApprovalRejected ListingApprovalStatus = "rejected"
)

type Listing struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	// Pricing tiers in cents; zero means the tier is not offered.
	HourlyRate      int64                 `json:"hourly_rate"`
	DailyRate       int64                 `json:"daily_rate"`
	WeeklyRate      int64                 `json:"weekly_rate"`
	MonthlyRate     int64                 `json:"monthly_rate"`
	DepositAmount   int64                 `json:"deposit_amount"`
	ApprovalStatus  ListingApprovalStatus `json:"approval_status"`
	RejectionReason string                `json:"rejection_reason,omitempty"`
	IsActive        bool                  `json:"is_active"`
	Images          []string              `json:"images"`
	City            string                `json:"city"`
	Latitude        *float64              `json:"latitude,omitempty"`
	Longitude       *float64              `json:"longitude,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// IsBookable reports whether renters may request the listing.
func (l *Listing) IsBookable() bool {
	return l.IsActive && l.ApprovalStatus == ListingApprovalApproved
}

// ListingSummary is the slice of a listing embedded in booking reads.
type ListingSummary struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
	Image string    `json:"image,omitempty"`
}
