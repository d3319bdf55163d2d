package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// paymentTransitions lists the statuses a payment may move to. A succeeded payment only
// leaves by refund; refunded is final. A failed payment can still be captured late.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:    {PaymentStatusProcessing, PaymentStatusSucceeded, PaymentStatusFailed},
	PaymentStatusProcessing: {PaymentStatusSucceeded, PaymentStatusFailed},
	PaymentStatusSucceeded:  {PaymentStatusRefunded},
	PaymentStatusFailed:     {PaymentStatusSucceeded, PaymentStatusRefunded},
}

// CanMoveTo reports whether a payment in status s may be moved to next.
func (s PaymentStatus) CanMoveTo(next PaymentStatus) bool {
	for _, to := range paymentTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// PaymentRecord tracks the processor side of a booking charge. One per booking.
type PaymentRecord struct {
	BookingID       uuid.UUID     `json:"booking_id"`
	ProviderOrderID string        `json:"provider_order_id"`
	Status          PaymentStatus `json:"status"`
	Amount          int64         `json:"amount"`
	NetAmount       int64         `json:"net_amount"`
	PlatformFee     int64         `json:"platform_fee"`
	ProcessorFee    int64         `json:"processor_fee"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// PayoutRelease is the audit row written when an admin releases an owner payout.
type PayoutRelease struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"booking_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Amount     int64     `json:"amount"`
	ReleasedBy uuid.UUID `json:"released_by"`
	ReleasedAt time.Time `json:"released_at"`
}

type PayoutBadge string

const (
	PayoutBadgeReady    PayoutBadge = "Ready for Release"
	PayoutBadgePending  PayoutBadge = "Pending"
	PayoutBadgeReleased PayoutBadge = "Released"
	PayoutBadgeDisputed PayoutBadge = "Disputed"
)

// PayoutView is a booking as shown on the admin payout screen.
type PayoutView struct {
	Booking           Booking     `json:"booking"`
	Badge             PayoutBadge `json:"badge"`
	Eligible          bool        `json:"eligible"`
	EligibleAt        *time.Time  `json:"eligible_at,omitempty"`
	DaysUntilEligible int         `json:"days_until_eligible"`
}

type PayoutFilter string

const (
	PayoutFilterAll      PayoutFilter = "all"
	PayoutFilterReady    PayoutFilter = "ready"
	PayoutFilterPending  PayoutFilter = "pending"
	PayoutFilterReleased PayoutFilter = "released"
	PayoutFilterDisputed PayoutFilter = "disputed"
)

// ReleaseResult is the outcome of one release in a bulk request.
type ReleaseResult struct {
	BookingID uuid.UUID `json:"booking_id"`
	Released  bool      `json:"released"`
	Error     string    `json:"error,omitempty"`
}
