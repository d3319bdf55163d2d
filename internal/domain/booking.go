package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending       BookingStatus = "pending"
	BookingStatusConfirmed     BookingStatus = "confirmed"
	BookingStatusRejected      BookingStatus = "rejected"
	BookingStatusCancelled     BookingStatus = "cancelled"
	BookingStatusInProgress    BookingStatus = "in_progress"
	BookingStatusReturnPending BookingStatus = "return_pending"
	BookingStatusCompleted     BookingStatus = "completed"
	BookingStatusReleased      BookingStatus = "released"
	BookingStatusDisputed      BookingStatus = "disputed"
)

// bookingTransitions lists the statuses reachable from each status.
// Terminal statuses have no entry.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:       {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed:     {BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusInProgress:    {BookingStatusReturnPending, BookingStatusDisputed},
	BookingStatusReturnPending: {BookingStatusCompleted, BookingStatusDisputed},
	BookingStatusCompleted:     {BookingStatusReleased, BookingStatusDisputed},
	BookingStatusDisputed:      {BookingStatusCompleted},
}

// ParseBookingStatus validates a status coming from a request or a row.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	switch st {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled,
		BookingStatusInProgress, BookingStatusReturnPending, BookingStatusCompleted,
		BookingStatusReleased, BookingStatusDisputed:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown booking status %q", ErrValidation, s)
}

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	_, ok := bookingTransitions[s]
	return !ok
}

type Booking struct {
	ID        uuid.UUID `json:"id"`
	ListingID uuid.UUID `json:"listing_id"`
	RenterID  uuid.UUID `json:"renter_id"`
	OwnerID   uuid.UUID `json:"owner_id"`

	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	PickedUpAt      *time.Time `json:"picked_up_at,omitempty"`
	ReturnedAt      *time.Time `json:"returned_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"` // owner confirmed return receipt
	AdminReleasedAt *time.Time `json:"admin_released_at,omitempty"`
	ReleasedBy      *uuid.UUID `json:"released_by,omitempty"`

	// Amounts are in minor units (cents), captured at creation time.
	Subtotal           int64 `json:"subtotal"`
	ServiceFee         int64 `json:"service_fee"`
	PlatformCommission int64 `json:"platform_commission"`
	InsuranceFee       int64 `json:"insurance_fee"`
	DeliveryFee        int64 `json:"delivery_fee"`
	DepositAmount      int64 `json:"deposit_amount"`
	TotalAmount        int64 `json:"total_amount"`
	OwnerPayout        int64 `json:"owner_payout"`

	Status             BookingStatus `json:"status"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	RejectionReason    string        `json:"rejection_reason,omitempty"`
	DisputeReason      string        `json:"dispute_reason,omitempty"`

	// Populated by joined reads only.
	Listing *ListingSummary `json:"listing,omitempty"`
	Renter  *ProfileSummary `json:"renter,omitempty"`
	Owner   *ProfileSummary `json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CanTransition reports whether the booking may move to the given status.
func (b *Booking) CanTransition(to BookingStatus) bool {
	for _, next := range bookingTransitions[b.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the booking to the given status or returns ErrInvalidTransition.
func (b *Booking) Transition(to BookingStatus) error {
	if !b.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}
	b.Status = to
	return nil
}

// IsParticipant reports whether the user is the renter or the owner.
func (b *Booking) IsParticipant(userID uuid.UUID) bool {
	return b.RenterID == userID || b.OwnerID == userID
}

// MaxAmount is the largest money value, in cents, accepted for any booking amount.
// Percentages are taken in basis points, so amount*10000 must fit in an int64.
const MaxAmount int64 = math.MaxInt64 / 10000

// CheckAmounts verifies the stored financial fields are internally consistent.
func (b *Booking) CheckAmounts() error {
	if b.Subtotal < 0 || b.ServiceFee < 0 || b.PlatformCommission < 0 || b.InsuranceFee < 0 || b.DeliveryFee < 0 {
		return fmt.Errorf("%w: booking %s has negative amounts", ErrInvalidAmounts, b.ID)
	}
	if b.Subtotal > MaxAmount || b.DeliveryFee > MaxAmount || b.TotalAmount < 0 || b.TotalAmount > 4*MaxAmount {
		return fmt.Errorf("%w: booking %s amounts are out of range", ErrInvalidAmounts, b.ID)
	}
	if b.TotalAmount != b.Subtotal+b.ServiceFee+b.InsuranceFee+b.DeliveryFee {
		return fmt.Errorf("%w: booking %s total does not match its parts", ErrInvalidAmounts, b.ID)
	}
	if b.OwnerPayout != b.Subtotal-b.PlatformCommission || b.OwnerPayout < 0 {
		return fmt.Errorf("%w: booking %s owner payout does not match subtotal minus commission", ErrInvalidAmounts, b.ID)
	}
	return nil
}
