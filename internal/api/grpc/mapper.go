package grpc

import (
	"errors"
	"time"

	"rental-marketplace-backend/internal/domain"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// MapBookingToStruct flattens a booking into the field map sent as a google.protobuf.Struct.
func MapBookingToStruct(b *domain.Booking) map[string]any {
	if b == nil {
		return nil
	}
	m := map[string]any{
		"id":                  b.ID.String(),
		"listing_id":          b.ListingID.String(),
		"renter_id":           b.RenterID.String(),
		"owner_id":            b.OwnerID.String(),
		"status":              string(b.Status),
		"start_date":          b.StartDate.Format(time.DateOnly),
		"end_date":            b.EndDate.Format(time.DateOnly),
		"completed_at":        formatTime(b.CompletedAt),
		"admin_released_at":   formatTime(b.AdminReleasedAt),
		"subtotal":            b.Subtotal,
		"service_fee":         b.ServiceFee,
		"platform_commission": b.PlatformCommission,
		"insurance_fee":       b.InsuranceFee,
		"delivery_fee":        b.DeliveryFee,
		"total_amount":        b.TotalAmount,
		"owner_payout":        b.OwnerPayout,
	}
	if b.ReleasedBy != nil {
		m["released_by"] = b.ReleasedBy.String()
	}
	if b.DisputeReason != "" {
		m["dispute_reason"] = b.DisputeReason
	}
	if b.Listing != nil {
		m["listing_title"] = b.Listing.Title
	}
	if b.Owner != nil {
		m["owner_name"] = b.Owner.FullName
		m["owner_email"] = b.Owner.Email
	}
	if b.Renter != nil {
		m["renter_name"] = b.Renter.FullName
	}
	return m
}

func MapPayoutViewToStruct(v domain.PayoutView) map[string]any {
	return map[string]any{
		"booking":             MapBookingToStruct(&v.Booking),
		"badge":               string(v.Badge),
		"eligible":            v.Eligible,
		"eligible_at":         formatTime(v.EligibleAt),
		"days_until_eligible": v.DaysUntilEligible,
	}
}

// toStatus maps domain errors to gRPC status codes.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := codes.Internal
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrUnauthorized):
		code = codes.Unauthenticated
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNotEligible),
		errors.Is(err, domain.ErrPaymentIncomplete),
		errors.Is(err, domain.ErrInvalidAmounts):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrValidation):
		code = codes.InvalidArgument
	}
	return status.Error(code, err.Error())
}
