package utils

import (
	"errors"
	"fmt"
	"math"
	"time"

	"rental-marketplace-backend/internal/domain"
)

// PayoutHoldWorkingDays is the number of working days an owner payout is held
// after the owner confirms the item came back.
const PayoutHoldWorkingDays = 2

var (
	ErrMissingReturnConfirmation = errors.New("return confirmation timestamp is required")
	ErrNegativeWorkingDays       = errors.New("working days must be >= 0")
	ErrInvalidAmount             = errors.New("amount must be between 0 and the maximum amount")
	ErrInvalidRate               = errors.New("rate must be between 0 and 10000 basis points")
)

// IsWorkingDay reports whether t falls on Monday through Friday. No holiday calendar is applied.
func IsWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// AddWorkingDays advances date one calendar day at a time, counting only working days,
// until n have been counted. The time of day and location are kept. n == 0 returns date unchanged.
func AddWorkingDays(date time.Time, n int) (time.Time, error) {
	if n < 0 {
		return time.Time{}, fmt.Errorf("%w: got %d", ErrNegativeWorkingDays, n)
	}
	result := date
	added := 0
	for added < n {
		// AddDate keeps wall clock time across DST changes.
		result = result.AddDate(0, 0, 1)
		if IsWorkingDay(result) {
			added++
		}
	}
	return result, nil
}

// PayoutEligibleAt returns the instant a payout becomes releasable.
func PayoutEligibleAt(returnConfirmedAt time.Time, holdDays int) (time.Time, error) {
	if returnConfirmedAt.IsZero() {
		return time.Time{}, ErrMissingReturnConfirmation
	}
	return AddWorkingDays(returnConfirmedAt, holdDays)
}

// ComputeEligibility reports whether now is at or past the end of the default hold period.
func ComputeEligibility(returnConfirmedAt, now time.Time) (bool, error) {
	return ComputeEligibilityWithHold(returnConfirmedAt, now, PayoutHoldWorkingDays)
}

// ComputeEligibilityWithHold is ComputeEligibility with an explicit hold period.
func ComputeEligibilityWithHold(returnConfirmedAt, now time.Time, holdDays int) (bool, error) {
	eligibleAt, err := PayoutEligibleAt(returnConfirmedAt, holdDays)
	if err != nil {
		return false, err
	}
	return !now.Before(eligibleAt), nil
}

// ComputeDaysUntilEligible returns the whole days, rounded up, until the payout is
// releasable, or 0 once it is.
func ComputeDaysUntilEligible(returnConfirmedAt, now time.Time) (int, error) {
	return ComputeDaysUntilEligibleWithHold(returnConfirmedAt, now, PayoutHoldWorkingDays)
}

// ComputeDaysUntilEligibleWithHold is ComputeDaysUntilEligible with an explicit hold period.
func ComputeDaysUntilEligibleWithHold(returnConfirmedAt, now time.Time, holdDays int) (int, error) {
	eligibleAt, err := PayoutEligibleAt(returnConfirmedAt, holdDays)
	if err != nil {
		return 0, err
	}
	remaining := eligibleAt.Sub(now)
	if remaining <= 0 {
		return 0, nil
	}
	return int(math.Ceil(remaining.Hours() / 24)), nil
}

// FeeRates holds fee percentages in basis points (1500 = 15%).
type FeeRates struct {
	ServiceFeeBps int64 `yaml:"service_fee_bps"`
	CommissionBps int64 `yaml:"commission_bps"`
	InsuranceBps  int64 `yaml:"insurance_bps"`
}

// DefaultFeeRates is the canonical rate table: 15% service fee charged to the renter,
// 20% commission deducted from the owner, 10% optional insurance.
var DefaultFeeRates = FeeRates{
	ServiceFeeBps: 1500,
	CommissionBps: 2000,
	InsuranceBps:  1000,
}

// Validate checks every rate is a percentage between 0 and 100.
func (r FeeRates) Validate() error {
	for name, bps := range map[string]int64{
		"service fee": r.ServiceFeeBps,
		"commission":  r.CommissionBps,
		"insurance":   r.InsuranceBps,
	} {
		if bps < 0 || bps > 10000 {
			return fmt.Errorf("%w: %s = %d", ErrInvalidRate, name, bps)
		}
	}
	return nil
}

// FeeOptions are the per-booking extras.
type FeeOptions struct {
	Insurance   bool
	DeliveryFee int64
}

// FeeBreakdown is every amount shown to the renter, the owner and the admin, in cents.
type FeeBreakdown struct {
	Subtotal           int64 `json:"subtotal"`
	ServiceFee         int64 `json:"service_fee"`
	PlatformCommission int64 `json:"platform_commission"`
	InsuranceFee       int64 `json:"insurance_fee"`
	DeliveryFee        int64 `json:"delivery_fee"`
	OwnerPayout        int64 `json:"owner_payout"`
	TotalCharged       int64 `json:"total_charged"`
}

// ComputeFees splits a subtotal into renter charges and owner payout.
// Every percentage is taken of the subtotal and rounded half up to the cent.
func ComputeFees(subtotal int64, rates FeeRates, opts FeeOptions) (FeeBreakdown, error) {
	if subtotal < 0 || subtotal > domain.MaxAmount {
		return FeeBreakdown{}, fmt.Errorf("%w: subtotal %d", ErrInvalidAmount, subtotal)
	}
	if opts.DeliveryFee < 0 || opts.DeliveryFee > domain.MaxAmount {
		return FeeBreakdown{}, fmt.Errorf("%w: delivery fee %d", ErrInvalidAmount, opts.DeliveryFee)
	}
	if err := rates.Validate(); err != nil {
		return FeeBreakdown{}, err
	}

	fees := FeeBreakdown{
		Subtotal:           subtotal,
		ServiceFee:         PercentOf(subtotal, rates.ServiceFeeBps),
		PlatformCommission: PercentOf(subtotal, rates.CommissionBps),
		DeliveryFee:        opts.DeliveryFee,
	}
	if opts.Insurance {
		fees.InsuranceFee = PercentOf(subtotal, rates.InsuranceBps)
	}
	fees.OwnerPayout = subtotal - fees.PlatformCommission
	fees.TotalCharged = subtotal + fees.ServiceFee + fees.InsuranceFee + fees.DeliveryFee
	return fees, nil
}

// PercentOf returns amount * bps / 10000 rounded half up. amount must be between 0 and
// domain.MaxAmount and bps at most 10000.
func PercentOf(amount, bps int64) int64 {
	return (amount*bps + 5000) / 10000
}

// FormatCents renders cents as a dollar string, e.g. 31250 -> "$312.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
