package utils

import (
	"errors"
	"fmt"
	"math"
	"time"

	"rental-marketplace-backend/internal/domain"
)

var ErrNoPricing = errors.New("listing has no usable price tier")

// Date represents a calendar date
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateOf drops the time of day from t, in t's location.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}
}

// DateDifference represents the difference between two dates
type DateDifference struct {
	Months int
	Days   int
}

// RentalCostBreakdown provides detailed cost breakdown in cents
type RentalCostBreakdown struct {
	Hours      int   `json:"hours,omitempty"`
	Months     int   `json:"months,omitempty"`
	Weeks      int   `json:"weeks,omitempty"`
	Days       int   `json:"days,omitempty"`
	HoursCost  int64 `json:"hours_cost,omitempty"`
	MonthsCost int64 `json:"months_cost,omitempty"`
	WeeksCost  int64 `json:"weeks_cost,omitempty"`
	DaysCost   int64 `json:"days_cost,omitempty"`
	TotalCost  int64 `json:"total_cost"`
}

// DaysInMonth returns the number of days in a given month
func DaysInMonth(year, month int) int {
	if month == 2 {
		if (year%4 == 0 && year%100 != 0) || (year%400 == 0) {
			return 29
		}
		return 28
	}
	if month == 4 || month == 6 || month == 9 || month == 11 {
		return 30
	}
	return 31
}

// CalculateDateDifference computes whole months plus remaining days between two dates.
// Both ends are included, so the same date yields one day.
func CalculateDateDifference(startDate, endDate Date) (DateDifference, error) {
	if endDate.Year < startDate.Year ||
		(endDate.Year == startDate.Year && endDate.Month < startDate.Month) ||
		(endDate.Year == startDate.Year && endDate.Month == startDate.Month && endDate.Day < startDate.Day) {
		return DateDifference{}, fmt.Errorf("%w: end date must be >= start date", domain.ErrValidation)
	}

	years := endDate.Year - startDate.Year
	months := endDate.Month - startDate.Month
	days := endDate.Day - startDate.Day + 1

	// borrow from months
	if days < 0 {
		months--
		prevMonth := endDate.Month - 1
		prevYear := endDate.Year
		if prevMonth < 1 {
			prevMonth = 12
			prevYear--
		}
		days += DaysInMonth(prevYear, prevMonth)
	}

	if months < 0 {
		years--
		months += 12
	}

	return DateDifference{Months: months + 12*years, Days: days}, nil
}

// inclusiveDays counts calendar days from start to end, both included.
func inclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// CalculateRentalSubtotal prices a rental window against the listing's tiers.
//
// Windows shorter than a day on a listing with an hourly rate are charged per started hour,
// capped at one day when a daily rate exists. Longer windows use tiered pricing
// (months, then weeks, then days) and never cost more than the plain daily rate times the
// number of days. Missing weekly or monthly tiers fall back to 7 and 30 daily rates.
func CalculateRentalSubtotal(start, end time.Time, listing *domain.Listing) (RentalCostBreakdown, error) {
	if start.IsZero() || end.IsZero() {
		return RentalCostBreakdown{}, fmt.Errorf("%w: start and end are required", domain.ErrValidation)
	}
	if end.Before(start) {
		return RentalCostBreakdown{}, fmt.Errorf("%w: end must not be before start", domain.ErrValidation)
	}
	if listing.HourlyRate < 0 || listing.DailyRate < 0 || listing.WeeklyRate < 0 || listing.MonthlyRate < 0 {
		return RentalCostBreakdown{}, fmt.Errorf("%w: negative price tier", ErrInvalidAmount)
	}

	duration := end.Sub(start)
	if listing.HourlyRate > 0 && (duration < 24*time.Hour || listing.DailyRate == 0) {
		return hourlyCost(duration, listing), nil
	}
	if listing.DailyRate == 0 {
		return RentalCostBreakdown{}, ErrNoPricing
	}

	diff, err := CalculateDateDifference(DateOf(start), DateOf(end))
	if err != nil {
		return RentalCostBreakdown{}, err
	}
	tiered := tieredCost(diff, listing)

	days := inclusiveDays(start, end)
	if flat := int64(days) * listing.DailyRate; flat < tiered.TotalCost {
		return RentalCostBreakdown{Days: days, DaysCost: flat, TotalCost: flat}, nil
	}
	return tiered, nil
}

func hourlyCost(duration time.Duration, listing *domain.Listing) RentalCostBreakdown {
	hours := int(math.Ceil(duration.Hours()))
	if hours < 1 {
		hours = 1
	}
	cost := int64(hours) * listing.HourlyRate
	if listing.DailyRate > 0 && duration < 24*time.Hour && listing.DailyRate < cost {
		return RentalCostBreakdown{Days: 1, DaysCost: listing.DailyRate, TotalCost: listing.DailyRate}
	}
	return RentalCostBreakdown{Hours: hours, HoursCost: cost, TotalCost: cost}
}

func tieredCost(diff DateDifference, listing *domain.Listing) RentalCostBreakdown {
	const daysPerWeek = 7

	monthly := listing.MonthlyRate
	if monthly == 0 {
		monthly = 30 * listing.DailyRate
	}
	weekly := listing.WeeklyRate
	if weekly == 0 {
		weekly = daysPerWeek * listing.DailyRate
	}

	weeks := diff.Days / daysPerWeek
	days := diff.Days % daysPerWeek

	monthsCost := int64(diff.Months) * monthly
	weeksCost := int64(weeks) * weekly
	daysCost := int64(days) * listing.DailyRate

	return RentalCostBreakdown{
		Months:     diff.Months,
		Weeks:      weeks,
		Days:       days,
		MonthsCost: monthsCost,
		WeeksCost:  weeksCost,
		DaysCost:   daysCost,
		TotalCost:  monthsCost + weeksCost + daysCost,
	}
}
