package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type listingRepository struct {
	db dbtx
}

func NewListingRepository(db dbtx) repository.ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	l := &domain.Listing{}
	var approval string
	var lat, lng sql.NullFloat64
	query := `SELECT id, owner_id, title, COALESCE(description, ''), COALESCE(category, ''),
	          COALESCE(hourly_rate, 0), COALESCE(daily_rate, 0), COALESCE(weekly_rate, 0), COALESCE(monthly_rate, 0),
	          COALESCE(deposit_amount, 0), approval_status, COALESCE(rejection_reason, ''), is_active, images,
	          COALESCE(city, ''), latitude, longitude, created_at, updated_at
	          FROM listings WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.Category,
		&l.HourlyRate, &l.DailyRate, &l.WeeklyRate, &l.MonthlyRate,
		&l.DepositAmount, &approval, &l.RejectionReason, &l.IsActive, pq.Array(&l.Images),
		&l.City, &lat, &lng, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("listing %s", id))
	}
	l.ApprovalStatus = domain.ListingApprovalStatus(approval)
	if lat.Valid {
		l.Latitude = &lat.Float64
	}
	if lng.Valid {
		l.Longitude = &lng.Float64
	}
	return l, nil
}

// UpdateModeration persists approval status, rejection reason and the active flag.
// Listings are never deleted.
func (r *listingRepository) UpdateModeration(ctx context.Context, l *domain.Listing) error {
	query := `UPDATE listings SET approval_status = $1, rejection_reason = NULLIF($2, ''), is_active = $3, updated_at = NOW()
	          WHERE id = $4`
	logger.DatabaseCall("UPDATE", "listings", "listingID", l.ID, "approvalStatus", l.ApprovalStatus)
	res, err := r.db.ExecContext(ctx, query, string(l.ApprovalStatus), l.RejectionReason, l.IsActive, l.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "listingID", l.ID)
		return err
	}
	return expectOneRow(res, fmt.Sprintf("listing %s", l.ID))
}
