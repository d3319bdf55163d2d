package postgres

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
)

type payoutRepository struct {
	db dbtx
}

func NewPayoutRepository(db dbtx) repository.PayoutRepository {
	return &payoutRepository{db: db}
}

// Create inserts the release audit row. booking_id is unique, so a second release of the
// same booking fails at the database even if two admins race.
func (r *payoutRepository) Create(ctx context.Context, p *domain.PayoutRelease) error {
	logger.EnterMethod("payoutRepository.Create", "bookingID", p.BookingID, "amount", p.Amount)
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	query := `INSERT INTO payout_releases (id, booking_id, owner_id, amount, released_by, released_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	logger.DatabaseCall("INSERT", "payout_releases", "bookingID", p.BookingID)
	res, err := r.db.ExecContext(ctx, query, p.ID, p.BookingID, p.OwnerID, p.Amount, p.ReleasedBy, p.ReleasedAt)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "bookingID", p.BookingID)
		logger.ExitMethodWithError("payoutRepository.Create", err, "bookingID", p.BookingID)
		return err
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, nil, "bookingID", p.BookingID)
	logger.ExitMethod("payoutRepository.Create", "releaseID", p.ID)
	return nil
}

func (r *payoutRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.PayoutRelease, error) {
	p := &domain.PayoutRelease{}
	query := `SELECT id, booking_id, owner_id, amount, released_by, released_at FROM payout_releases WHERE booking_id = $1`
	err := r.db.QueryRowContext(ctx, query, bookingID).Scan(&p.ID, &p.BookingID, &p.OwnerID, &p.Amount, &p.ReleasedBy, &p.ReleasedAt)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payout release for booking %s", bookingID))
	}
	return p, nil
}
