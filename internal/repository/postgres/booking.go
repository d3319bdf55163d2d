package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type bookingRepository struct {
	db dbtx
}

func NewBookingRepository(db dbtx) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `b.id, b.listing_id, b.renter_id, b.owner_id, b.start_date, b.end_date,
	b.picked_up_at, b.returned_at, b.completed_at, b.admin_released_at, b.released_by,
	b.subtotal, b.service_fee, b.platform_commission, b.insurance_fee, b.delivery_fee,
	b.deposit_amount, b.total_amount, b.owner_payout, b.status,
	COALESCE(b.cancellation_reason, ''), COALESCE(b.rejection_reason, ''), COALESCE(b.dispute_reason, ''),
	b.created_at, b.updated_at,
	l.id, COALESCE(l.title, ''), COALESCE(l.images[1], ''),
	r.id, COALESCE(r.full_name, ''), COALESCE(r.email, ''),
	o.id, COALESCE(o.full_name, ''), COALESCE(o.email, '')`

const bookingJoins = `FROM bookings b
	LEFT JOIN listings l ON l.id = b.listing_id
	LEFT JOIN profiles r ON r.id = b.renter_id
	LEFT JOIN profiles o ON o.id = b.owner_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanBooking reads one row selected with bookingColumns. Joined relations come back
// as nil when the related row is missing.
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	var pickedUp, returned, completed, released sql.NullTime
	var releasedBy, listingID, renterID, ownerID uuid.NullUUID
	var listing domain.ListingSummary
	var renter, owner domain.ProfileSummary

	err := row.Scan(&b.ID, &b.ListingID, &b.RenterID, &b.OwnerID, &b.StartDate, &b.EndDate,
		&pickedUp, &returned, &completed, &released, &releasedBy,
		&b.Subtotal, &b.ServiceFee, &b.PlatformCommission, &b.InsuranceFee, &b.DeliveryFee,
		&b.DepositAmount, &b.TotalAmount, &b.OwnerPayout, &status,
		&b.CancellationReason, &b.RejectionReason, &b.DisputeReason,
		&b.CreatedAt, &b.UpdatedAt,
		&listingID, &listing.Title, &listing.Image,
		&renterID, &renter.FullName, &renter.Email,
		&ownerID, &owner.FullName, &owner.Email)
	if err != nil {
		return nil, err
	}

	if b.Status, err = domain.ParseBookingStatus(status); err != nil {
		return nil, err
	}
	b.PickedUpAt = timePtr(pickedUp)
	b.ReturnedAt = timePtr(returned)
	b.CompletedAt = timePtr(completed)
	b.AdminReleasedAt = timePtr(released)
	if releasedBy.Valid {
		id := releasedBy.UUID
		b.ReleasedBy = &id
	}
	if listingID.Valid {
		listing.ID = listingID.UUID
		b.Listing = &listing
	}
	if renterID.Valid {
		renter.ID = renterID.UUID
		b.Renter = &renter
	}
	if ownerID.Valid {
		owner.ID = ownerID.UUID
		b.Owner = &owner
	}
	return &b, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Create", "listingID", b.ListingID, "renterID", b.RenterID)

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	query := `INSERT INTO bookings (id, listing_id, renter_id, owner_id, start_date, end_date,
	          subtotal, service_fee, platform_commission, insurance_fee, delivery_fee,
	          deposit_amount, total_amount, owner_payout, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
	          RETURNING created_at, updated_at`
	logger.DatabaseCall("INSERT", "bookings", "bookingID", b.ID)

	err := r.db.QueryRowContext(ctx, query, b.ID, b.ListingID, b.RenterID, b.OwnerID, b.StartDate, b.EndDate,
		b.Subtotal, b.ServiceFee, b.PlatformCommission, b.InsuranceFee, b.DeliveryFee,
		b.DepositAmount, b.TotalAmount, b.OwnerPayout, string(b.Status)).Scan(&b.CreatedAt, &b.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", b.ID)

	if err != nil {
		logger.ExitMethodWithError("bookingRepository.Create", err, "bookingID", b.ID)
		return err
	}
	logger.ExitMethod("bookingRepository.Create", "bookingID", b.ID)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` ` + bookingJoins + ` WHERE b.id = $1`
	logger.DatabaseCall("SELECT", "bookings", "bookingID", id)
	b, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("booking %s", id))
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	logger.EnterMethod("bookingRepository.Update", "bookingID", b.ID, "status", b.Status)

	query := `UPDATE bookings SET status = $1, picked_up_at = $2, returned_at = $3, completed_at = $4,
	          admin_released_at = $5, released_by = $6, cancellation_reason = NULLIF($7, ''),
	          rejection_reason = NULLIF($8, ''), dispute_reason = NULLIF($9, ''), updated_at = NOW()
	          WHERE id = $10 RETURNING updated_at`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", b.ID)

	err := r.db.QueryRowContext(ctx, query, string(b.Status), nullTime(b.PickedUpAt), nullTime(b.ReturnedAt),
		nullTime(b.CompletedAt), nullTime(b.AdminReleasedAt), nullUUID(b.ReleasedBy),
		b.CancellationReason, b.RejectionReason, b.DisputeReason, b.ID).Scan(&b.UpdatedAt)
	logger.DatabaseResult("UPDATE", 1, err, "bookingID", b.ID)

	if err != nil {
		err = notFound(err, fmt.Sprintf("booking %s", b.ID))
		logger.ExitMethodWithError("bookingRepository.Update", err, "bookingID", b.ID)
		return err
	}
	logger.ExitMethod("bookingRepository.Update", "bookingID", b.ID, "status", b.Status)
	return nil
}

func (r *bookingRepository) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE bookings SET last_reminded_at = $1 WHERE id = $2`
	logger.DatabaseCall("UPDATE", "bookings", "bookingID", id, "op", "mark_reminded")
	res, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "bookingID", id)
		return err
	}
	return expectOneRow(res, fmt.Sprintf("booking %s", id))
}

func (r *bookingRepository) List(ctx context.Context, q repository.BookingQuery) ([]domain.Booking, int32, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if q.RenterID != nil {
		add("b.renter_id = $%d", *q.RenterID)
	}
	if q.OwnerID != nil {
		add("b.owner_id = $%d", *q.OwnerID)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		add("b.status = ANY($%d)", pq.Array(statuses))
	}
	if q.StartBefore != nil {
		add("b.start_date < $%d", *q.StartBefore)
	}
	if q.EndBefore != nil {
		add("b.end_date < $%d", *q.EndBefore)
	}
	if q.NotRemindedSince != nil {
		add("(b.last_reminded_at IS NULL OR b.last_reminded_at < $%d)", *q.NotRemindedSince)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var count int32
	countQuery := `SELECT count(*) FROM bookings b` + whereClause
	logger.DatabaseCall("SELECT", "bookings", "op", "count")
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + bookingColumns + ` ` + bookingJoins + whereClause +
		fmt.Sprintf(` ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, q.Offset)

	logger.DatabaseCall("SELECT", "bookings", "limit", limit, "offset", q.Offset)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	logger.DatabaseResult("SELECT", int64(len(bookings)), nil)
	return bookings, count, nil
}
