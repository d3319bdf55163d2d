package postgres

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type paymentRepository struct {
	db dbtx
}

func NewPaymentRepository(db dbtx) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `booking_id, provider_order_id, status, amount, COALESCE(net_amount, 0),
	COALESCE(platform_fee, 0), COALESCE(processor_fee, 0), created_at, updated_at`

func scanPayment(row rowScanner) (*domain.PaymentRecord, error) {
	p := &domain.PaymentRecord{}
	var status string
	err := row.Scan(&p.BookingID, &p.ProviderOrderID, &status, &p.Amount, &p.NetAmount,
		&p.PlatformFee, &p.ProcessorFee, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p *domain.PaymentRecord) error {
	query := `INSERT INTO payments (booking_id, provider_order_id, status, amount, net_amount, platform_fee, processor_fee, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING created_at, updated_at`
	logger.DatabaseCall("INSERT", "payments", "bookingID", p.BookingID, "orderID", p.ProviderOrderID)
	err := r.db.QueryRowContext(ctx, query, p.BookingID, p.ProviderOrderID, string(p.Status), p.Amount,
		p.NetAmount, p.PlatformFee, p.ProcessorFee).Scan(&p.CreatedAt, &p.UpdatedAt)
	logger.DatabaseResult("INSERT", 1, err, "bookingID", p.BookingID)
	return err
}

func (r *paymentRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payment for booking %s", bookingID))
	}
	return p, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE provider_order_id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("payment for order %s", orderID))
	}
	return p, nil
}

func (r *paymentRepository) Update(ctx context.Context, p *domain.PaymentRecord) error {
	query := `UPDATE payments SET status = $1, net_amount = $2, platform_fee = $3, processor_fee = $4, updated_at = NOW()
	          WHERE booking_id = $5 RETURNING updated_at`
	logger.DatabaseCall("UPDATE", "payments", "bookingID", p.BookingID, "status", p.Status)
	err := r.db.QueryRowContext(ctx, query, string(p.Status), p.NetAmount, p.PlatformFee, p.ProcessorFee, p.BookingID).Scan(&p.UpdatedAt)
	logger.DatabaseResult("UPDATE", 1, err, "bookingID", p.BookingID)
	if err != nil {
		return notFound(err, fmt.Sprintf("payment for booking %s", p.BookingID))
	}
	return nil
}

func (r *paymentRepository) ListByStatus(ctx context.Context, statuses []domain.PaymentStatus, limit int32) ([]domain.PaymentRecord, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = ANY($1) ORDER BY updated_at LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(values), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.PaymentRecord
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
