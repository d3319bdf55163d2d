package postgres

import (
	"context"
	"fmt"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
)

type profileRepository struct {
	db dbtx
}

func NewProfileRepository(db dbtx) repository.ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, email, COALESCE(full_name, ''), COALESCE(password_hash, ''), role, is_verified,
	COALESCE(rating_average, 0), COALESCE(rating_count, 0), COALESCE(push_token, ''), created_at, updated_at`

func scanProfile(row rowScanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	var role string
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.PasswordHash, &role, &p.IsVerified,
		&p.RatingAverage, &p.RatingCount, &p.PushToken, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Role = domain.ProfileRole(role)
	return p, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("profile %s", id))
	}
	return p, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE LOWER(email) = LOWER($1)`
	p, err := scanProfile(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return p, nil
}

func (r *profileRepository) ListAdmins(ctx context.Context) ([]domain.Profile, error) {
	logger.EnterMethod("profileRepository.ListAdmins")

	query := `SELECT ` + profileColumns + ` FROM profiles WHERE role = $1 ORDER BY created_at`
	logger.DatabaseCall("SELECT", "profiles", "role", domain.ProfileRoleAdmin)
	rows, err := r.db.QueryContext(ctx, query, string(domain.ProfileRoleAdmin))
	if err != nil {
		logger.ExitMethodWithError("profileRepository.ListAdmins", err)
		return nil, err
	}
	defer rows.Close()

	var admins []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			logger.ExitMethodWithError("profileRepository.ListAdmins", err)
			return nil, err
		}
		admins = append(admins, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("SELECT", int64(len(admins)), nil)
	logger.ExitMethod("profileRepository.ListAdmins", "count", len(admins))
	return admins, nil
}
