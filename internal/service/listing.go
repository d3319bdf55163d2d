package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
)

type listingService struct {
	listingRepo repository.ListingRepository
	profileRepo repository.ProfileRepository
	notifier    NotificationService
}

func NewListingService(listingRepo repository.ListingRepository, profileRepo repository.ProfileRepository, notifier NotificationService) ListingService {
	return &listingService{listingRepo: listingRepo, profileRepo: profileRepo, notifier: notifier}
}

func (s *listingService) moderate(ctx context.Context, adminID, listingID uuid.UUID, status domain.ListingApprovalStatus, reason string) (*domain.Listing, error) {
	admin, err := s.profileRepo.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", domain.ErrForbidden)
		}
		return nil, err
	}
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrForbidden)
	}

	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	listing.ApprovalStatus = status
	listing.RejectionReason = reason
	if err := s.listingRepo.UpdateModeration(ctx, listing); err != nil {
		return nil, err
	}
	logger.Info("Listing moderated", "listingID", listing.ID, "status", status, "adminID", adminID)

	if s.notifier != nil {
		title, msg := "Listing Approved", fmt.Sprintf("%q is now visible to renters.", listing.Title)
		if status == domain.ListingApprovalRejected {
			title, msg = "Listing Rejected", fmt.Sprintf("%q was not approved: %s", listing.Title, reason)
		}
		attrs := map[string]string{"type": "LISTING_" + strings.ToUpper(string(status)), "listing_id": listing.ID.String()}
		if err := s.notifier.Notify(ctx, listing.OwnerID, title, msg, attrs); err != nil {
			logger.Warn("Failed to store notification", "userID", listing.OwnerID, "error", err)
		}
	}
	return listing, nil
}

func (s *listingService) ApproveListing(ctx context.Context, adminID, listingID uuid.UUID) (*domain.Listing, error) {
	return s.moderate(ctx, adminID, listingID, domain.ListingApprovalApproved, "")
}

func (s *listingService) RejectListing(ctx context.Context, adminID, listingID uuid.UUID, reason string) (*domain.Listing, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", domain.ErrValidation)
	}
	return s.moderate(ctx, adminID, listingID, domain.ListingApprovalRejected, reason)
}

// DeactivateListing hides a listing from renters. Listings are never deleted so past
// bookings keep their reference.
func (s *listingService) DeactivateListing(ctx context.Context, ownerID, listingID uuid.UUID) (*domain.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the owner can deactivate a listing", domain.ErrForbidden)
	}
	if !listing.IsActive {
		return listing, nil
	}
	listing.IsActive = false
	if err := s.listingRepo.UpdateModeration(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}
