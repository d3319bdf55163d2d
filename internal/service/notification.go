package service

import (
	"context"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"

	"github.com/google/uuid"
)

type notificationService struct {
	noteRepo    repository.NotificationRepository
	profileRepo repository.ProfileRepository
	email       EmailSender
	push        PushSender
}

// NewNotificationService wires in-app, e-mail and push delivery. email and push may be nil.
func NewNotificationService(noteRepo repository.NotificationRepository, profileRepo repository.ProfileRepository, email EmailSender, push PushSender) NotificationService {
	return &notificationService{noteRepo: noteRepo, profileRepo: profileRepo, email: email, push: push}
}

func (s *notificationService) Notify(ctx context.Context, userID uuid.UUID, title, message string, attrs map[string]string) error {
	note := &domain.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attrs,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		return err
	}
	s.Deliver(ctx, userID, title, message, attrs)
	return nil
}

func (s *notificationService) Deliver(ctx context.Context, userID uuid.UUID, title, message string, attrs map[string]string) {
	if s.email == nil && s.push == nil {
		return
	}
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		logger.Warn("Skipping notification delivery", "userID", userID, "error", err)
		return
	}

	if s.email != nil && profile.Email != "" {
		if err := s.email.Send(ctx, profile.Email, profile.FullName, title, message, ""); err != nil {
			logger.Warn("E-mail delivery failed", "userID", userID, "title", title, "error", err)
		}
	}
	if s.push != nil && profile.PushToken != "" {
		if err := s.push.Send(ctx, profile.PushToken, title, message, attrs); err != nil {
			logger.Warn("Push delivery failed", "userID", userID, "title", title, "error", err)
		}
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, userID uuid.UUID, page, pageSize int32) ([]domain.Notification, int32, error) {
	limit, offset := pageOffset(page, pageSize)
	return s.noteRepo.List(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}
