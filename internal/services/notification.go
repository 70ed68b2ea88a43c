package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatherly/internal/domain"
)

type notificationService struct {
	notifRepo      domain.NotificationRepository
	contextTimeout time.Duration
}

func NewNotificationService(notifRepo domain.NotificationRepository, timeout time.Duration) domain.NotificationService {
	return &notificationService{
		notifRepo:      notifRepo,
		contextTimeout: timeout,
	}
}

func (s *notificationService) ListForUser(ctx context.Context, userID string, unopenedOnly bool) ([]*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	notifications, err := s.notifRepo.ListForUser(ctx, userID, unopenedOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []*domain.Notification{}
	}
	return notifications, nil
}

func (s *notificationService) Latest(ctx context.Context, userID string) (*domain.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	latest, err := s.notifRepo.Latest(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("latest notification: %w", err)
	}
	return latest, nil
}

func (s *notificationService) MarkOpened(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.notifRepo.MarkOpened(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark notification opened: %w", err)
	}
	return nil
}
