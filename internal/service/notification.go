package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haneul/bulletin/internal/model"
	"github.com/haneul/bulletin/internal/repository"
)

// NotificationService backs the header's unread badge.
type NotificationService struct {
	repo   repository.NotificationRepository
	logger *slog.Logger
}

func NewNotificationService(repo repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:   repo,
		logger: logger,
	}
}

// Notify records a notification for a user.
func (s *NotificationService) Notify(ctx context.Context, userID, message string) error {
	n := &model.Notification{UserID: userID, Message: message}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.logger.Error("failed to create notification",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// UnreadCount returns the badge number. A failed count degrades to zero so
// a notifications hiccup never breaks the page that embeds the badge.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) int {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count unread notifications",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return 0
	}
	return n
}

// MarkAllRead clears the badge.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		s.logger.Error("failed to mark notifications read",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("marking notifications read: %w", err)
	}
	return nil
}
