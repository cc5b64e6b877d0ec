package storage

import (
	"context"

	"github.com/terra-clan/student-portal/internal/models"
)

// Repository defines the interface for dashboard widget data
type Repository interface {
	ListFeedback(ctx context.Context, studentID string) ([]*models.Feedback, error)
	ListNotifications(ctx context.Context, studentID string) ([]*models.Notification, error)
	ListPayments(ctx context.Context, studentID string) ([]*models.Payment, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// ReadTracker records which notifications a student has read
type ReadTracker interface {
	MarkRead(ctx context.Context, studentID, notificationID string) error
	ReadSet(ctx context.Context, studentID string) (map[string]bool, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
