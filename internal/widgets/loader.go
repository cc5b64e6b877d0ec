package widgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/terra-clan/student-portal/internal/models"
)

// Widget data file names inside a widgets directory
const (
	FeedbackFile      = "feedback.yaml"
	NotificationsFile = "notifications.yaml"
	PaymentsFile      = "payments.yaml"
)

// Loader holds the static dashboard widget data. Every student sees the
// same records.
type Loader struct {
	mu            sync.RWMutex
	feedback      []*models.Feedback
	notifications []*models.Notification
	payments      []*models.Payment
}

// NewLoader creates a loader seeded with the built-in sample data
func NewLoader() *Loader {
	return &Loader{
		feedback:      sampleFeedback(),
		notifications: sampleNotifications(),
		payments:      samplePayments(),
	}
}

// LoadFromDir replaces widget data with the YAML files found in dir.
// Missing files keep the current data for that widget. Nothing is replaced
// unless every file present is valid.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading widget data from directory", "dir", dir)

	var rawFeedback []*models.Feedback
	foundFeedback, err := readFile(filepath.Join(dir, FeedbackFile), &rawFeedback)
	if err != nil {
		return err
	}
	feedback, err := prepareFeedback(rawFeedback)
	if err != nil {
		return fmt.Errorf("%s: %w", FeedbackFile, err)
	}

	var rawNotifications []*models.Notification
	foundNotifications, err := readFile(filepath.Join(dir, NotificationsFile), &rawNotifications)
	if err != nil {
		return err
	}
	notifications, err := prepareNotifications(rawNotifications)
	if err != nil {
		return fmt.Errorf("%s: %w", NotificationsFile, err)
	}

	var rawPayments []*models.Payment
	foundPayments, err := readFile(filepath.Join(dir, PaymentsFile), &rawPayments)
	if err != nil {
		return err
	}
	payments, err := preparePayments(rawPayments)
	if err != nil {
		return fmt.Errorf("%s: %w", PaymentsFile, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if foundFeedback {
		l.feedback = feedback
	}
	if foundNotifications {
		l.notifications = notifications
	}
	if foundPayments {
		l.payments = payments
	}

	slog.Info("widget data loaded",
		"feedback", len(l.feedback),
		"notifications", len(l.notifications),
		"payments", len(l.payments),
	)

	return nil
}

// readFile decodes a YAML list; found is false when the file does not exist
func readFile(path string, out interface{}) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read file: %w", err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to parse YAML %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// SetFeedback validates and replaces the feedback list
func (l *Loader) SetFeedback(items []*models.Feedback) error {
	feedback, err := prepareFeedback(items)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.feedback = feedback
	l.mu.Unlock()
	return nil
}

// SetNotifications validates and replaces the notification list
func (l *Loader) SetNotifications(items []*models.Notification) error {
	notifications, err := prepareNotifications(items)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.notifications = notifications
	l.mu.Unlock()
	return nil
}

// SetPayments validates and replaces the payment list
func (l *Loader) SetPayments(items []*models.Payment) error {
	payments, err := preparePayments(items)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.payments = payments
	l.mu.Unlock()
	return nil
}

// The prepare functions validate copies of the items, fill in missing ids
// and sort. The caller's records are never modified.

func prepareFeedback(items []*models.Feedback) ([]*models.Feedback, error) {
	result := make([]*models.Feedback, 0, len(items))
	for i, f := range items {
		if f == nil {
			return nil, fmt.Errorf("entry %d: empty record", i)
		}
		cp := *f
		if err := cp.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		result = append(result, &cp)
	}

	for _, f := range result {
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
	}

	// Newest lesson first
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func prepareNotifications(items []*models.Notification) ([]*models.Notification, error) {
	result := make([]*models.Notification, 0, len(items))
	for i, n := range items {
		if n == nil {
			return nil, fmt.Errorf("entry %d: empty record", i)
		}
		cp := *n
		if err := cp.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		result = append(result, &cp)
	}

	for _, n := range result {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func preparePayments(items []*models.Payment) ([]*models.Payment, error) {
	result := make([]*models.Payment, 0, len(items))
	for i, p := range items {
		if p == nil {
			return nil, fmt.Errorf("entry %d: empty record", i)
		}
		cp := *p
		if err := cp.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		result = append(result, &cp)
	}

	for _, p := range result {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DueDate.Before(result[j].DueDate)
	})
	return result, nil
}

// --- storage.Repository ---

// ListFeedback returns a copy of the feedback list
func (l *Loader) ListFeedback(ctx context.Context, studentID string) ([]*models.Feedback, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Feedback, 0, len(l.feedback))
	for _, f := range l.feedback {
		cp := *f
		result = append(result, &cp)
	}
	return result, nil
}

// ListNotifications returns a copy of the notification list
func (l *Loader) ListNotifications(ctx context.Context, studentID string) ([]*models.Notification, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Notification, 0, len(l.notifications))
	for _, n := range l.notifications {
		cp := *n
		result = append(result, &cp)
	}
	return result, nil
}

// ListPayments returns a copy of the payment list
func (l *Loader) ListPayments(ctx context.Context, studentID string) ([]*models.Payment, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Payment, 0, len(l.payments))
	for _, p := range l.payments {
		cp := *p
		result = append(result, &cp)
	}
	return result, nil
}

// Ping always succeeds for in-process data
func (l *Loader) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (l *Loader) Close() error {
	return nil
}
