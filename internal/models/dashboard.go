package models

import (
	"fmt"
	"time"
)

// NotificationKind classifies a notification for display
type NotificationKind string

const (
	NotificationInfo     NotificationKind = "info"
	NotificationWarning  NotificationKind = "warning"
	NotificationReminder NotificationKind = "reminder"
)

// Valid reports whether the kind is one the dashboard knows how to show
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationInfo, NotificationWarning, NotificationReminder:
		return true
	}
	return false
}

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentOverdue PaymentStatus = "overdue"
)

// Valid reports whether the status is a known payment status
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentOverdue:
		return true
	}
	return false
}

// Feedback is an instructor's note on a completed lesson
type Feedback struct {
	ID         string    `json:"id" yaml:"id"`
	Instructor string    `json:"instructor" yaml:"instructor"`
	Lesson     string    `json:"lesson" yaml:"lesson"`
	Rating     int       `json:"rating" yaml:"rating"` // 1..5
	Comment    string    `json:"comment" yaml:"comment"`
	Date       time.Time `json:"date" yaml:"date"`
}

// Validate checks the rating range and required fields
func (f *Feedback) Validate() error {
	if f.Instructor == "" {
		return fmt.Errorf("feedback instructor is required")
	}
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("feedback rating must be between 1 and 5, got %d", f.Rating)
	}
	return nil
}

// Notification is a message shown in the notifications widget
type Notification struct {
	ID        string           `json:"id" yaml:"id"`
	Title     string           `json:"title" yaml:"title"`
	Message   string           `json:"message" yaml:"message"`
	Kind      NotificationKind `json:"kind" yaml:"kind"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	Read      bool             `json:"read" yaml:"-"`
}

// Validate checks the title and kind
func (n *Notification) Validate() error {
	if n.Title == "" {
		return fmt.Errorf("notification title is required")
	}
	if n.Kind == "" {
		n.Kind = NotificationInfo
	}
	if !n.Kind.Valid() {
		return fmt.Errorf("unknown notification kind: %s", n.Kind)
	}
	return nil
}

// Payment is a single charge on the student's account
type Payment struct {
	ID          string        `json:"id" yaml:"id"`
	Description string        `json:"description" yaml:"description"`
	Amount      int64         `json:"amount" yaml:"amount"` // minor units
	Currency    string        `json:"currency" yaml:"currency"`
	DueDate     time.Time     `json:"due_date" yaml:"due_date"`
	Status      PaymentStatus `json:"status" yaml:"status"`
}

// Validate checks the amount and status
func (p *Payment) Validate() error {
	if p.Amount < 0 {
		return fmt.Errorf("payment amount must not be negative")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("unknown payment status: %s", p.Status)
	}
	return nil
}

// PaymentSummary is the payments widget view: totals per status plus the list
type PaymentSummary struct {
	Currency string     `json:"currency"`
	Paid     int64      `json:"paid"`
	Pending  int64      `json:"pending"`
	Overdue  int64      `json:"overdue"`
	Payments []*Payment `json:"payments"`
}

// Outstanding returns everything not yet paid
func (s *PaymentSummary) Outstanding() int64 {
	return s.Pending + s.Overdue
}

// SummarizePayments totals payments by status. The currency of the first
// payment is reported; mixed currencies are not converted.
func SummarizePayments(payments []*Payment) *PaymentSummary {
	summary := &PaymentSummary{Payments: payments}
	if summary.Payments == nil {
		summary.Payments = []*Payment{}
	}

	for _, p := range payments {
		if summary.Currency == "" {
			summary.Currency = p.Currency
		}
		switch p.Status {
		case PaymentPaid:
			summary.Paid += p.Amount
		case PaymentPending:
			summary.Pending += p.Amount
		case PaymentOverdue:
			summary.Overdue += p.Amount
		}
	}
	return summary
}

// Dashboard aggregates all widgets for one student
type Dashboard struct {
	StudentID     string          `json:"student_id"`
	Feedback      []*Feedback     `json:"feedback"`
	Notifications []*Notification `json:"notifications"`
	Unread        int             `json:"unread"`
	Payments      *PaymentSummary `json:"payments"`
}
