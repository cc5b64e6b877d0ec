package widgets

import (
	"time"

	"github.com/terra-clan/student-portal/internal/models"
)

// Built-in data shown when no widgets directory is configured

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func sampleFeedback() []*models.Feedback {
	return []*models.Feedback{
		{
			ID:         "fb-3",
			Instructor: "Marta Kowalska",
			Lesson:     "Highway merging",
			Rating:     5,
			Comment:    "Confident lane changes and good mirror checks.",
			Date:       day(2024, time.March, 14),
		},
		{
			ID:         "fb-2",
			Instructor: "Jonas Weber",
			Lesson:     "Parallel parking",
			Rating:     3,
			Comment:    "Start turning a little later; practise the reference points.",
			Date:       day(2024, time.March, 7),
		},
		{
			ID:         "fb-1",
			Instructor: "Marta Kowalska",
			Lesson:     "Roundabouts",
			Rating:     4,
			Comment:    "Good speed control, signal earlier when exiting.",
			Date:       day(2024, time.February, 28),
		},
	}
}

func sampleNotifications() []*models.Notification {
	return []*models.Notification{
		{
			ID:        "nt-3",
			Title:     "Theory exam booked",
			Message:   "Your theory exam is scheduled for 2 April at 09:00.",
			Kind:      models.NotificationReminder,
			CreatedAt: day(2024, time.March, 15),
		},
		{
			ID:        "nt-2",
			Title:     "Payment overdue",
			Message:   "The invoice for lesson package B is past its due date.",
			Kind:      models.NotificationWarning,
			CreatedAt: day(2024, time.March, 10),
		},
		{
			ID:        "nt-1",
			Title:     "New question levels",
			Message:   "Advanced road-sign questions are now available for practice.",
			Kind:      models.NotificationInfo,
			CreatedAt: day(2024, time.March, 1),
		},
	}
}

func samplePayments() []*models.Payment {
	return []*models.Payment{
		{
			ID:          "pm-1",
			Description: "Registration fee",
			Amount:      15000,
			Currency:    "EUR",
			DueDate:     day(2024, time.January, 15),
			Status:      models.PaymentPaid,
		},
		{
			ID:          "pm-2",
			Description: "Lesson package B",
			Amount:      42000,
			Currency:    "EUR",
			DueDate:     day(2024, time.March, 1),
			Status:      models.PaymentOverdue,
		},
		{
			ID:          "pm-3",
			Description: "Exam fee",
			Amount:      9000,
			Currency:    "EUR",
			DueDate:     day(2024, time.April, 1),
			Status:      models.PaymentPending,
		},
	}
}
