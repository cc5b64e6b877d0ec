package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/student-portal/internal/models"
)

func newMockRepository(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresRepositoryFromPool(mock), mock
}

func TestPostgresRepository_ListFeedback(t *testing.T) {
	repo, mock := newMockRepository(t)
	date := time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC)

	rows := mock.NewRows([]string{"id", "instructor", "lesson", "rating", "comment", "lesson_date"}).
		AddRow("fb-1", "Ana Silva", "Night driving", 4, "Good use of high beams.", date).
		AddRow("fb-2", "Jonas Weber", "", 2, "", date.AddDate(0, 0, -7))
	mock.ExpectQuery("FROM feedback").WithArgs("s-1").WillReturnRows(rows)

	feedback, err := repo.ListFeedback(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, feedback, 2)

	assert.Equal(t, &models.Feedback{
		ID:         "fb-1",
		Instructor: "Ana Silva",
		Lesson:     "Night driving",
		Rating:     4,
		Comment:    "Good use of high beams.",
		Date:       date,
	}, feedback[0])
	assert.Empty(t, feedback[1].Lesson)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListNotifications(t *testing.T) {
	repo, mock := newMockRepository(t)
	created := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)

	rows := mock.NewRows([]string{"id", "title", "message", "kind", "created_at"}).
		AddRow("nt-1", "Exam booked", "2 April at 09:00", "reminder", created)
	mock.ExpectQuery("FROM notifications").WithArgs("s-1").WillReturnRows(rows)

	notifications, err := repo.ListNotifications(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationReminder, notifications[0].Kind)
	assert.Equal(t, "2 April at 09:00", notifications[0].Message)
	assert.False(t, notifications[0].Read)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_ListPayments(t *testing.T) {
	repo, mock := newMockRepository(t)
	due := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)

	rows := mock.NewRows([]string{"id", "description", "amount", "currency", "due_date", "status"}).
		AddRow("pm-1", "Exam fee", int64(9000), "EUR", due, "pending")
	mock.ExpectQuery("FROM payments").WithArgs("s-1").WillReturnRows(rows)

	payments, err := repo.ListPayments(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(9000), payments[0].Amount)
	assert.Equal(t, models.PaymentPending, payments[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("FROM payments").WithArgs("s-1").
		WillReturnRows(mock.NewRows([]string{"id", "description", "amount", "currency", "due_date", "status"}))

	payments, err := repo.ListPayments(context.Background(), "s-1")
	require.NoError(t, err)
	assert.NotNil(t, payments)
	assert.Empty(t, payments)
}

func TestPostgresRepository_QueryError(t *testing.T) {
	repo, mock := newMockRepository(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery("FROM feedback").WithArgs("s-1").WillReturnError(boom)

	_, err := repo.ListFeedback(context.Background(), "s-1")
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to list feedback")
}
