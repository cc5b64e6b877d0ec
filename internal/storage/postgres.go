package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/student-portal/internal/models"
)

// Pool is the part of *pgxpool.Pool the repository uses
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresRepositoryFromPool(pool), nil
}

// NewPostgresRepositoryFromPool wraps an existing pool
func NewPostgresRepositoryFromPool(pool Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// ListFeedback returns the student's lesson feedback, newest first
func (r *PostgresRepository) ListFeedback(ctx context.Context, studentID string) ([]*models.Feedback, error) {
	query := `
		SELECT id::text, instructor, COALESCE(lesson, ''), rating, COALESCE(comment, ''), lesson_date
		FROM feedback
		WHERE student_id = $1
		ORDER BY lesson_date DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	feedback := make([]*models.Feedback, 0)

	for rows.Next() {
		var f models.Feedback

		if err := rows.Scan(&f.ID, &f.Instructor, &f.Lesson, &f.Rating, &f.Comment, &f.Date); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		feedback = append(feedback, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return feedback, nil
}

// ListNotifications returns the student's notifications, newest first.
// Broadcast notifications have a NULL student_id and are included.
func (r *PostgresRepository) ListNotifications(ctx context.Context, studentID string) ([]*models.Notification, error) {
	query := `
		SELECT id::text, title, COALESCE(message, ''), kind, created_at
		FROM notifications
		WHERE student_id = $1 OR student_id IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*models.Notification, 0)

	for rows.Next() {
		var n models.Notification
		var kind string

		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &kind, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}

		n.Kind = models.NotificationKind(kind)
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// ListPayments returns the student's payments, earliest due date first
func (r *PostgresRepository) ListPayments(ctx context.Context, studentID string) ([]*models.Payment, error) {
	query := `
		SELECT id::text, description, amount, currency, due_date, status
		FROM payments
		WHERE student_id = $1
		ORDER BY due_date ASC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)

	for rows.Next() {
		var p models.Payment
		var status string

		if err := rows.Scan(&p.ID, &p.Description, &p.Amount, &p.Currency, &p.DueDate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}

		p.Status = models.PaymentStatus(status)
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return payments, nil
}
