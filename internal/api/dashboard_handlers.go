package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/student-portal/internal/models"
	"github.com/terra-clan/student-portal/pkg/client"
)

// Dashboard widget handlers

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	studentID := StudentFromContext(r.Context())

	dashboard, err := s.buildDashboard(r.Context(), studentID)
	if err != nil {
		slog.Error("failed to build dashboard", "error", err, "student", studentID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	studentID := StudentFromContext(r.Context())

	feedback, err := s.repo.ListFeedback(r.Context(), studentID)
	if err != nil {
		slog.Error("failed to list feedback", "error", err, "student", studentID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list feedback")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"feedback": feedback,
		"total":    len(feedback),
	})
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	studentID := StudentFromContext(r.Context())

	notifications, unread, err := s.notifications(r.Context(), studentID)
	if err != nil {
		slog.Error("failed to list notifications", "error", err, "student", studentID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"unread":        unread,
	})
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	studentID := StudentFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "notification id is required")
		return
	}

	if err := s.markRead(r.Context(), studentID, id); err != nil {
		if errors.Is(err, errNotificationNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "notification not found")
			return
		}
		slog.Error("failed to mark notification read", "error", err, "student", studentID, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to mark notification read")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "notification marked read",
	})
}

func (s *Server) handlePayments(w http.ResponseWriter, r *http.Request) {
	studentID := StudentFromContext(r.Context())

	payments, err := s.repo.ListPayments(r.Context(), studentID)
	if err != nil {
		slog.Error("failed to list payments", "error", err, "student", studentID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list payments")
		return
	}

	respondJSON(w, http.StatusOK, models.SummarizePayments(payments))
}

// handleQuestionLevels passes the question levels from the questions service
// through to the UI
func (s *Server) handleQuestionLevels(w http.ResponseWriter, r *http.Request) {
	if s.levels == nil {
		respondError(w, http.StatusServiceUnavailable, "not_configured", "question levels source not configured")
		return
	}

	levels, err := s.levels.QuestionLevels(r.Context())
	if err != nil {
		var decodeErr *client.DecodeError
		switch {
		case errors.Is(err, client.ErrFetchFailed):
			slog.Warn("question levels fetch failed", "error", err)
			respondError(w, http.StatusBadGateway, "fetch_failed", "failed to fetch question levels")
		case errors.As(err, &decodeErr):
			slog.Warn("question levels response malformed", "error", err)
			respondError(w, http.StatusBadGateway, "invalid_response", "questions service returned malformed data")
		default:
			slog.Error("question levels error", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to load question levels")
		}
		return
	}

	if levels == nil {
		levels = []models.QuestionLevel{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"levels": levels,
		"total":  len(levels),
	})
}

// Helpers shared by the handlers and the notification stream

var errNotificationNotFound = errors.New("notification not found")

// notifications returns the student's notifications with read flags applied
func (s *Server) notifications(ctx context.Context, studentID string) ([]*models.Notification, int, error) {
	notifications, err := s.repo.ListNotifications(ctx, studentID)
	if err != nil {
		return nil, 0, err
	}

	read, err := s.readTracker.ReadSet(ctx, studentID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load read state: %w", err)
	}

	unread := 0
	for _, n := range notifications {
		n.Read = read[n.ID]
		if !n.Read {
			unread++
		}
	}

	return notifications, unread, nil
}

// markRead records a read only for notifications the student can see
func (s *Server) markRead(ctx context.Context, studentID, id string) error {
	notifications, err := s.repo.ListNotifications(ctx, studentID)
	if err != nil {
		return err
	}

	for _, n := range notifications {
		if n.ID == id {
			return s.readTracker.MarkRead(ctx, studentID, id)
		}
	}
	return errNotificationNotFound
}

func (s *Server) buildDashboard(ctx context.Context, studentID string) (*models.Dashboard, error) {
	feedback, err := s.repo.ListFeedback(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("feedback: %w", err)
	}

	notifications, unread, err := s.notifications(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}

	payments, err := s.repo.ListPayments(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}

	return &models.Dashboard{
		StudentID:     studentID,
		Feedback:      feedback,
		Notifications: notifications,
		Unread:        unread,
		Payments:      models.SummarizePayments(payments),
	}, nil
}
