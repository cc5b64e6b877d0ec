package api

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
)

// StudentHeader carries the id of the student whose dashboard is requested
const StudentHeader = "X-Student-ID"

// DefaultStudentID is used when a request does not name a student
const DefaultStudentID = "demo"

var studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type contextKey string

const studentContextKey contextKey = "student_id"

// StudentFromContext extracts the student id from context
func StudentFromContext(ctx context.Context) string {
	id, ok := ctx.Value(studentContextKey).(string)
	if !ok || id == "" {
		return DefaultStudentID
	}
	return id
}

// ContextWithStudent adds the student id to context
func ContextWithStudent(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, studentContextKey, id)
}

// StudentMiddleware resolves the student from the X-Student-ID header.
// Browsers cannot set headers on WebSocket upgrades, so the student_id
// query parameter is accepted as a fallback.
func StudentMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(StudentHeader)
		if id == "" {
			id = r.URL.Query().Get("student_id")
		}
		if id == "" {
			id = DefaultStudentID
		}

		if !studentIDPattern.MatchString(id) {
			slog.Warn("invalid student id", "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusBadRequest, "invalid_student", "student id must be 1-64 letters, digits, '-' or '_'")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithStudent(r.Context(), id)))
	})
}
