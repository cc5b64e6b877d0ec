package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/student-portal/internal/config"
	"github.com/terra-clan/student-portal/internal/gateway"
	"github.com/terra-clan/student-portal/internal/models"
	"github.com/terra-clan/student-portal/internal/monitor"
	"github.com/terra-clan/student-portal/internal/services"
	"github.com/terra-clan/student-portal/internal/widgets"
	"github.com/terra-clan/student-portal/pkg/client"
)

type stubLevels struct {
	levels []models.QuestionLevel
	err    error
}

func (s *stubLevels) QuestionLevels(ctx context.Context) ([]models.QuestionLevel, error) {
	return s.levels, s.err
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	if deps.Repository == nil {
		deps.Repository = widgets.NewLoader()
	}
	return NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 3000}, deps)
}

func do(t *testing.T, s *Server, method, path string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, env := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"healthy"`)
}

func TestReady(t *testing.T) {
	registry := services.NewRegistry()
	registry.Register("questions", services.NewPingChecker("http", func(ctx context.Context) error {
		return fmt.Errorf("connection refused")
	}))
	prober := monitor.NewProber(registry, time.Minute)

	s := newTestServer(t, Dependencies{Prober: prober, Critical: []string{"questions"}})

	rec, env := do(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "not ready before the first probe")
	assert.Equal(t, "not_ready", env.Error.Code)

	prober.Probe(context.Background())
	rec, _ = do(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "critical dependency is down")

	registry.Register("questions", services.NewPingChecker("http", func(ctx context.Context) error {
		return nil
	}))
	prober.Probe(context.Background())

	rec, env = do(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"questions"`)
}

func TestReady_WithoutProber(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, _ := do(t, s, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, env := do(t, s, http.MethodGet, "/dashboard", map[string]string{StudentHeader: "s-42"})
	require.Equal(t, http.StatusOK, rec.Code)

	var dashboard models.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))

	assert.Equal(t, "s-42", dashboard.StudentID)
	assert.Len(t, dashboard.Feedback, 3)
	assert.Len(t, dashboard.Notifications, 3)
	assert.Equal(t, 3, dashboard.Unread)
	require.NotNil(t, dashboard.Payments)
	assert.Equal(t, int64(15000), dashboard.Payments.Paid)
	assert.Equal(t, int64(9000), dashboard.Payments.Pending)
	assert.Equal(t, int64(42000), dashboard.Payments.Overdue)
}

func TestDashboard_InvalidStudent(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, env := do(t, s, http.MethodGet, "/dashboard", map[string]string{StudentHeader: "bad id!"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid_student", env.Error.Code)
}

func TestListFeedback(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, env := do(t, s, http.MethodGet, "/widgets/feedback", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Feedback []*models.Feedback `json:"feedback"`
		Total    int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.Total)
	assert.Equal(t, "fb-3", data.Feedback[0].ID, "newest first")
}

func TestMarkNotificationRead(t *testing.T) {
	s := newTestServer(t, Dependencies{})
	student := map[string]string{StudentHeader: "s-1"}

	rec, _ := do(t, s, http.MethodPost, "/widgets/notifications/nt-2/read", student)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, s, http.MethodGet, "/widgets/notifications", student)
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Notifications []*models.Notification `json:"notifications"`
		Unread        int                    `json:"unread"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Unread)
	for _, n := range data.Notifications {
		assert.Equal(t, n.ID == "nt-2", n.Read, n.ID)
	}

	// Read state is per student
	_, env = do(t, s, http.MethodGet, "/widgets/notifications", map[string]string{StudentHeader: "s-2"})
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.Unread)
}

func TestMarkNotificationRead_NotFound(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, env := do(t, s, http.MethodPost, "/widgets/notifications/nt-404/read", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestPayments(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	rec, env := do(t, s, http.MethodGet, "/widgets/payments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary models.PaymentSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, "EUR", summary.Currency)
	assert.Len(t, summary.Payments, 3)
	assert.Equal(t, "pm-1", summary.Payments[0].ID, "earliest due date first")
}

func TestQuestionLevels(t *testing.T) {
	levels := []models.QuestionLevel{
		models.QuestionLevel(`{"id":1,"name":"Beginner"}`),
		models.QuestionLevel(`{"id":2,"name":"Advanced"}`),
	}
	s := newTestServer(t, Dependencies{QuestionLevels: &stubLevels{levels: levels}})

	rec, env := do(t, s, http.MethodGet, "/widgets/question-levels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"levels":[{"id":1,"name":"Beginner"},{"id":2,"name":"Advanced"}],"total":2}`, string(env.Data))
}

func TestQuestionLevels_Empty(t *testing.T) {
	s := newTestServer(t, Dependencies{QuestionLevels: &stubLevels{}})

	rec, env := do(t, s, http.MethodGet, "/widgets/question-levels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"levels":[],"total":0}`, string(env.Data))
}

func TestQuestionLevels_Errors(t *testing.T) {
	tests := []struct {
		name     string
		source   QuestionLevelSource
		wantCode int
		wantErr  string
	}{
		{
			name:     "upstream status",
			source:   &stubLevels{err: &client.FetchError{StatusCode: http.StatusInternalServerError}},
			wantCode: http.StatusBadGateway,
			wantErr:  "fetch_failed",
		},
		{
			name:     "malformed body",
			source:   &stubLevels{err: &client.DecodeError{Err: fmt.Errorf("unexpected EOF")}},
			wantCode: http.StatusBadGateway,
			wantErr:  "invalid_response",
		},
		{
			name:     "not configured",
			source:   nil,
			wantCode: http.StatusServiceUnavailable,
			wantErr:  "not_configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Dependencies{QuestionLevels: tt.source})

			rec, env := do(t, s, http.MethodGet, "/widgets/question-levels", nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantErr, env.Error.Code)
		})
	}
}

func TestQuestionLevels_ThroughClient(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, client.QuestionLevelsPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"id":"b","label":"Basics"}]`)
	}))
	defer upstream.Close()

	s := newTestServer(t, Dependencies{QuestionLevels: client.NewClient(upstream.URL)})

	rec, env := do(t, s, http.MethodGet, "/widgets/question-levels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"levels":[{"id":"b","label":"Basics"}],"total":1}`, string(env.Data))
}

func TestGatewayMount(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "upstream:%s", r.URL.Path)
	}))
	defer upstream.Close()

	gw, err := gateway.New([]config.Route{
		{Prefix: "/questions-service", Target: upstream.URL},
	})
	require.NoError(t, err)

	s := newTestServer(t, Dependencies{Gateway: gw})

	req := httptest.NewRequest(http.MethodGet, "/questions-service/api/question-levels", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "upstream:/questions-service/api/question-levels", strings.TrimSpace(rec.Body.String()))
}
