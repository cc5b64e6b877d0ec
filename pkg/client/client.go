package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/student-portal/internal/models"
)

// QuestionLevelsPath is the gateway path of the questions service level list
const QuestionLevelsPath = "/questions-service/api/question-levels"

// StudentHeader identifies the student on portal widget requests
const StudentHeader = "X-Student-ID"

// Client is a Go SDK for the student portal and the questions service behind it
type Client struct {
	baseURL    string
	studentID  string
	httpClient *http.Client
	timeout    time.Duration
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout. There is none by default. It is
// applied to a copy of the HTTP client, so a shared client is not modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithStudentID sets the student sent with widget requests
func WithStudentID(id string) Option {
	return func(c *Client) {
		c.studentID = id
	}
}

// NewClient creates a new client for the given base URL
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}

	return c
}

// BaseURL returns the configured base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// QuestionLevels fetches the question levels from the questions service.
// Any non-2xx response fails with ErrFetchFailed; a body that is not a JSON
// array fails with *DecodeError. Each call is a single independent request.
func (c *Client) QuestionLevels(ctx context.Context) ([]models.QuestionLevel, error) {
	body, err := c.fetch(ctx, QuestionLevelsPath)
	if err != nil {
		return nil, err
	}

	var levels []models.QuestionLevel
	if err := json.Unmarshal(body, &levels); err != nil {
		return nil, &DecodeError{Err: err}
	}

	return levels, nil
}

// QuestionLevelsRaw fetches the question levels without assuming their shape.
// The body is only checked to be valid JSON.
func (c *Client) QuestionLevelsRaw(ctx context.Context) (json.RawMessage, error) {
	body, err := c.fetch(ctx, QuestionLevelsPath)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, &DecodeError{Err: fmt.Errorf("invalid JSON body")}
	}

	return json.RawMessage(body), nil
}

// fetch issues a bare GET and returns the body of a 2xx response
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: err}
	}

	return body, nil
}

// --- Portal widget endpoints ---

// envelope mirrors the portal's {success,data,error} response body
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// Dashboard retrieves all widgets for the configured student
func (c *Client) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	if err := c.call(ctx, http.MethodGet, "/dashboard", &dashboard); err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Feedback retrieves the feedback widget
func (c *Client) Feedback(ctx context.Context) ([]*models.Feedback, error) {
	var result struct {
		Feedback []*models.Feedback `json:"feedback"`
		Total    int                `json:"total"`
	}
	if err := c.call(ctx, http.MethodGet, "/widgets/feedback", &result); err != nil {
		return nil, err
	}
	return result.Feedback, nil
}

// Notifications retrieves the notifications widget
func (c *Client) Notifications(ctx context.Context) ([]*models.Notification, error) {
	var result struct {
		Notifications []*models.Notification `json:"notifications"`
		Unread        int                    `json:"unread"`
	}
	if err := c.call(ctx, http.MethodGet, "/widgets/notifications", &result); err != nil {
		return nil, err
	}
	return result.Notifications, nil
}

// MarkNotificationRead marks a notification read for the configured student
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	path := fmt.Sprintf("/widgets/notifications/%s/read", url.PathEscape(id))
	return c.call(ctx, http.MethodPost, path, nil)
}

// Payments retrieves the payment status widget
func (c *Client) Payments(ctx context.Context) (*models.PaymentSummary, error) {
	var summary models.PaymentSummary
	if err := c.call(ctx, http.MethodGet, "/widgets/payments", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Health checks if the portal is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil)
}

// call performs a portal request and decodes the envelope data into out
func (c *Client) call(ctx context.Context, method, path string, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path)
	if err != nil {
		return err
	}

	var result envelope
	if err := json.Unmarshal(resp, &result); err != nil {
		return &DecodeError{Err: err}
	}

	if !result.Success {
		if result.Error != nil {
			return result.Error
		}
		return &APIError{Code: "unknown", Message: "request was not successful"}
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(result.Data, out); err != nil {
		return &DecodeError{Err: err}
	}

	return nil
}

// doRequest performs an HTTP request against the portal. Error statuses that
// carry a portal error envelope are returned as body bytes so the caller can
// decode the API error; any other non-2xx response is a FetchError.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.studentID != "" {
		req.Header.Set(StudentHeader, c.studentID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var result envelope
		if err := json.Unmarshal(respBody, &result); err != nil || result.Error == nil {
			return nil, &FetchError{StatusCode: resp.StatusCode}
		}
	}

	return respBody, nil
}
