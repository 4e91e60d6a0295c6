// Package client is a typed HTTP client for the students API.
//
// Every method maps to one endpoint, unwraps the response envelope and
// returns the payload. A non-2xx answer becomes an *APIError carrying the
// server's message; transport failures are returned unchanged. There are
// no retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-records/internal/types"
)

// RequestIDHeader is sent with every request so server logs can be
// correlated with client calls.
const RequestIDHeader = "X-Request-ID"

const studentsPath = "/Students"

// Client calls the API rooted at a base URL such as
// http://localhost:8082/api.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the underlying client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	if len(e.Errors) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Errors, "; ")
}

// IsNotFound reports whether err is a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ListStudents returns every student; an empty slice when there are none.
func (c *Client) ListStudents(ctx context.Context) ([]types.Student, error) {
	students, err := do[[]types.Student](ctx, c, http.MethodGet, studentsPath, nil)
	if err != nil {
		return nil, err
	}
	if students == nil {
		return []types.Student{}, nil
	}
	return *students, nil
}

// GetStudent returns the student with id, or nil when the envelope has
// no data.
func (c *Client) GetStudent(ctx context.Context, id int64) (*types.Student, error) {
	return do[types.Student](ctx, c, http.MethodGet, studentPath(id), nil)
}

// CreateStudent stores dto and returns the created student.
func (c *Client) CreateStudent(ctx context.Context, dto types.CreateStudentDto) (types.Student, error) {
	created, err := do[types.Student](ctx, c, http.MethodPost, studentsPath, dto)
	if err != nil {
		return types.Student{}, err
	}
	if created == nil {
		return types.Student{}, errors.New("client.CreateStudent: response has no data")
	}
	return *created, nil
}

// UpdateStudent replaces student id with dto. dto.StudentID is set to id.
func (c *Client) UpdateStudent(ctx context.Context, id int64, dto types.UpdateStudentDto) (*types.Student, error) {
	dto.StudentID = id
	return do[types.Student](ctx, c, http.MethodPut, studentPath(id), dto)
}

// DeleteStudent removes student id.
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	_, err := do[types.DeletedStudent](ctx, c, http.MethodDelete, studentPath(id), nil)
	return err
}

func studentPath(id int64) string {
	return fmt.Sprintf("%s/%d", studentsPath, id)
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env types.APIResponse[T]
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.Errors = env.Errors
		}
		return nil, apiErr
	}
	if decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		return nil, fmt.Errorf("client: decode response: %w", decodeErr)
	}

	return env.Data, nil
}
