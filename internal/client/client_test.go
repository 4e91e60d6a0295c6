package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/client"
	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/types"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func newAPI(t *testing.T) *client.Client {
	t.Helper()
	repo, err := sqlite.New(config.Storage{DSN: filepath.Join(t.TempDir(), "students.db")})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	mux := http.NewServeMux()
	student.Register(mux, repo)
	srv := httptest.NewServer(middleware.Wrap(mux, []string{"http://localhost:3000"}))
	t.Cleanup(srv.Close)

	return client.New(srv.URL + "/api")
}

func TestClientAgainstServer(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)

	list, err := c.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	created, err := c.CreateStudent(ctx, types.CreateStudentDto{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		City:      types.StringPtr("London"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.StudentID)
	assert.Equal(t, "London", types.StringValue(created.City))

	got, err := c.GetStudent(ctx, created.StudentID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ada@example.com", got.Email)

	dto := types.CreateStudentDto{FirstName: "Augusta", LastName: "Lovelace", Email: "ada@example.com"}
	updated, err := c.UpdateStudent(ctx, created.StudentID, dto.ForUpdate(0))
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Augusta", updated.FirstName)

	require.NoError(t, c.DeleteStudent(ctx, created.StudentID))

	_, err = c.GetStudent(ctx, created.StudentID)
	assert.True(t, client.IsNotFound(err))

	var apiErr *client.APIError
	require.ErrorAs(t, c.DeleteStudent(ctx, created.StudentID), &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "Student with ID 1 not found", apiErr.Message)
}

func TestClientValidationError(t *testing.T) {
	c := newAPI(t)

	_, err := c.CreateStudent(context.Background(), types.CreateStudentDto{FirstName: "Ada"})

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid student data", apiErr.Message)
	assert.Equal(t, []string{"field lastName is required", "field email is required"}, apiErr.Errors)
	assert.Equal(t, "Invalid student data: field lastName is required; field email is required", apiErr.Error())
}

func TestClientSendsRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get(client.RequestIDHeader)
		w.Write([]byte(`{"success":true,"message":"ok","data":[]}`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).ListStudents(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestClientEnvelopeEdges(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		call    func(c *client.Client) error
		wantErr string
	}{
		{
			name:   "list without data is empty",
			status: http.StatusOK,
			body:   `{"success":true,"message":"ok"}`,
			call: func(c *client.Client) error {
				list, err := c.ListStudents(context.Background())
				if err == nil && list == nil {
					return errors.New("nil list")
				}
				return err
			},
		},
		{
			name:   "get without data is nil",
			status: http.StatusOK,
			body:   `{"success":true,"message":"ok"}`,
			call: func(c *client.Client) error {
				s, err := c.GetStudent(context.Background(), 1)
				if err == nil && s != nil {
					return errors.New("expected nil student")
				}
				return err
			},
		},
		{
			name:    "non-json failure body",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			call:    func(c *client.Client) error { return c.DeleteStudent(context.Background(), 1) },
			wantErr: "request failed with status 502",
		},
		{
			name:    "create without data",
			status:  http.StatusCreated,
			body:    `{"success":true,"message":"ok"}`,
			call:    func(c *client.Client) error { _, err := c.CreateStudent(context.Background(), types.CreateStudentDto{}); return err },
			wantErr: "client.CreateStudent: response has no data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := tt.call(client.New(srv.URL))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}

func TestClientTransportErrorIsReturnedUnchanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := client.New(url, client.WithTimeout(time.Second)).ListStudents(context.Background())

	require.Error(t, err)
	var apiErr *client.APIError
	assert.False(t, errors.As(err, &apiErr))
}
