package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/types"
)

func TestWriteMapsKindToStatus(t *testing.T) {
	tests := []struct {
		name       string
		result     Result[types.DeletedStudent]
		wantStatus int
		wantOK     bool
	}{
		{"ok", OK(types.DeletedStudent{DeletedID: 1}, "Student deleted successfully"), http.StatusOK, true},
		{"created", Created(types.DeletedStudent{}, "created", "/api/Students/1"), http.StatusCreated, true},
		{"validation", Validation[types.DeletedStudent]("Invalid student data", "field email is required"), http.StatusBadRequest, false},
		{"not found", NotFound[types.DeletedStudent]("Student with ID 1 not found"), http.StatusNotFound, false},
		{"internal", Internal[types.DeletedStudent]("An error occurred", errors.New("disk full")), http.StatusInternalServerError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			require.NoError(t, Write(rr, tt.result))

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var env types.APIResponse[types.DeletedStudent]
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
			assert.Equal(t, tt.wantOK, env.Success)
			assert.Equal(t, tt.result.Message(), env.Message)
			if tt.wantOK {
				assert.NotNil(t, env.Data)
				assert.Empty(t, env.Errors)
			} else {
				assert.Nil(t, env.Data)
			}
		})
	}
}

func TestWriteSetsLocationForCreated(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, Write(rr, Created(1, "Student created successfully", "/api/Students/1")))
	assert.Equal(t, "/api/Students/1", rr.Header().Get("Location"))
}

func TestFailureEnvelopeOmitsData(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, Write(rr, Internal[[]types.Student]("An error occurred while retrieving students", errors.New("db down"))))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "data")
	assert.Equal(t, []any{"db down"}, raw["errors"])
}

func TestEmptyListIsAnArrayNotNull(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, Write(rr, OK([]types.Student{}, "Students retrieved successfully")))
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestValidationMessages(t *testing.T) {
	v := validator.New()
	err := v.Struct(struct {
		Name  string `validate:"required"`
		Email string `validate:"email"`
		Zip   string `validate:"max=3"`
		Age   int    `validate:"gte=18"`
	}{Email: "nope", Zip: "12345", Age: 3})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	assert.Equal(t, []string{
		"field Name is required",
		"field Email must be a valid email address",
		"field Zip must be at most 3 characters",
		"field Age is invalid",
	}, ValidationMessages(verrs))
}
