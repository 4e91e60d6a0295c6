package student

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
	"github.com/aanand-mishra/student-records/internal/types"
)

func TestEndToEndAgainstSQLite(t *testing.T) {
	repo, err := sqlite.New(config.Storage{DSN: filepath.Join(t.TempDir(), "students.db")})
	require.NoError(t, err)
	defer repo.Close()

	h := newRouter(repo)

	rr := do(t, h, http.MethodPost, "/api/Students",
		`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/api/Students/1", rr.Header().Get("Location"))
	created := decodeEnvelope[types.Student](t, rr)
	require.NotNil(t, created.Data)
	assert.Equal(t, int64(1), created.Data.StudentID)

	rr = do(t, h, http.MethodGet, "/api/Students/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decodeEnvelope[types.Student](t, rr)
	assert.Equal(t, "Ada", got.Data.FirstName)
	assert.Equal(t, "Lovelace", got.Data.LastName)
	assert.Equal(t, "ada@example.com", got.Data.Email)

	rr = do(t, h, http.MethodPut, "/api/Students/1",
		`{"studentId":1,"firstName":"Augusta","lastName":"Lovelace","email":"ada@example.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	updated := decodeEnvelope[types.Student](t, rr)
	assert.Equal(t, "Augusta", updated.Data.FirstName)

	rr = do(t, h, http.MethodDelete, "/api/Students/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	deleted := decodeEnvelope[types.DeletedStudent](t, rr)
	assert.Equal(t, int64(1), deleted.Data.DeletedID)

	rr = do(t, h, http.MethodGet, "/api/Students/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodDelete, "/api/Students/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/Students", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decodeEnvelope[[]types.Student](t, rr)
	require.NotNil(t, list.Data)
	assert.Empty(t, *list.Data)
}
