package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

func setupTestDB(t *testing.T) *SQLite {
	t.Helper()

	repo, err := New(config.Storage{DSN: filepath.Join(t.TempDir(), "students.db")})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func ada() types.CreateStudentDto {
	dob := types.NewDate(1815, time.December, 10)
	return types.CreateStudentDto{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Phone:       types.StringPtr("555-0100"),
		DateOfBirth: &dob,
		City:        types.StringPtr("London"),
	}
}

func TestEveryProcedureIsDefined(t *testing.T) {
	for _, name := range storage.Procedures {
		assert.NotEmpty(t, procedures[name], name)
	}
}

func TestCreateThenGetByID(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateStudent(ctx, ada())
	require.NoError(t, err)

	assert.Equal(t, int64(1), created.StudentID)
	assert.True(t, created.IsActive)
	assert.False(t, created.CreatedDate.IsZero())
	assert.False(t, created.ModifiedDate.IsZero())
	assert.False(t, created.EnrollmentDate.IsZero())

	got, err := repo.GetStudentByID(ctx, created.StudentID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, "555-0100", types.StringValue(got.Phone))
	assert.Equal(t, "London", types.StringValue(got.City))
	assert.Nil(t, got.Address)
	require.NotNil(t, got.DateOfBirth)
	assert.Equal(t, "1815-12-10", got.DateOfBirth.String())
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	repo := setupTestDB(t)

	got, err := repo.GetStudentByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateDuplicateEmailFails(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateStudent(ctx, ada())
	require.NoError(t, err)

	_, err = repo.CreateStudent(ctx, ada())
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateStudent(ctx, ada())
	require.NoError(t, err)

	dto := ada()
	dto.FirstName = "Augusta"
	dto.Phone = nil

	updated, err := repo.UpdateStudent(ctx, dto.ForUpdate(created.StudentID))
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, created.StudentID, updated.StudentID)
	assert.Equal(t, "Augusta", updated.FirstName)
	assert.Nil(t, updated.Phone)
	assert.Equal(t, created.CreatedDate, updated.CreatedDate)
}

func TestUpdateMissingLeavesCollectionUnchanged(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	_, err := repo.CreateStudent(ctx, ada())
	require.NoError(t, err)
	before, err := repo.ListStudents(ctx)
	require.NoError(t, err)

	updated, err := repo.UpdateStudent(ctx, ada().ForUpdate(99))
	require.NoError(t, err)
	assert.Nil(t, updated)

	after, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDeleteIsIdempotentInEffect(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	created, err := repo.CreateStudent(ctx, ada())
	require.NoError(t, err)

	deleted, err := repo.DeleteStudent(ctx, created.StudentID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteStudent(ctx, created.StudentID)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := repo.GetStudentByID(ctx, created.StudentID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListAfterCreatesAndDeletes(t *testing.T) {
	tests := []struct {
		name    string
		creates int
		deletes int
	}{
		{"empty", 0, 0},
		{"only creates", 3, 0},
		{"creates and deletes", 5, 2},
		{"delete everything", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := setupTestDB(t)
			ctx := context.Background()

			var ids []int64
			for i := 0; i < tt.creates; i++ {
				dto := ada()
				dto.Email = fmt.Sprintf("student%d@example.com", i)
				created, err := repo.CreateStudent(ctx, dto)
				require.NoError(t, err)
				ids = append(ids, created.StudentID)
			}
			for _, id := range ids[:tt.deletes] {
				ok, err := repo.DeleteStudent(ctx, id)
				require.NoError(t, err)
				require.True(t, ok)
			}

			students, err := repo.ListStudents(ctx)
			require.NoError(t, err)
			assert.NotNil(t, students)
			assert.Len(t, students, tt.creates-tt.deletes)
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		dto := ada()
		dto.Email = email
		_, err := repo.CreateStudent(ctx, dto)
		require.NoError(t, err)
	}

	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "c@example.com", students[0].Email)
	assert.Equal(t, "a@example.com", students[2].Email)
}

func TestConcurrentCallsShareThePool(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dto := ada()
			dto.Email = fmt.Sprintf("parallel%d@example.com", i)
			if _, err := repo.CreateStudent(ctx, dto); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	students, err := repo.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 10)
}

func TestNewCreatesMissingDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "storage", "nested", "storage.db")

	repo, err := New(config.Storage{DSN: dsn})
	require.NoError(t, err)
	defer repo.Close()

	_, err = os.Stat(dsn)
	assert.NoError(t, err)

	students, err := repo.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestEnsureDirLeavesSpecialDSNsAlone(t *testing.T) {
	for _, dsn := range []string{"", ":memory:", "file:students?mode=memory&cache=shared"} {
		assert.NoError(t, ensureDir(dsn), dsn)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")

	first, err := New(config.Storage{DSN: path})
	require.NoError(t, err)
	_, err = first.CreateStudent(context.Background(), ada())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(config.Storage{DSN: path})
	require.NoError(t, err)
	defer second.Close()

	students, err := second.ListStudents(context.Background())
	require.NoError(t, err)
	assert.Len(t, students, 1)
}
