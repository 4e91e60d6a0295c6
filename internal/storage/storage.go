// Package storage defines the Repository interface, the contract any
// database backend must satisfy to serve the student endpoints.
//
// Handlers depend only on this interface, so the sqlite and postgres
// backends are interchangeable and tests can pass a fake.
//
// Every backend is a typed adapter over five named stored procedures.
// There is no business logic at this layer: a call binds its parameters,
// runs exactly one procedure on a connection acquired for that call, and
// releases the connection before returning.
package storage

import (
	"context"

	"github.com/aanand-mishra/student-records/internal/types"
)

// Procedure names. Each backend maps them to its own procedure text.
const (
	ProcGetAllStudents = "sp_GetAllStudents"
	ProcGetStudentByID = "sp_GetStudentById"
	ProcCreateStudent  = "sp_CreateStudent"
	ProcUpdateStudent  = "sp_UpdateStudent"
	ProcDeleteStudent  = "sp_DeleteStudent"
)

// Procedures lists every procedure a backend must provide.
var Procedures = []string{
	ProcGetAllStudents,
	ProcGetStudentByID,
	ProcCreateStudent,
	ProcUpdateStudent,
	ProcDeleteStudent,
}

// Repository is the persistence contract.
//
// "Absent" is reported with a nil *types.Student or false, never with an
// error: an error always means storage itself failed.
type Repository interface {
	// ListStudents returns every student, most recently created first.
	// Returns an empty slice (not nil) if there are none.
	ListStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID returns nil when no row matches id.
	GetStudentByID(ctx context.Context, id int64) (*types.Student, error)

	// CreateStudent inserts a record and returns it with its generated
	// identifier and timestamps.
	CreateStudent(ctx context.Context, dto types.CreateStudentDto) (types.Student, error)

	// UpdateStudent returns the stored record after the update, or nil
	// when dto.StudentID does not exist.
	UpdateStudent(ctx context.Context, dto types.UpdateStudentDto) (*types.Student, error)

	// DeleteStudent reports whether a row was removed.
	DeleteStudent(ctx context.Context, id int64) (bool, error)

	Close() error
}
