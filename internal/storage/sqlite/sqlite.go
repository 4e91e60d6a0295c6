// Package sqlite provides a SQLite-backed implementation of the
// storage.Repository interface using Go's database/sql package.
//
// SQLite has no server-side stored procedures, so the five procedures are
// kept here as a table of named statements. They are invoked exactly like
// procedures elsewhere: by name, with every value bound as a named
// parameter (@FirstName, @StudentId, ...) and never concatenated into SQL.
//
// The schema is applied on startup by golang-migrate from the embedded
// migrations directory.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-multierror"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const studentColumns = `student_id, first_name, last_name, email, phone, date_of_birth,
	address, city, state, zip_code, enrollment_date, is_active, created_date, modified_date`

// procedures maps each procedure name to its statement. Create and update
// are two-step procedures: the write, then a read-back of the stored row
// through sp_GetStudentById, both on the same connection and transaction.
var procedures = map[string]string{
	storage.ProcGetAllStudents: `SELECT ` + studentColumns + `
		FROM students
		ORDER BY created_date DESC, student_id DESC`,

	storage.ProcGetStudentByID: `SELECT ` + studentColumns + `
		FROM students
		WHERE student_id = @StudentId`,

	storage.ProcCreateStudent: `INSERT INTO students
		(first_name, last_name, email, phone, date_of_birth, address, city, state, zip_code)
		VALUES (@FirstName, @LastName, @Email, @Phone, @DateOfBirth, @Address, @City, @State, @ZipCode)`,

	storage.ProcUpdateStudent: `UPDATE students SET
		first_name = @FirstName,
		last_name = @LastName,
		email = @Email,
		phone = @Phone,
		date_of_birth = @DateOfBirth,
		address = @Address,
		city = @City,
		state = @State,
		zip_code = @ZipCode,
		modified_date = CURRENT_TIMESTAMP
		WHERE student_id = @StudentId`,

	storage.ProcDeleteStudent: `DELETE FROM students WHERE student_id = @StudentId`,
}

// SQLite is the concrete implementation of storage.Repository.
// It holds a *sql.DB which is a connection pool managed by database/sql;
// every method checks one connection out of it for the duration of the
// call.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Repository = (*SQLite)(nil)

// New opens the SQLite database at cfg.DSN, applies pending migrations
// and returns a ready-to-use *SQLite.
func New(cfg config.Storage) (*SQLite, error) {
	if err := ensureDir(cfg.DSN); err != nil {
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite serialises writers anyway; a single connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// ensureDir creates the parent directory of a plain file DSN.
// In-memory and file: URI DSNs are left alone.
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %s: %w", dir, err)
	}
	return nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migrations driver: %w", err)
	}

	// m.Close would close db through the driver, so it is deliberately
	// not called here.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations up: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *SQLite) Close() error {
	var result *multierror.Error
	if _, err := s.Db.Exec("PRAGMA optimize"); err != nil {
		result = multierror.Append(result, fmt.Errorf("optimize: %w", err))
	}
	if err := s.Db.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close: %w", err))
	}
	return result.ErrorOrNil()
}

// ListStudents runs sp_GetAllStudents.
func (s *SQLite) ListStudents(ctx context.Context) ([]types.Student, error) {
	conn, err := s.Db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: acquire conn: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, procedures[storage.ProcGetAllStudents])
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: rows iteration: %w", err)
	}

	return students, nil
}

// GetStudentByID runs sp_GetStudentById.
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (*types.Student, error) {
	conn, err := s.Db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudentByID: acquire conn: %w", err)
	}
	defer conn.Close()

	student, err := getByID(ctx, conn, id)
	if err != nil {
		return nil, fmt.Errorf("GetStudentByID: %w", err)
	}
	return student, nil
}

// CreateStudent runs sp_CreateStudent and reads the new row back.
func (s *SQLite) CreateStudent(ctx context.Context, dto types.CreateStudentDto) (types.Student, error) {
	var created *types.Student

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, procedures[storage.ProcCreateStudent], studentArgs(dto)...)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		created, err = getByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if created == nil {
			return fmt.Errorf("student %d vanished after insert", id)
		}
		return nil
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	return *created, nil
}

// UpdateStudent runs sp_UpdateStudent. It returns nil when no row has
// dto.StudentID.
func (s *SQLite) UpdateStudent(ctx context.Context, dto types.UpdateStudentDto) (*types.Student, error) {
	var updated *types.Student

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		args := append(studentArgs(dto.CreateStudentDto), sql.Named("StudentId", dto.StudentID))

		result, err := tx.ExecContext(ctx, procedures[storage.ProcUpdateStudent], args...)
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return nil
		}

		updated, err = getByID(ctx, tx, dto.StudentID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateStudent: %w", err)
	}

	return updated, nil
}

// DeleteStudent runs sp_DeleteStudent.
func (s *SQLite) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	conn, err := s.Db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: acquire conn: %w", err)
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, procedures[storage.ProcDeleteStudent], sql.Named("StudentId", id))
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: rows affected: %w", err)
	}

	return n > 0, nil
}

// inTx runs fn inside a transaction on a connection held for the call.
func (s *SQLite) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	conn, err := s.Db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// queryRower is satisfied by *sql.Conn and *sql.Tx.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getByID(ctx context.Context, q queryRower, id int64) (*types.Student, error) {
	row := q.QueryRowContext(ctx, procedures[storage.ProcGetStudentByID], sql.Named("StudentId", id))

	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &student, nil
}

func studentArgs(dto types.CreateStudentDto) []any {
	return []any{
		sql.Named("FirstName", dto.FirstName),
		sql.Named("LastName", dto.LastName),
		sql.Named("Email", dto.Email),
		sql.Named("Phone", dto.Phone),
		sql.Named("DateOfBirth", dto.DateOfBirth.TimePtr()),
		sql.Named("Address", dto.Address),
		sql.Named("City", dto.City),
		sql.Named("State", dto.State),
		sql.Named("ZipCode", dto.ZipCode),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

// scanStudent reads one row in studentColumns order.
func scanStudent(row scanner) (types.Student, error) {
	var (
		student types.Student
		dob     *time.Time
	)

	err := row.Scan(
		&student.StudentID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&student.Phone,
		&dob,
		&student.Address,
		&student.City,
		&student.State,
		&student.ZipCode,
		&student.EnrollmentDate,
		&student.IsActive,
		&student.CreatedDate,
		&student.ModifiedDate,
	)
	if err != nil {
		return types.Student{}, err
	}

	student.DateOfBirth = types.DateFromTime(dob)
	return student, nil
}
