// Package postgres implements storage.Repository on PostgreSQL through a
// pgx connection pool.
//
// The five procedures are real SQL functions (sp_get_all_students, ...)
// created by the embedded migrations. Each repository call acquires one
// pooled connection, calls one function with named arguments and
// releases the connection before returning.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

//go:embed migrations/*.sql
var migrations embed.FS

const studentColumns = `student_id, first_name, last_name, email, phone, date_of_birth,
	address, city, state, zip_code, enrollment_date, is_active, created_date, modified_date`

var procedures = map[string]string{
	storage.ProcGetAllStudents: `SELECT ` + studentColumns + ` FROM sp_get_all_students()`,

	storage.ProcGetStudentByID: `SELECT ` + studentColumns + ` FROM sp_get_student_by_id(@student_id)`,

	storage.ProcCreateStudent: `SELECT ` + studentColumns + ` FROM sp_create_student(
		@first_name, @last_name, @email, @phone, @date_of_birth, @address, @city, @state, @zip_code)`,

	storage.ProcUpdateStudent: `SELECT ` + studentColumns + ` FROM sp_update_student(
		@student_id, @first_name, @last_name, @email, @phone, @date_of_birth, @address, @city, @state, @zip_code)`,

	storage.ProcDeleteStudent: `SELECT sp_delete_student(@student_id)`,
}

// Postgres is the pgxpool-backed repository.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Postgres)(nil)

// New connects, verifies the connection and applies pending migrations.
func New(ctx context.Context, cfg config.Storage) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse dsn: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = 5 * time.Minute
	poolCfg.MaxConnIdleTime = 2 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute
	poolCfg.ConnConfig.ConnectTimeout = 3 * time.Second

	if err := migrateUp(cfg.DSN); err != nil {
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// migrationURL rewrites a postgres:// DSN to the scheme golang-migrate's
// pgx v5 driver registers.
func migrationURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}

func migrateUp(dsn string) (err error) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrationURL(dsn))
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			var result *multierror.Error
			result = multierror.Append(result, err, srcErr, dbErr)
			err = result.ErrorOrNil()
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations up: %w", err)
	}
	return nil
}

// Close releases every pooled connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// ListStudents calls sp_get_all_students.
func (p *Postgres) ListStudents(ctx context.Context) ([]types.Student, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStudents: acquire conn: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, procedures[storage.ProcGetAllStudents])
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

// GetStudentByID calls sp_get_student_by_id.
func (p *Postgres) GetStudentByID(ctx context.Context, id int64) (*types.Student, error) {
	student, err := p.queryOne(ctx, storage.ProcGetStudentByID, pgx.NamedArgs{"student_id": id})
	if err != nil {
		return nil, fmt.Errorf("GetStudentByID: %w", err)
	}
	return student, nil
}

// CreateStudent calls sp_create_student.
func (p *Postgres) CreateStudent(ctx context.Context, dto types.CreateStudentDto) (types.Student, error) {
	student, err := p.queryOne(ctx, storage.ProcCreateStudent, studentArgs(dto))
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}
	if student == nil {
		return types.Student{}, errors.New("CreateStudent: procedure returned no row")
	}
	return *student, nil
}

// UpdateStudent calls sp_update_student; nil means no such student.
func (p *Postgres) UpdateStudent(ctx context.Context, dto types.UpdateStudentDto) (*types.Student, error) {
	args := studentArgs(dto.CreateStudentDto)
	args["student_id"] = dto.StudentID

	student, err := p.queryOne(ctx, storage.ProcUpdateStudent, args)
	if err != nil {
		return nil, fmt.Errorf("UpdateStudent: %w", err)
	}
	return student, nil
}

// DeleteStudent calls sp_delete_student.
func (p *Postgres) DeleteStudent(ctx context.Context, id int64) (bool, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: acquire conn: %w", err)
	}
	defer conn.Release()

	var removed int32
	err = conn.QueryRow(ctx, procedures[storage.ProcDeleteStudent], pgx.NamedArgs{"student_id": id}).Scan(&removed)
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: %w", err)
	}

	return removed > 0, nil
}

// queryOne runs a single-row procedure; a procedure that returns no row
// yields nil.
func (p *Postgres) queryOne(ctx context.Context, proc string, args pgx.NamedArgs) (*types.Student, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	student, err := scanStudent(conn.QueryRow(ctx, procedures[proc], args))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", proc, err)
	}
	return &student, nil
}

func studentArgs(dto types.CreateStudentDto) pgx.NamedArgs {
	return pgx.NamedArgs{
		"first_name":    dto.FirstName,
		"last_name":     dto.LastName,
		"email":         dto.Email,
		"phone":         dto.Phone,
		"date_of_birth": dto.DateOfBirth.TimePtr(),
		"address":       dto.Address,
		"city":          dto.City,
		"state":         dto.State,
		"zip_code":      dto.ZipCode,
	}
}

func scanStudent(row pgx.Row) (types.Student, error) {
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
