// Package student contains all HTTP handlers of the Student resource.
//
// HANDLER PATTERN: closure factories.
// Each exported function receives its dependencies (the repository) once
// at startup and returns the http.HandlerFunc the router calls on every
// request:
//
//	router.HandleFunc("POST /api/Students", student.New(repo))
//
// Inside, the work is split in two. An unexported function validates the
// request, calls the repository once and returns a response.Result that
// says what happened; only response.Write turns that into a status code
// and a JSON envelope.
package student

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-records/internal/logger"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// BasePath is the collection URL of the resource.
const BasePath = "/api/Students"

const invalidData = "Invalid student data"

// maxBodyBytes caps create and update request bodies.
const maxBodyBytes = 1 << 20

// validate is shared: validator caches struct metadata per type.
// Field errors are reported with JSON names (firstName, not FirstName).
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// Register mounts the five student routes on mux.
//
//	GET    /api/Students        → list all students
//	GET    /api/Students/{id}   → get one student
//	POST   /api/Students        → create a student
//	PUT    /api/Students/{id}   → update a student
//	DELETE /api/Students/{id}   → delete a student
func Register(mux *http.ServeMux, repo storage.Repository) {
	mux.HandleFunc("GET "+BasePath, GetList(repo))
	mux.HandleFunc("GET "+BasePath+"/{id}", GetByID(repo))
	mux.HandleFunc("POST "+BasePath, New(repo))
	mux.HandleFunc("PUT "+BasePath+"/{id}", Update(repo))
	mux.HandleFunc("DELETE "+BasePath+"/{id}", Delete(repo))
}

// GetList handles GET /api/Students.
//
// Success (200): data is the list, [] when there are no students.
// Failure: 500 when storage fails.
func GetList(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")
		response.Write(w, getList(r, repo))
	}
}

func getList(r *http.Request, repo storage.Repository) response.Result[[]types.Student] {
	students, err := repo.ListStudents(r.Context())
	if err != nil {
		slog.Error("error getting students", logger.Err(err))
		return response.Internal[[]types.Student]("An error occurred while retrieving students", err)
	}
	return response.OK(students, "Students retrieved successfully")
}

// GetByID handles GET /api/Students/{id}.
//
// Success (200): data is the student.
// Failure: 400 for a non-integer id, 404 when absent, 500 when storage fails.
func GetByID(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting a student", slog.String("id", r.PathValue("id")))
		response.Write(w, getByID(r, repo))
	}
}

func getByID(r *http.Request, repo storage.Repository) response.Result[types.Student] {
	id, res, ok := pathID[types.Student](r)
	if !ok {
		return res
	}

	student, err := repo.GetStudentByID(r.Context(), id)
	if err != nil {
		slog.Error("error getting student", slog.Int64("id", id), logger.Err(err))
		return response.Internal[types.Student]("An error occurred while retrieving the student", err)
	}
	if student == nil {
		return response.NotFound[types.Student](notFound(id))
	}

	return response.OK(*student, "Student retrieved successfully")
}

// New handles POST /api/Students.
//
// Request body: CreateStudentDto, e.g.
//
//	{ "firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com" }
//
// Success (201): data is the stored student; Location is its URL.
// Failure: 400 for an empty/malformed/invalid body, 500 when storage fails.
func New(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		response.Write(w, create(r, repo))
	}
}

func create(r *http.Request, repo storage.Repository) response.Result[types.Student] {
	var dto types.CreateStudentDto
	if res, ok := decodeBody[types.Student](r, &dto); !ok {
		return res
	}
	if res, ok := validateBody[types.Student](&dto); !ok {
		return res
	}

	created, err := repo.CreateStudent(r.Context(), dto)
	if err != nil {
		slog.Error("error creating student", logger.Err(err))
		return response.Internal[types.Student]("An error occurred while creating the student", err)
	}

	slog.Info("student created", slog.Int64("id", created.StudentID))
	return response.Created(created, "Student created successfully", fmt.Sprintf("%s/%d", BasePath, created.StudentID))
}

// Update handles PUT /api/Students/{id}.
//
// Request body: UpdateStudentDto; its studentId must equal {id}.
//
// Success (200): data is the updated student.
// Failure: 400 for a bad id, body or id mismatch (storage is not called),
// 404 when absent, 500 when storage fails.
func Update(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("updating a student", slog.String("id", r.PathValue("id")))
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		response.Write(w, update(r, repo))
	}
}

func update(r *http.Request, repo storage.Repository) response.Result[types.Student] {
	id, res, ok := pathID[types.Student](r)
	if !ok {
		return res
	}

	var dto types.UpdateStudentDto
	if res, ok := decodeBody[types.Student](r, &dto); !ok {
		return res
	}
	if dto.StudentID != id {
		return response.Validation[types.Student]("Student ID mismatch")
	}
	if res, ok := validateBody[types.Student](&dto); !ok {
		return res
	}

	updated, err := repo.UpdateStudent(r.Context(), dto)
	if err != nil {
		slog.Error("error updating student", slog.Int64("id", id), logger.Err(err))
		return response.Internal[types.Student]("An error occurred while updating the student", err)
	}
	if updated == nil {
		return response.NotFound[types.Student](notFound(id))
	}

	slog.Info("student updated", slog.Int64("id", id))
	return response.OK(*updated, "Student updated successfully")
}

// Delete handles DELETE /api/Students/{id}.
//
// Success (200): data is { "deletedId": id }.
// Failure: 400 for a non-integer id, 404 when absent, 500 when storage fails.
func Delete(repo storage.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("deleting a student", slog.String("id", r.PathValue("id")))
		response.Write(w, remove(r, repo))
	}
}

func remove(r *http.Request, repo storage.Repository) response.Result[types.DeletedStudent] {
	id, res, ok := pathID[types.DeletedStudent](r)
	if !ok {
		return res
	}

	deleted, err := repo.DeleteStudent(r.Context(), id)
	if err != nil {
		slog.Error("error deleting student", slog.Int64("id", id), logger.Err(err))
		return response.Internal[types.DeletedStudent]("An error occurred while deleting the student", err)
	}
	if !deleted {
		return response.NotFound[types.DeletedStudent](notFound(id))
	}

	slog.Info("student deleted", slog.Int64("id", id))
	return response.OK(types.DeletedStudent{DeletedID: id}, "Student deleted successfully")
}

func notFound(id int64) string {
	return fmt.Sprintf("Student with ID %d not found", id)
}

// pathID parses the {id} segment. The Result is only meaningful when ok
// is false.
func pathID[T any](r *http.Request) (int64, response.Result[T], bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, response.Validation[T]("Invalid student ID", "invalid id: must be an integer"), false
	}
	return id, response.Result[T]{}, true
}

// decodeBody accepts exactly one JSON value.
func decodeBody[T any](r *http.Request, dst any) (response.Result[T], bool) {
	dec := json.NewDecoder(r.Body)
	err := dec.Decode(dst)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return response.Validation[T](invalidData, "request body is empty"), false
	case errors.As(err, &tooLarge):
		return response.Validation[T](invalidData, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)), false
	case err != nil:
		return response.Validation[T](invalidData, err.Error()), false
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return response.Validation[T](invalidData, "request body must contain a single JSON object"), false
	}
	return response.Result[T]{}, true
}

func validateBody[T any](dst any) (response.Result[T], bool) {
	err := validate.Struct(dst)
	if err == nil {
		return response.Result[T]{}, true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return response.Validation[T](invalidData, response.ValidationMessages(verrs)...), false
	}
	return response.Validation[T](invalidData, err.Error()), false
}
