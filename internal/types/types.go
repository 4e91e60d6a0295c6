// Package types holds the data structures shared by the server handlers,
// the storage backends, the HTTP client and the terminal front end.
package types

import "time"

// Student represents a persisted student record.
//
// StudentID, EnrollmentDate, IsActive, CreatedDate and ModifiedDate are
// assigned by storage. Clients never send them on create; the identifier
// never changes once assigned.
//
// Optional columns are pointers so that "not provided" (nil) and "empty"
// stay distinguishable all the way down to the database NULL.
type Student struct {
	StudentID      int64     `json:"studentId"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          *string   `json:"phone,omitempty"`
	DateOfBirth    *Date     `json:"dateOfBirth,omitempty"`
	Address        *string   `json:"address,omitempty"`
	City           *string   `json:"city,omitempty"`
	State          *string   `json:"state,omitempty"`
	ZipCode        *string   `json:"zipCode,omitempty"`
	EnrollmentDate time.Time `json:"enrollmentDate"`
	IsActive       bool      `json:"isActive"`
	CreatedDate    time.Time `json:"createdDate"`
	ModifiedDate   time.Time `json:"modifiedDate"`
}

// FullName joins first and last name for display.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// CreateStudentDto is the subset of Student a client may supply to create
// a record: no identifier, no timestamps, no active flag.
//
// validate:"..." tags are checked by go-playground/validator in the HTTP
// layer before anything reaches storage.
type CreateStudentDto struct {
	FirstName   string  `json:"firstName"   validate:"required,max=50"`
	LastName    string  `json:"lastName"    validate:"required,max=50"`
	Email       string  `json:"email"       validate:"required,email,max=100"`
	Phone       *string `json:"phone,omitempty"       validate:"omitempty,max=20"`
	DateOfBirth *Date   `json:"dateOfBirth,omitempty"`
	Address     *string `json:"address,omitempty"     validate:"omitempty,max=200"`
	City        *string `json:"city,omitempty"        validate:"omitempty,max=50"`
	State       *string `json:"state,omitempty"       validate:"omitempty,max=50"`
	ZipCode     *string `json:"zipCode,omitempty"     validate:"omitempty,max=10"`
}

// ForUpdate turns the create payload into an update payload for id.
func (d CreateStudentDto) ForUpdate(id int64) UpdateStudentDto {
	return UpdateStudentDto{StudentID: id, CreateStudentDto: d}
}

// UpdateStudentDto is CreateStudentDto plus the identifier of the record
// being modified. The embedded struct is flattened in JSON, so the wire
// shape is { "studentId": 1, "firstName": ..., ... }.
type UpdateStudentDto struct {
	StudentID int64 `json:"studentId" validate:"required"`
	CreateStudentDto
}

// APIResponse is the envelope every endpoint answers with:
//
//	{ "success": true, "message": "...", "data": {...} }
//	{ "success": false, "message": "...", "errors": ["..."] }
//
// Data is absent on failure; Errors is absent on success.
type APIResponse[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// DeletedStudent is the payload of a successful delete.
type DeletedStudent struct {
	DeletedID int64 `json:"deletedId"`
}

// StringPtr returns nil for an empty string and a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
