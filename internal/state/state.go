// Package state is the client-side state container shared by the terminal
// UI and any other front end.
//
// State changes only through Reduce, a pure function of the previous
// state and one Action. Store owns the current State, applies dispatched
// actions under a mutex and notifies subscribers. The async operations on
// Store (FetchStudents, CreateStudent, ...) dispatch Pending, call the
// API, then dispatch a fulfilled action or Rejected.
//
// Every async call gets a request token. Results of FetchStudents and
// FetchStudent are applied only when they answer the latest request of
// their kind, so a slow stale response can never overwrite a newer one.
// Mutation results always apply. Loading stays true while any request is
// in flight.
package state

import (
	"slices"

	"github.com/aanand-mishra/student-records/internal/types"
)

// ModalMode says what the student modal is showing.
type ModalMode string

const (
	ModeCreate ModalMode = "create"
	ModeEdit   ModalMode = "edit"
	ModeView   ModalMode = "view"
)

// State is an immutable snapshot. Reduce never modifies the Students
// slice or the Selected student of its input; it builds new ones.
type State struct {
	Students  []types.Student
	Selected  *types.Student
	Loading   bool
	Error     string
	ModalOpen bool
	ModalMode ModalMode

	inFlight   int
	latestList uint64
	latestGet  uint64
}

// Initial is the state a fresh Store starts with.
func Initial() State {
	return State{Students: []types.Student{}, ModalMode: ModeView}
}

// Op identifies an async operation.
type Op int

const (
	OpFetchStudents Op = iota
	OpFetchStudent
	OpCreateStudent
	OpUpdateStudent
	OpDeleteStudent
)

func (o Op) String() string {
	switch o {
	case OpFetchStudents:
		return "students/fetchAll"
	case OpFetchStudent:
		return "students/fetchById"
	case OpCreateStudent:
		return "students/create"
	case OpUpdateStudent:
		return "students/update"
	case OpDeleteStudent:
		return "students/delete"
	default:
		return "students/unknown"
	}
}

// DefaultError is the message a rejection carries when the failure had
// none of its own.
func (o Op) DefaultError() string {
	switch o {
	case OpFetchStudents:
		return "Failed to fetch students"
	case OpFetchStudent:
		return "Failed to fetch student"
	case OpCreateStudent:
		return "Failed to create student"
	case OpUpdateStudent:
		return "Failed to update student"
	case OpDeleteStudent:
		return "Failed to delete student"
	default:
		return "Request failed"
	}
}

// Action is anything Reduce understands.
type Action interface {
	action()
}

// Pending marks the start of an async operation.
type Pending struct {
	Op    Op
	Token uint64
}

// Rejected ends an async operation with a failure.
type Rejected struct {
	Op      Op
	Token   uint64
	Message string
}

// StudentsFetched ends FetchStudents.
type StudentsFetched struct {
	Token    uint64
	Students []types.Student
}

// StudentFetched ends FetchStudent.
type StudentFetched struct {
	Token   uint64
	Student *types.Student
}

// StudentCreated ends CreateStudent.
type StudentCreated struct {
	Token   uint64
	Student types.Student
}

// StudentUpdated ends UpdateStudent. Student is nil when the server
// returned no entity.
type StudentUpdated struct {
	Token   uint64
	Student *types.Student
}

// StudentDeleted ends DeleteStudent.
type StudentDeleted struct {
	Token uint64
	ID    int64
}

// ModalOpened shows the modal in Mode for Student (nil for create).
type ModalOpened struct {
	Mode    ModalMode
	Student *types.Student
}

// ModalClosed hides the modal and clears selection and error.
type ModalClosed struct{}

// ErrorCleared dismisses the error banner.
type ErrorCleared struct{}

func (Pending) action()         {}
func (Rejected) action()        {}
func (StudentsFetched) action() {}
func (StudentFetched) action()  {}
func (StudentCreated) action()  {}
func (StudentUpdated) action()  {}
func (StudentDeleted) action()  {}
func (ModalOpened) action()     {}
func (ModalClosed) action()     {}
func (ErrorCleared) action()    {}

// OpenModal is the intent to show the modal.
func OpenModal(mode ModalMode, student *types.Student) Action {
	return ModalOpened{Mode: mode, Student: student}
}

// CloseModal is the intent to hide the modal.
func CloseModal() Action { return ModalClosed{} }

// ClearError is the intent to dismiss the error banner.
func ClearError() Action { return ErrorCleared{} }

// Reduce returns the state that follows s after a. Unknown actions
// return s unchanged.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Pending:
		s.inFlight++
		s.Loading = true
		s.Error = ""
		switch a.Op {
		case OpFetchStudents:
			s.latestList = a.Token
		case OpFetchStudent:
			s.latestGet = a.Token
		}

	case Rejected:
		s = settle(s)
		if isStale(s, a.Op, a.Token) {
			return s
		}
		s.Error = a.Message
		if s.Error == "" {
			s.Error = a.Op.DefaultError()
		}

	case StudentsFetched:
		s = settle(s)
		if isStale(s, OpFetchStudents, a.Token) {
			return s
		}
		s.Students = a.Students
		if s.Students == nil {
			s.Students = []types.Student{}
		}

	case StudentFetched:
		s = settle(s)
		if isStale(s, OpFetchStudent, a.Token) {
			return s
		}
		s.Selected = a.Student

	case StudentCreated:
		s = settle(s)
		students := make([]types.Student, 0, len(s.Students)+1)
		s.Students = append(append(students, a.Student), s.Students...)
		s.ModalOpen = false
		s.Selected = nil

	case StudentUpdated:
		s = settle(s)
		if a.Student != nil {
			if i := indexOf(s.Students, a.Student.StudentID); i >= 0 {
				s.Students = slices.Clone(s.Students)
				s.Students[i] = *a.Student
			}
		}
		s.ModalOpen = false
		s.Selected = nil

	case StudentDeleted:
		s = settle(s)
		s.Students = slices.DeleteFunc(slices.Clone(s.Students), func(st types.Student) bool {
			return st.StudentID == a.ID
		})

	case ModalOpened:
		s.ModalOpen = true
		s.ModalMode = a.Mode
		s.Selected = a.Student

	case ModalClosed:
		s.ModalOpen = false
		s.Selected = nil
		s.Error = ""

	case ErrorCleared:
		s.Error = ""
	}

	return s
}

func settle(s State) State {
	if s.inFlight > 0 {
		s.inFlight--
	}
	s.Loading = s.inFlight > 0
	return s
}

func isStale(s State, op Op, token uint64) bool {
	switch op {
	case OpFetchStudents:
		return token != s.latestList
	case OpFetchStudent:
		return token != s.latestGet
	default:
		return false
	}
}

func indexOf(students []types.Student, id int64) int {
	return slices.IndexFunc(students, func(st types.Student) bool {
		return st.StudentID == id
	})
}

// Find returns the student with id from the list, or nil.
func (s State) Find(id int64) *types.Student {
	if i := indexOf(s.Students, id); i >= 0 {
		st := s.Students[i]
		return &st
	}
	return nil
}
