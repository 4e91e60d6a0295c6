package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/aanand-mishra/student-records/internal/types"
)

// API is the subset of the HTTP client the store calls.
// *client.Client satisfies it.
type API interface {
	ListStudents(ctx context.Context) ([]types.Student, error)
	GetStudent(ctx context.Context, id int64) (*types.Student, error)
	CreateStudent(ctx context.Context, dto types.CreateStudentDto) (types.Student, error)
	UpdateStudent(ctx context.Context, id int64, dto types.UpdateStudentDto) (*types.Student, error)
	DeleteStudent(ctx context.Context, id int64) error
}

// Store owns the current State. It is safe for concurrent use.
type Store struct {
	api API

	// notifyMu is taken before mu is released so subscribers see
	// snapshots in dispatch order.
	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State
	subs    []subscriber
	nextSub int

	tokens atomic.Uint64
}

type subscriber struct {
	id int
	fn func(State)
}

// NewStore returns a store in the Initial state backed by api.
func NewStore(api API) *Store {
	return &Store{api: api, state: Initial()}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state, then calls every subscriber
// with the new snapshot. Subscribers run on the dispatching goroutine,
// outside the state lock, one dispatch at a time and in the order the
// actions were reduced. A subscriber may read State but must not Dispatch.
func (s *Store) Dispatch(a Action) {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snapshot := s.state
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	slog.Debug("state: dispatch", slog.String("action", fmt.Sprintf("%T", a)))

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) token() uint64 {
	return s.tokens.Add(1)
}

func (s *Store) reject(op Op, token uint64, err error) error {
	slog.Debug("state: rejected", slog.String("op", op.String()), slog.String("error", err.Error()))
	s.Dispatch(Rejected{Op: op, Token: token, Message: err.Error()})
	return err
}

// FetchStudents loads the list.
func (s *Store) FetchStudents(ctx context.Context) error {
	token := s.token()
	s.Dispatch(Pending{Op: OpFetchStudents, Token: token})

	students, err := s.api.ListStudents(ctx)
	if err != nil {
		return s.reject(OpFetchStudents, token, err)
	}

	s.Dispatch(StudentsFetched{Token: token, Students: students})
	return nil
}

// FetchStudent loads one student into Selected.
func (s *Store) FetchStudent(ctx context.Context, id int64) error {
	token := s.token()
	s.Dispatch(Pending{Op: OpFetchStudent, Token: token})

	student, err := s.api.GetStudent(ctx, id)
	if err != nil {
		return s.reject(OpFetchStudent, token, err)
	}

	s.Dispatch(StudentFetched{Token: token, Student: student})
	return nil
}

// CreateStudent stores dto and prepends the result to the list.
func (s *Store) CreateStudent(ctx context.Context, dto types.CreateStudentDto) error {
	token := s.token()
	s.Dispatch(Pending{Op: OpCreateStudent, Token: token})

	created, err := s.api.CreateStudent(ctx, dto)
	if err != nil {
		return s.reject(OpCreateStudent, token, err)
	}

	s.Dispatch(StudentCreated{Token: token, Student: created})
	return nil
}

// UpdateStudent saves dto and replaces the matching list entry.
func (s *Store) UpdateStudent(ctx context.Context, dto types.UpdateStudentDto) error {
	token := s.token()
	s.Dispatch(Pending{Op: OpUpdateStudent, Token: token})

	updated, err := s.api.UpdateStudent(ctx, dto.StudentID, dto)
	if err != nil {
		return s.reject(OpUpdateStudent, token, err)
	}

	s.Dispatch(StudentUpdated{Token: token, Student: updated})
	return nil
}

// DeleteStudent removes id and drops it from the list.
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	token := s.token()
	s.Dispatch(Pending{Op: OpDeleteStudent, Token: token})

	if err := s.api.DeleteStudent(ctx, id); err != nil {
		return s.reject(OpDeleteStudent, token, err)
	}

	s.Dispatch(StudentDeleted{Token: token, ID: id})
	return nil
}
