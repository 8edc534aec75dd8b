package repository

import (
	"sync"

	"carelink-backend/internal/task/domain"
)

// TaskStore holds the volatile task collection. Tasks are never deleted;
// dismissed and completed tasks stay behind for audit but drop out of
// pending listings.
type TaskStore interface {
	// Create appends a new task
	Create(task *domain.Task) error

	// FindByID retrieves a copy of a task by id
	FindByID(id string) (*domain.Task, error)

	// FindPending returns copies of pending tasks in creation order
	FindPending() []*domain.Task

	// UpdateStatus transitions a pending task to next. It fails with
	// ErrInvalidTransition when the task is no longer pending.
	UpdateStatus(id string, next domain.TaskStatus) error
}

// memoryTaskStore implements TaskStore with a mutex-guarded map plus an
// insertion-order slice so listings are stable across calls
type memoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
}

// NewTaskStore creates an empty in-memory task store
func NewTaskStore() TaskStore {
	return &memoryTaskStore{
		tasks: make(map[string]*domain.Task),
	}
}

// snapshot returns a shallow copy. Payloads are never mutated after
// creation, so copying the struct is enough to keep status writes private
// to the store: callers can read their copy while an update runs.
func snapshot(task *domain.Task) *domain.Task {
	copied := *task
	return &copied
}

func (s *memoryTaskStore) Create(task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks[task.ID] = snapshot(task)
	s.order = append(s.order, task.ID)
	return nil
}

func (s *memoryTaskStore) FindByID(id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return snapshot(task), nil
}

func (s *memoryTaskStore) FindPending() []*domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make([]*domain.Task, 0)
	for _, id := range s.order {
		if task := s.tasks[id]; task.Status == domain.TaskStatusPending {
			pending = append(pending, snapshot(task))
		}
	}
	return pending
}

func (s *memoryTaskStore) UpdateStatus(id string, next domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if task.Status != domain.TaskStatusPending {
		return domain.ErrInvalidTransition
	}
	task.Status = next
	return nil
}
