package usecase

import (
	"sync/atomic"

	"carelink-backend/internal/task/domain"
	"carelink-backend/internal/task/repository"
	"carelink-backend/pkg/ai"
)

// DefaultBatchSize is the maximum number of unread emails pulled per scan
const DefaultBatchSize = 10

// taskUsecase implements TaskUsecase. It owns the volatile task store, the
// dedup ledger and the single-flight scan guard, so independent instances
// can exist side by side in tests.
type taskUsecase struct {
	store      repository.TaskStore
	ledger     repository.Ledger
	emails     EmailSource
	chat       ChatSource
	calendar   CalendarService
	classifier ai.Classifier
	batchSize  int
	scanning   atomic.Bool
	executors  map[domain.TaskType]executorFunc

	// onTaskCreated is invoked for every task the scanner creates;
	// the notification module hooks SSE and FCM fan-out here
	onTaskCreated func(*domain.Task)
}

// Option configures a taskUsecase
type Option func(*taskUsecase)

// WithBatchSize overrides the unread-email batch size
func WithBatchSize(n int) Option {
	return func(u *taskUsecase) {
		if n > 0 {
			u.batchSize = n
		}
	}
}

// WithTaskCreatedHook registers a callback fired after each created task
func WithTaskCreatedHook(fn func(*domain.Task)) Option {
	return func(u *taskUsecase) { u.onTaskCreated = fn }
}

// NewTaskUsecase creates the task pipeline. The executor registry is built
// and validated here, so an unmapped task type is a startup error rather
// than a runtime lookup failure.
func NewTaskUsecase(
	store repository.TaskStore,
	ledger repository.Ledger,
	emails EmailSource,
	chat ChatSource,
	calendar CalendarService,
	classifier ai.Classifier,
	opts ...Option,
) TaskUsecase {
	u := &taskUsecase{
		store:      store,
		ledger:     ledger,
		emails:     emails,
		chat:       chat,
		calendar:   calendar,
		classifier: classifier,
		batchSize:  DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.executors = u.buildExecutors()
	return u
}

// ListTasks returns the pending tasks relevant to the patient context. The
// delivery layer pairs it with a single background scan trigger.
func (u *taskUsecase) ListTasks(pc domain.PatientContext) []*domain.Task {
	return FilterRelevant(u.store.FindPending(), pc)
}

func (u *taskUsecase) created(task *domain.Task) {
	if u.onTaskCreated != nil {
		u.onTaskCreated(task)
	}
}
