package repository

import "sync"

// DefaultLedgerCapacity bounds the dedup set; oldest entries are evicted
// first once the capacity is reached.
const DefaultLedgerCapacity = 10000

// ChatKeyPrefix namespaces chat-update ids so a Telegram update id can never
// collide with a Gmail message id of equal value.
const ChatKeyPrefix = "tg_"

// Ledger is the set of source-item identifiers already evaluated by the
// scanner, whether or not they produced a task.
type Ledger interface {
	// Seen reports whether the identifier was already processed
	Seen(id string) bool

	// MarkProcessed records the identifier
	MarkProcessed(id string)
}

// memoryLedger is a bounded FIFO set
type memoryLedger struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	order    []string
	capacity int
}

// NewLedger creates a ledger bounded to capacity entries. A capacity of
// zero or less falls back to DefaultLedgerCapacity.
func NewLedger(capacity int) Ledger {
	if capacity <= 0 {
		capacity = DefaultLedgerCapacity
	}
	return &memoryLedger{
		seen:     make(map[string]struct{}),
		capacity: capacity,
	}
}

func (l *memoryLedger) Seen(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[id]
	return ok
}

func (l *memoryLedger) MarkProcessed(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return
	}
	if len(l.order) >= l.capacity {
		oldest := l.order[0]
		l.order = l.order[1:]
		delete(l.seen, oldest)
	}
	l.seen[id] = struct{}{}
	l.order = append(l.order, id)
}
