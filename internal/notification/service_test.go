package notification

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloud.google.com/go/pubsub"

	"carelink-backend/internal/task/domain"
)

type stubTaskUsecase struct {
	scans atomic.Int64
}

func (s *stubTaskUsecase) ListTasks(pc domain.PatientContext) []*domain.Task { return nil }

func (s *stubTaskUsecase) TriggerScan(ctx context.Context) { s.scans.Add(1) }

func (s *stubTaskUsecase) Accept(ctx context.Context, id string) error { return nil }

func (s *stubTaskUsecase) Dismiss(id string) error { return nil }

func gmailMessage(t *testing.T, historyID uint64) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(GmailNotification{EmailAddress: "caregiver@example.com", HistoryID: historyID})
	require.NoError(t, err)
	return &pubsub.Message{Data: data}
}

func TestHandleMessageSkipsRedelivery(t *testing.T) {
	uc := &stubTaskUsecase{}
	s := &Service{taskUsecase: uc}

	s.handleMessage(context.Background(), gmailMessage(t, 10))
	s.handleMessage(context.Background(), gmailMessage(t, 10))
	s.handleMessage(context.Background(), gmailMessage(t, 9))
	s.handleMessage(context.Background(), gmailMessage(t, 11))

	assert.Equal(t, int64(2), uc.scans.Load())
	assert.Equal(t, uint64(11), s.lastHistoryID.Load())
}

func TestHandleMessageConcurrentDelivery(t *testing.T) {
	uc := &stubTaskUsecase{}
	s := &Service{taskUsecase: uc}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		historyID := uint64(100 + i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleMessage(context.Background(), gmailMessage(t, historyID))
		}()
	}
	wg.Wait()

	// Whatever the interleaving, the ledger ends at the highest historyId
	assert.Equal(t, uint64(119), s.lastHistoryID.Load())
}
