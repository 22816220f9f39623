package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/emailcraft/pkg/logger"
	"github.com/dmitrymomot/emailcraft/pkg/queue"
)

type sendPayload struct {
	CampaignID string `json:"campaign_id"`
}

type mockEnqueuerRepo struct {
	mock.Mock
}

func (m *mockEnqueuerRepo) CreateTask(ctx context.Context, task *queue.Task) error {
	return m.Called(ctx, task).Error(0)
}

func (m *mockEnqueuerRepo) CancelByKey(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()

	at := time.Now().Add(time.Hour).Truncate(time.Second)

	repo := &mockEnqueuerRepo{}
	repo.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *queue.Task) bool {
		var p sendPayload
		_ = json.Unmarshal(task.Payload, &p)
		return task.TaskName == "queue_test.sendPayload" &&
			task.Key == "campaign:c1" &&
			task.Queue == queue.DefaultQueueName &&
			task.Status == queue.TaskStatusPending &&
			task.Priority == queue.PriorityHigh &&
			task.MaxRetries == 5 &&
			task.ScheduledAt.Equal(at) &&
			p.CampaignID == "c1"
	})).Return(nil).Once()

	enq, err := queue.NewEnqueuer(repo, queue.WithDefaultMaxRetries(5))
	require.NoError(t, err)

	task, err := enq.Enqueue(context.Background(), sendPayload{CampaignID: "c1"},
		queue.WithScheduledAt(at),
		queue.WithKey("campaign:c1"),
		queue.WithPriority(queue.PriorityHigh))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, task.ID)
	repo.AssertExpectations(t)
}

func TestEnqueuer_Errors(t *testing.T) {
	t.Parallel()

	_, err := queue.NewEnqueuer(nil)
	require.ErrorIs(t, err, queue.ErrRepositoryNil)

	repo := &mockEnqueuerRepo{}
	repo.On("CreateTask", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()
	enq, err := queue.NewEnqueuer(repo)
	require.NoError(t, err)

	_, err = enq.Enqueue(context.Background(), nil)
	assert.ErrorIs(t, err, queue.ErrPayloadNil)

	_, err = enq.Enqueue(context.Background(), sendPayload{}, queue.WithPriority(101))
	assert.ErrorIs(t, err, queue.ErrInvalidPriority)

	_, err = enq.Enqueue(context.Background(), make(chan int))
	assert.ErrorIs(t, err, queue.ErrPayloadMarshal)

	_, err = enq.Enqueue(context.Background(), sendPayload{})
	assert.ErrorIs(t, err, queue.ErrTaskCreate)

	n, err := enq.Cancel(context.Background(), "")
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStorage_KeyReplacesPendingTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)

	first, err := enq.Enqueue(ctx, sendPayload{CampaignID: "c1"}, queue.WithKey("campaign:c1"), queue.WithDelay(time.Hour))
	require.NoError(t, err)
	second, err := enq.Enqueue(ctx, sendPayload{CampaignID: "c1"}, queue.WithKey("campaign:c1"), queue.WithDelay(2*time.Hour))
	require.NoError(t, err)

	_, ok := store.Task(first.ID)
	assert.False(t, ok)
	_, ok = store.Task(second.ID)
	assert.True(t, ok)

	n, err := enq.Cancel(ctx, "campaign:c1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok = store.Task(second.ID)
	assert.False(t, ok)
}

func TestMemoryStorage_ClaimOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)

	low, err := enq.Enqueue(ctx, sendPayload{CampaignID: "low"}, queue.WithPriority(queue.PriorityLow))
	require.NoError(t, err)
	high, err := enq.Enqueue(ctx, sendPayload{CampaignID: "high"}, queue.WithPriority(queue.PriorityHigh))
	require.NoError(t, err)
	_, err = enq.Enqueue(ctx, sendPayload{CampaignID: "later"}, queue.WithDelay(time.Hour), queue.WithPriority(queue.PriorityMax))
	require.NoError(t, err)
	_, err = enq.Enqueue(ctx, sendPayload{CampaignID: "other"}, queue.WithQueue("other"))
	require.NoError(t, err)

	workerID := uuid.New()
	queues := []string{queue.DefaultQueueName}

	got, err := store.ClaimTask(ctx, workerID, queues, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, high.ID, got.ID)
	assert.Equal(t, queue.TaskStatusProcessing, got.Status)
	assert.Equal(t, workerID, *got.LockedBy)

	got, err = store.ClaimTask(ctx, workerID, queues, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, low.ID, got.ID)

	_, err = store.ClaimTask(ctx, workerID, queues, time.Minute)
	assert.ErrorIs(t, err, queue.ErrNoTaskToClaim)
}

func TestMemoryStorage_ExpiredLockIsReclaimed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)
	task, err := enq.Enqueue(ctx, sendPayload{})
	require.NoError(t, err)

	_, err = store.ClaimTask(ctx, uuid.New(), []string{queue.DefaultQueueName}, -time.Second)
	require.NoError(t, err)

	got, err := store.ClaimTask(ctx, uuid.New(), []string{queue.DefaultQueueName}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
}

func TestMemoryStorage_FailRetriesThenFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)
	task, err := enq.Enqueue(ctx, sendPayload{}, queue.WithMaxRetries(1))
	require.NoError(t, err)

	require.ErrorIs(t, store.FailTask(ctx, task.ID, "x"), queue.ErrTaskNotClaimed)

	_, err = store.ClaimTask(ctx, uuid.New(), []string{queue.DefaultQueueName}, time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.FailTask(ctx, task.ID, "boom"))

	got, ok := store.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, queue.TaskStatusFailed, got.Status)
	assert.Equal(t, "boom", *got.Error)

	require.NoError(t, store.MoveToDLQ(ctx, task.ID))
	dead := store.DeadTasks()
	require.Len(t, dead, 1)
	assert.Equal(t, task.ID, dead[0].TaskID)
	assert.Equal(t, "boom", dead[0].Error)
}

func newWorker(t *testing.T, store *queue.MemoryStorage) *queue.Worker {
	t.Helper()

	w, err := queue.NewWorker(store,
		queue.WithPullInterval(10*time.Millisecond),
		queue.WithMaxConcurrentTasks(2),
		queue.WithWorkerLogger(logger.Discard()))
	require.NoError(t, err)
	return w
}

func runWorker(t *testing.T, w *queue.Worker) (stop func()) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		require.NoError(t, <-done)
	}
}

func TestWorker_ProcessesTasks(t *testing.T) {
	t.Parallel()

	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		seen []string
	)
	w := newWorker(t, store)
	w.RegisterHandler(queue.NewTaskHandler(func(_ context.Context, p sendPayload) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p.CampaignID)
		return nil
	}))

	a, err := enq.Enqueue(context.Background(), sendPayload{CampaignID: "a"})
	require.NoError(t, err)
	_, err = enq.Enqueue(context.Background(), sendPayload{CampaignID: "b"})
	require.NoError(t, err)

	stop := runWorker(t, w)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	}, 2*time.Second, 10*time.Millisecond)
	stop()

	got, ok := store.Task(a.ID)
	require.True(t, ok)
	assert.Equal(t, queue.TaskStatusCompleted, got.Status)
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
}

func TestWorker_FailureGoesToDLQ(t *testing.T) {
	t.Parallel()

	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)

	var calls atomic.Int32
	w := newWorker(t, store)
	w.RegisterHandler(queue.NewTaskHandler(func(context.Context, sendPayload) error {
		calls.Add(1)
		return errors.New("provider down")
	}))

	task, err := enq.Enqueue(context.Background(), sendPayload{CampaignID: "x"}, queue.WithMaxRetries(1))
	require.NoError(t, err)

	stop := runWorker(t, w)
	require.Eventually(t, func() bool { return len(store.DeadTasks()) == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, task.ID, store.DeadTasks()[0].TaskID)
	assert.Equal(t, "provider down", store.DeadTasks()[0].Error)
}

func TestWorker_MissingHandlerAndPanic(t *testing.T) {
	t.Parallel()

	store := queue.NewMemoryStorage()
	enq, err := queue.NewEnqueuer(store)
	require.NoError(t, err)

	w := newWorker(t, store)
	w.RegisterHandler(queue.NewNamedTaskHandler("explode", func(context.Context, sendPayload) error {
		panic("kaboom")
	}))

	_, err = enq.Enqueue(context.Background(), sendPayload{}, queue.WithTaskName("unknown"))
	require.NoError(t, err)
	_, err = enq.Enqueue(context.Background(), sendPayload{}, queue.WithTaskName("explode"), queue.WithMaxRetries(0))
	require.NoError(t, err)

	stop := runWorker(t, w)
	require.Eventually(t, func() bool { return len(store.DeadTasks()) == 2 }, 2*time.Second, 10*time.Millisecond)
	stop()
}

func TestWorker_RunRequiresHandlers(t *testing.T) {
	t.Parallel()

	w, err := queue.NewWorker(queue.NewMemoryStorage())
	require.NoError(t, err)
	assert.ErrorIs(t, w.Run(context.Background()), queue.ErrNoHandlers)

	_, err = queue.NewWorker(nil)
	assert.ErrorIs(t, err, queue.ErrRepositoryNil)
}
