package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRunner_Defaults(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 0, QueueSize: -1}, setupTestLogger())

	assert.Equal(t, DefaultTaskRunnerConfig().WorkerCount, runner.config.WorkerCount)
	assert.Equal(t, DefaultTaskRunnerConfig().QueueSize, cap(runner.taskChan))
}

func TestTaskRunner_Submit(t *testing.T) {
	t.Parallel()

	t.Run("successful submission", func(t *testing.T) {
		t.Parallel()
		runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 2}, setupTestLogger())

		err := runner.Submit(context.Background(), NewMockTask())
		assert.NoError(t, err)
		assert.Len(t, runner.taskChan, 1)
	})

	t.Run("queue full", func(t *testing.T) {
		t.Parallel()
		runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())

		require.NoError(t, runner.Submit(context.Background(), NewMockTask()))
		err := runner.Submit(context.Background(), NewMockTask())

		assert.ErrorIs(t, err, ErrQueueFull)
		assert.Contains(t, err.Error(), "queue capacity 1 reached")
	})

	t.Run("closed runner", func(t *testing.T) {
		t.Parallel()
		runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())
		runner.Start()
		runner.Stop()

		err := runner.Submit(context.Background(), NewMockTask())
		assert.ErrorIs(t, err, ErrQueueClosed)
	})
}

func TestTaskRunner_ProcessesTasks(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 2, QueueSize: 10}, setupTestLogger())
	completed := make(chan string, 3)

	for i := 0; i < 3; i++ {
		task := NewMockTask()
		task.ExecuteFn = func(ctx context.Context) error {
			completed <- task.ID()
			return nil
		}
		require.NoError(t, runner.Submit(context.Background(), task))
	}

	runner.Start()
	defer runner.Stop()

	seen := make(map[string]bool)
	timeout := time.After(2 * time.Second)
	for len(seen) < 3 {
		select {
		case id := <-completed:
			seen[id] = true
		case <-timeout:
			t.Fatalf("timed out, completed %d of 3 tasks", len(seen))
		}
	}
}

func TestTaskRunner_ErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("receives task errors", func(t *testing.T) {
		t.Parallel()
		runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())

		var mu sync.Mutex
		var got error
		handled := make(chan struct{})
		runner.SetErrorHandler(func(task Task, err error) {
			mu.Lock()
			got = err
			mu.Unlock()
			close(handled)
		})

		task := NewMockTask()
		task.ExecuteFn = func(ctx context.Context) error { return errors.New("boom") }
		require.NoError(t, runner.Submit(context.Background(), task))
		runner.Start()
		defer runner.Stop()

		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatal("error handler was not called")
		}
		mu.Lock()
		defer mu.Unlock()
		assert.EqualError(t, got, "boom")
	})

	t.Run("panics become errors", func(t *testing.T) {
		t.Parallel()
		runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 2}, setupTestLogger())

		errs := make(chan error, 1)
		runner.SetErrorHandler(func(task Task, err error) { errs <- err })

		task := NewMockTask()
		task.ExecuteFn = func(ctx context.Context) error { panic("corrupt document") }
		after := NewMockTask()
		ran := make(chan struct{})
		after.ExecuteFn = func(ctx context.Context) error {
			close(ran)
			return nil
		}

		require.NoError(t, runner.Submit(context.Background(), task))
		require.NoError(t, runner.Submit(context.Background(), after))
		runner.Start()
		defer runner.Stop()

		select {
		case err := <-errs:
			assert.ErrorIs(t, err, ErrPanicRecovered)
			assert.Contains(t, err.Error(), "corrupt document")
		case <-time.After(2 * time.Second):
			t.Fatal("panic was not reported")
		}

		select {
		case <-ran:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not survive the panic")
		}
	})
}

func TestTaskRunner_StopCancelsInFlightContext(t *testing.T) {
	t.Parallel()

	runner := NewTaskRunner(TaskRunnerConfig{WorkerCount: 1, QueueSize: 1}, setupTestLogger())
	started := make(chan struct{})
	cancelled := make(chan struct{})

	task := NewMockTask()
	task.ExecuteFn = func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	}
	require.NoError(t, runner.Submit(context.Background(), task))
	runner.Start()

	<-started
	runner.Stop()

	select {
	case <-cancelled:
	default:
		t.Fatal("Stop returned before in-flight task observed cancellation")
	}
}
