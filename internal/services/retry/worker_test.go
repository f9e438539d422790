package retry

import (
	"context"
	"testing"
	"time"

	"borewell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerRunsOnlyDueJobs(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	job := f.schedule(t, f.failedCredit(t).ID)
	w := NewWorker(f.svc, WorkerConfig{RatePerSec: 1000}, nil)

	n, err := w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.clock = f.clock.Add(2 * time.Minute)
	n, err = w.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	job, err = f.svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RetrySucceeded, job.Status)
	assert.Len(t, f.listener.calls, 1)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	f := setup(t)
	w := NewWorker(f.svc, WorkerConfig{Interval: 5 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
