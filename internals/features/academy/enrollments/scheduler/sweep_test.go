package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"akademiku_backend/internals/features/academy/enrollments/dto"
)

type countingSweeper struct {
	calls   atomic.Int32
	noDeadline atomic.Bool
}

func (s *countingSweeper) SweepStartedSessions(ctx context.Context, _ time.Time) (dto.SweepResult, error) {
	s.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		s.noDeadline.Store(true)
	}
	return dto.SweepResult{Scanned: 1, Rejected: 1}, nil
}

func TestRunSweepOnceUsesDeadline(t *testing.T) {
	s := &countingSweeper{}
	RunSweepOnce(s, time.Second)
	assert.Equal(t, int32(1), s.calls.Load())
	assert.False(t, s.noDeadline.Load())
}

func TestStartSweepSchedulerRejectsBadSpec(t *testing.T) {
	_, err := StartSweepScheduler(&countingSweeper{}, "bukan jadwal")
	assert.Error(t, err)
}

func TestStartSweepSchedulerRuns(t *testing.T) {
	s := &countingSweeper{}
	c, err := StartSweepScheduler(s, "@every 1s")
	require.NoError(t, err)
	defer c.Stop()

	assert.Eventually(t, func() bool { return s.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}
