package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"akademiku_backend/internals/features/academy/enrollments/dto"
)

// Sweeper: subset EnrollmentService yang dipanggil cron.
type Sweeper interface {
	SweepStartedSessions(ctx context.Context, now time.Time) (dto.SweepResult, error)
}

// RunSweepOnce: satu putaran sweep dengan timeout sendiri.
func RunSweepOnce(s Sweeper, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := s.SweepStartedSessions(ctx, time.Now())
	if err != nil {
		log.Printf("[SWEEP ERROR] Gagal ambil reservasi PENDING: %v", err)
		return
	}
	if res.Scanned == 0 {
		return
	}
	log.Printf("[SWEEP] scanned=%d rejected=%d failed=%d", res.Scanned, res.Rejected, res.Failed)
}

// StartSweepScheduler: reservasi PENDING yang sesinya sudah mulai → REJECTED.
// Caller wajib memanggil Stop() saat shutdown.
func StartSweepScheduler(s Sweeper, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = "@every 5m"
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc(schedule, func() { RunSweepOnce(s, time.Minute) }); err != nil {
		return nil, err
	}
	log.Printf("[SWEEP] started schedule=%q", schedule)
	c.Start()
	return c, nil
}
