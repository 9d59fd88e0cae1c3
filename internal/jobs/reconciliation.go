package jobs

import (
	"context"
	"time"

	"expohall/internal/logger"
	"expohall/internal/repository"
)

// StandReconciliation periodically frees stands whose holding
// registration has been cancelled or deleted. Stand selection never
// auto-releases dropped stands, so this job is the backstop that
// returns them to inventory.
type StandReconciliation struct {
	stands   *repository.StandRepository
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewStandReconciliation(stands *repository.StandRepository, interval time.Duration) *StandReconciliation {
	return &StandReconciliation{
		stands:   stands,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the reconciliation loop until Stop is called.
func (j *StandReconciliation) Start() {
	go func() {
		defer close(j.done)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		logger.Get().Info("Stand reconciliation job started", "interval", j.interval)

		for {
			select {
			case <-ticker.C:
				j.run()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the current pass.
func (j *StandReconciliation) Stop() {
	close(j.stop)
	<-j.done
	logger.Get().Info("Stand reconciliation job stopped")
}

func (j *StandReconciliation) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stands, err := j.stands.ListOrphaned(ctx)
	if err != nil {
		logger.Get().Error("Failed to list orphaned stands", "error", err)
		return
	}
	if len(stands) == 0 {
		return
	}

	released := 0
	for _, stand := range stands {
		if err := j.stands.Free(ctx, stand.ID); err != nil {
			logger.Get().Error("Failed to free orphaned stand",
				"error", err,
				"stand_id", stand.ID)
			continue
		}
		released++
	}

	logger.Get().Info("Reconciled orphaned stands",
		"found", len(stands),
		"released", released)
}
