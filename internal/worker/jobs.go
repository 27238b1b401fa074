package worker

import (
	"context"
	"log/slog"
)

// Sweeper deletes pending pulses whose window has lapsed.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

type PulseSweepJob struct {
	sweeper  Sweeper
	schedule string
}

func NewPulseSweepJob(sweeper Sweeper, schedule string) *PulseSweepJob {
	return &PulseSweepJob{sweeper: sweeper, schedule: schedule}
}

func (j *PulseSweepJob) Name() string     { return "pulse-sweep" }
func (j *PulseSweepJob) Schedule() string { return j.schedule }

func (j *PulseSweepJob) Run(ctx context.Context) error {
	removed, err := j.sweeper.SweepExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		slog.Info("expired pulses swept", "removed", removed)
	}
	return nil
}
