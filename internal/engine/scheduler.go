package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tacticbot/internal/broker"
	"tacticbot/internal/config"
)

type TurnRunner interface {
	RunTurn(ctx context.Context, tactic config.TacticConfig) error
}

// Scheduler runs one tactic per turn, round robin, sleeping the configured
// interval between turns. A failing tactic never stops the loop.
type Scheduler struct {
	runner   TurnRunner
	tactics  []config.TacticConfig
	interval time.Duration
	cursor   int
	logger   *zap.Logger
}

func NewScheduler(cfg config.File, runner TurnRunner, logger *zap.Logger) (*Scheduler, error) {
	if len(cfg.Tactics) == 0 {
		return nil, config.ErrNoTactics
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		runner:   runner,
		tactics:  cfg.Tactics,
		interval: cfg.Interval,
		logger:   logger,
	}, nil
}

// Step runs the tactic under the cursor and advances it.
func (s *Scheduler) Step(ctx context.Context) {
	tactic := s.tactics[s.cursor]
	s.cursor = (s.cursor + 1) % len(s.tactics)

	if err := s.runner.RunTurn(ctx, tactic); err != nil {
		s.logger.Error("tactic turn failed", zap.String("tactic", tactic.Name), zap.Error(err))
	}
}

// Run loops until ctx is cancelled and then returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", zap.Int("tactics", len(s.tactics)), zap.Duration("interval", s.interval))
	for {
		s.Step(ctx)
		if err := broker.WaitForContext(ctx, s.interval); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				s.logger.Info("scheduler stopped")
				return nil
			}
			return err
		}
	}
}
