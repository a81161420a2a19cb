package runner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"

	"reversion_bot/internal/modules/config"
	"reversion_bot/internal/strategy"
	"reversion_bot/pkg/logger"
)

type schedulerIn struct {
	fx.In

	Config     *config.Config
	Universe   Universe
	Candles    CandleSource
	Evaluator  SignalEvaluator
	Sizer      *RiskSizer
	Placer     *BracketPlacer
	Supervisor *Supervisor
	Account    Account
	Notifier   Notifier
	Journal    Journal
	Heartbeat  Heartbeat `optional:"true"`
	Clock      Clock
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func() Clock { return time.Now },
			NewRiskSizer,
			NewBracketPlacer,
			NewSupervisor,
			func(in schedulerIn) *Scheduler {
				return NewScheduler(SchedulerParams{
					Config:     in.Config,
					Universe:   in.Universe,
					Candles:    in.Candles,
					Evaluator:  in.Evaluator,
					Sizer:      in.Sizer,
					Placer:     in.Placer,
					Supervisor: in.Supervisor,
					Account:    in.Account,
					Notifier:   in.Notifier,
					Journal:    in.Journal,
					Heartbeat:  in.Heartbeat,
					Clock:      in.Clock,
				})
			},
			func(s *Supervisor) strategy.PositionBook { return s },
			func(e *strategy.Evaluator) SignalEvaluator { return e },
		),
		fx.Invoke(RegisterCommands),
		fx.Invoke(runLoop),
	)
}

type loopIn struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Scheduler  *Scheduler
	Supervisor *Supervisor
	Journal    Journal
	Heartbeat  Heartbeat `optional:"true"`
	Clock      Clock
}

// runLoop restores persisted state and runs the scheduler. OnStop lets the current
// cycle finish, bounded by the stop deadline.
func runLoop(in loopIn) {
	stop := make(chan struct{})
	done := make(chan struct{})
	runCtx, cancel := context.WithCancel(context.Background())

	in.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			positions, err := in.Journal.LoadOpen(ctx)
			if err != nil {
				cancel()
				return err
			}
			cooldowns, err := in.Journal.LoadCooldowns(ctx, in.Clock())
			if err != nil {
				cancel()
				return err
			}
			in.Supervisor.Restore(positions, cooldowns)
			if len(positions) > 0 || len(cooldowns) > 0 {
				logger.Info("[RUNNER] restored %d positions, %d cooldowns", len(positions), len(cooldowns))
			}

			go func() {
				defer close(done)
				if in.Heartbeat != nil {
					in.Heartbeat.SetReady(true)
				}
				err := in.Scheduler.Run(runCtx, stop)
				if in.Heartbeat != nil {
					in.Heartbeat.SetReady(false)
				}
				if errors.Is(err, ErrCeilingReached) {
					logger.Warn("[RUNNER] %v, shutting down", err)
					_ = in.Shutdowner.Shutdown(fx.ExitCode(0))
					return
				}
				if err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("[RUNNER] stopped: %v", err)
				}
			}()
			logger.Info("[RUNNER] scan loop started")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			defer cancel()
			select {
			case <-done:
				logger.Info("[RUNNER] scan loop finished")
				return nil
			case <-ctx.Done():
				cancel()
				<-done
				return ctx.Err()
			}
		},
	})
}
