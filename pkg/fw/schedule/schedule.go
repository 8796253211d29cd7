// Package schedule re-runs a job at a fixed interval for watch mode.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/komsit37/fundwl/pkg/fw/logging"
)

// Job is one run. Its context is cancelled after one interval.
type Job func(ctx context.Context) error

// Spec returns the cron spec for interval, e.g. "@every 30s".
func Spec(interval time.Duration) string {
	return fmt.Sprintf("@every %s", interval)
}

// Run calls job immediately and then every interval until ctx is done. A run
// still in progress when the next one is due makes that one skip. Job errors
// are logged, not returned.
func Run(ctx context.Context, interval time.Duration, job Job) error {
	if interval < time.Second {
		return fmt.Errorf("schedule: interval %s below 1s", interval)
	}
	log := cronLogger{logging.L().Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)), cron.WithLogger(log))

	run := func() {
		jctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		start := time.Now()
		if err := job(jctx); err != nil {
			logging.L().Warn("scheduled run failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
			return
		}
		logging.L().Debug("scheduled run done", zap.Duration("elapsed", time.Since(start)))
	}
	if _, err := c.AddFunc(Spec(interval), run); err != nil {
		return fmt.Errorf("schedule %s: %w", Spec(interval), err)
	}

	run()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
