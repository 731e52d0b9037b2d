package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/messages"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/worker"
	"github.com/vgarvardt/gue/v5"
)

// Runner runs transcript jobs
type Runner interface {
	RunOnce(ctx context.Context) (*persistence.RunSummary, error)
	RunManually(ctx context.Context, job string) (*persistence.RunSummary, error)
}

// ServiceData keeps data required for queue service work
type ServiceData struct {
	GueClient   *gue.Client
	WorkerCount int
	Runner      Runner
	RunTimeout  time.Duration
	Testing     bool
}

// StartTicker calls RunOnce on start and then every interval until ctx is canceled,
// each run is limited by runTimeout
func StartTicker(ctx context.Context, runner Runner, every, runTimeout time.Duration) (<-chan struct{}, error) {
	if runner == nil {
		return nil, fmt.Errorf("no runner")
	}
	if every <= 0 {
		return nil, fmt.Errorf("wrong schedule interval %v", every)
	}
	if runTimeout <= 0 {
		return nil, fmt.Errorf("wrong run timeout %v", runTimeout)
	}
	goapp.Log.Info().Str("component", "schedule").Dur("every", every).Msg("Starting scheduled runs")
	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		tickLoop(ctx, runner, every, runTimeout)
	}()
	return res, nil
}

func tickLoop(ctx context.Context, runner Runner, every, runTimeout time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	runScheduled(ctx, runner, runTimeout)
	for {
		select {
		case <-ticker.C:
			runScheduled(ctx, runner, runTimeout)
		case <-ctx.Done():
			goapp.Log.Info().Str("component", "schedule").Msg("Stopped scheduled runs")
			return
		}
	}
}

func runScheduled(ctx context.Context, runner Runner, runTimeout time.Duration) {
	ctx, cf := context.WithTimeout(ctx, runTimeout)
	defer cf()
	if _, err := runner.RunOnce(ctx); err != nil {
		goapp.Log.Error().Err(err).Str("component", "schedule").Msg("scheduled run failed")
	}
}

// StartQueueService starts listening for manual run requests,
// returns channel for tracking if all jobs are finished
func StartQueueService(ctx context.Context, data *ServiceData) (<-chan struct{}, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	goapp.Log.Info().Int("workers", data.WorkerCount).Msg("Starting listen for messages")
	if data.Testing {
		goapp.Log.Warn().Msg("SERVICE IN TEST MODE")
	}
	opts := defaultOpts().withTimeout(data.RunTimeout).withBackoff(backoffOrTest(data.Testing))
	if err := checkOpts(opts); err != nil {
		return nil, err
	}
	wm := gue.WorkMap{
		messages.Run: createHandler(data, handleRun, opts),
	}
	pool, err := gue.NewWorkerPool(
		data.GueClient, wm, data.WorkerCount,
		gue.WithPoolQueue(messages.Run),
		gue.WithPoolLogger(newGueLoggerAdapter()),
		gue.WithPoolPollInterval(500*time.Millisecond),
		gue.WithPoolPollStrategy(gue.RunAtPollStrategy),
		gue.WithPoolID("podscript-run"),
	)
	if err != nil {
		return nil, fmt.Errorf("could not build gue workers pool: %w", err)
	}
	res := make(chan struct{}, 1)
	go func() {
		defer close(res)
		goapp.Log.Info().Msg("Starting workers")
		if err := pool.Run(ctx); err != nil {
			goapp.Log.Error().Err(err).Msg("pool error")
		}
		goapp.Log.Info().Msg("Pool workers finished")
	}()
	return res, nil
}

func handleRun(ctx context.Context, m *messages.RunMessage, data *ServiceData) error {
	goapp.Log.Info().Str("component", "schedule").Str("job", m.Job).Str("ID", m.ID).Msg("handling run request")
	s, err := data.Runner.RunManually(ctx, m.Job)
	if err != nil {
		if errors.Is(err, worker.ErrUnknownJob) {
			goapp.Log.Warn().Err(err).Str("job", m.Job).Msg("skip")
			return nil
		}
		return fmt.Errorf("can't run %s: %w", m.Job, err)
	}
	goapp.Log.Info().Str("component", "schedule").Str("job", m.Job).Str("runID", s.RunID).Msg("run request done")
	return nil
}

func validate(data *ServiceData) error {
	if data == nil {
		return fmt.Errorf("no data")
	}
	if data.GueClient == nil {
		return fmt.Errorf("no gue client")
	}
	if data.WorkerCount < 1 {
		return fmt.Errorf("no worker count provided")
	}
	if data.Runner == nil {
		return fmt.Errorf("no runner")
	}
	return nil
}
