package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/podscript/internal/pkg/budget"
	"github.com/airenas/podscript/internal/pkg/config"
	"github.com/airenas/podscript/internal/pkg/persistence"
	"github.com/airenas/podscript/internal/pkg/status"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// JobTranscripts is the only job name
const JobTranscripts = "transcripts"

// ErrUnknownJob is returned by RunManually for a wrong job name
var ErrUnknownJob = errors.New("unknown job")

// EpisodeSource loads run candidates
type EpisodeSource interface {
	FetchEligible(ctx context.Context, sel *persistence.Selection) ([]*persistence.Episode, error)
}

// RunLock is a cross instance mutex held for a whole run
type RunLock interface {
	TryLock(ctx context.Context) (func() error, bool, error)
}

// Resolver resolves and persists one episode
type Resolver interface {
	Resolve(ctx context.Context, ep *persistence.Episode, b *budget.RunBudget) *persistence.Outcome
}

// ServiceData keeps data required for service work
type ServiceData struct {
	Source   EpisodeSource
	Lock     RunLock
	Resolver Resolver
	Config   *config.Config
	// Metrics is optional
	Metrics *Metrics
}

// Coordinator runs transcript batches
type Coordinator struct {
	data    *ServiceData
	state   atomic.Int32
	running sync.Mutex
}

// NewCoordinator creates coordinator
func NewCoordinator(data *ServiceData) (*Coordinator, error) {
	if err := validate(data); err != nil {
		return nil, err
	}
	return &Coordinator{data: data}, nil
}

// State returns current run state
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// RunOnce is the scheduled entry point, does nothing when runs are disabled
func (c *Coordinator) RunOnce(ctx context.Context) (*persistence.RunSummary, error) {
	if !c.data.Config.Enabled {
		goapp.Log.Info().Str("component", "worker").Msg("transcript runs disabled, skip")
		return &persistence.RunSummary{Job: JobTranscripts, Started: time.Now()}, nil
	}
	return c.run(ctx, JobTranscripts)
}

// RunManually runs a job outside the schedule
func (c *Coordinator) RunManually(ctx context.Context, job string) (*persistence.RunSummary, error) {
	if job != JobTranscripts {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownJob, job)
	}
	return c.run(ctx, job)
}

func (c *Coordinator) run(ctx context.Context, job string) (res *persistence.RunSummary, err error) {
	res = &persistence.RunSummary{RunID: uuid.NewString(), Job: job, Started: time.Now(),
		FailedByCategory: map[string]int{}}
	if !c.running.TryLock() {
		goapp.Log.Info().Str("component", "worker").Str("runID", res.RunID).Msg("run in progress, skip")
		res.LockSkipped = true
		return res, nil
	}
	defer c.running.Unlock()
	defer func() {
		res.Elapsed = time.Since(res.Started)
		if err != nil {
			c.setState(Failed)
			goapp.Log.Error().Err(err).Str("component", "worker").Str("runID", res.RunID).Msg("run failed")
		} else {
			c.setState(Completed)
		}
		logSummary(res)
		c.data.Metrics.observe(res, err)
	}()

	c.setState(LockAcquiring)
	if c.data.Config.UseAdvisoryLock {
		release, ok, errL := c.data.Lock.TryLock(ctx)
		if errL != nil {
			return res, fmt.Errorf("can't acquire run lock: %w", errL)
		}
		if !ok {
			goapp.Log.Info().Str("component", "worker").Str("runID", res.RunID).Msg("run lock held by other instance, skip")
			res.LockSkipped = true
			return res, nil
		}
		defer func() {
			if errR := release(); errR != nil {
				err = multierr.Append(err, fmt.Errorf("can't release run lock: %w", errR))
			}
		}()
	}

	c.setState(Loading)
	sel := c.data.Config.Selection()
	eps, err := c.data.Source.FetchEligible(ctx, sel)
	if err != nil {
		return res, fmt.Errorf("can't load episodes: %w", err)
	}
	res.Candidates = len(eps)
	goapp.Log.Info().Str("component", "worker").Str("runID", res.RunID).Int("candidates", len(eps)).
		Bool("override", sel.Override).Msg("loaded")

	c.setState(Processing)
	b := budget.New(c.data.Config.MaxRequests, c.data.Config.MaxFallbacksPerRun)
	err = c.process(ctx, eps, b, res)

	c.setState(Persisting)
	bs := b.Snapshot()
	res.APICalls = bs.APICallsMade
	res.Credits = bs.Credits
	return res, err
}

// process resolves episodes with a bounded pool, each worker persists its own outcomes
func (c *Coordinator) process(ctx context.Context, eps []*persistence.Episode, b *budget.RunBudget,
	res *persistence.RunSummary) error {
	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan *persistence.Episode)
	outcomes := make(chan *persistence.Outcome)
	var errLock sync.Mutex
	var runErr error

	workers := c.data.Config.Concurrency
	if workers > len(eps) {
		workers = len(eps)
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ep := range jobs {
				o, err := c.resolve(ctx, ep, b)
				if err != nil {
					errLock.Lock()
					runErr = multierr.Append(runErr, err)
					errLock.Unlock()
					cancel()
					continue
				}
				outcomes <- o
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, ep := range eps {
			select {
			case jobs <- ep:
			case <-feedCtx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for o := range outcomes {
		add(res, o)
	}
	if runErr != nil {
		return runErr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", ctx.Err())
	}
	return nil
}

func (c *Coordinator) resolve(ctx context.Context, ep *persistence.Episode, b *budget.RunBudget) (res *persistence.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic resolving %s: %v", ep.ID, r)
		}
	}()
	res = c.data.Resolver.Resolve(ctx, ep, b)
	if res == nil {
		return nil, fmt.Errorf("no outcome for %s", ep.ID)
	}
	return res, nil
}

func add(res *persistence.RunSummary, o *persistence.Outcome) {
	res.Processed++
	if o.ASRInvoked {
		res.FallbackInvoked++
	}
	if o.Status == status.Done {
		res.Succeeded++
		return
	}
	res.Failed++
	res.FailedByCategory[o.ErrCategory.String()]++
}

func logSummary(res *persistence.RunSummary) {
	goapp.Log.Info().Str("component", "worker").Str("runID", res.RunID).Str("job", res.Job).
		Bool("lockSkipped", res.LockSkipped).Int("candidates", res.Candidates).Int("processed", res.Processed).
		Int("succeeded", res.Succeeded).Int("fallbackInvoked", res.FallbackInvoked).Int("failed", res.Failed).
		Interface("failedByCategory", res.FailedByCategory).Int("apiCalls", res.APICalls).
		Int("credits", res.Credits).Dur("elapsed", res.Elapsed).Msg("run summary")
}

func (c *Coordinator) setState(st State) {
	c.state.Store(int32(st))
}

func validate(data *ServiceData) error {
	if data == nil {
		return fmt.Errorf("no data")
	}
	if data.Source == nil {
		return fmt.Errorf("no episode source")
	}
	if data.Resolver == nil {
		return fmt.Errorf("no resolver")
	}
	if data.Config == nil {
		return fmt.Errorf("no config")
	}
	if err := data.Config.Validate(); err != nil {
		return err
	}
	if data.Config.UseAdvisoryLock && data.Lock == nil {
		return fmt.Errorf("no run lock")
	}
	return nil
}
