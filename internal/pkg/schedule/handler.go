package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/vgarvardt/gue/v5"
)

type handlerOpts struct {
	backoff    gue.Backoff
	timeout    time.Duration
	maxRetries int32
}

func defaultOpts() *handlerOpts {
	return &handlerOpts{timeout: time.Hour, backoff: defaultBackoff(), maxRetries: 3}
}

func (o *handlerOpts) withBackoff(b gue.Backoff) *handlerOpts {
	o.backoff = b
	return o
}

func (o *handlerOpts) withTimeout(timeout time.Duration) *handlerOpts {
	o.timeout = timeout
	return o
}

// createHandler wraps a typed message handler into gue work func.
// A failed job is rescheduled with backoff until maxRetries, a malformed message is dropped.
func createHandler[TM any, SD any](data *SD, hf func(context.Context, *TM, *SD) error, opts *handlerOpts) gue.WorkFunc {
	return func(ctx context.Context, j *gue.Job) error {
		goapp.Log.Info().Str("queue", j.Queue).Str("type", j.Type).Int32("errCount", j.ErrorCount).Msg("got msg")
		var m TM
		if err := json.Unmarshal(j.Args, &m); err != nil {
			goapp.Log.Error().Err(err).Str("queue", j.Queue).Msg("could not unmarshal message, drop")
			return nil
		}
		wrkCtx, cf := context.WithTimeout(ctx, opts.timeout)
		defer cf()
		err := hf(wrkCtx, &m, data)
		if err == nil {
			return nil
		}
		if j.ErrorCount >= opts.maxRetries {
			goapp.Log.Error().Err(err).Str("queue", j.Queue).Int32("errCount", j.ErrorCount).Msg("msg failed, will not retry")
			return nil
		}
		delay := opts.backoff(int(j.ErrorCount + 1))
		goapp.Log.Warn().Err(err).Str("queue", j.Queue).Dur("after", delay).Msg("retry after")
		return gue.ErrRescheduleJobIn(delay, err.Error())
	}
}

func defaultBackoff() gue.Backoff {
	return func(retries int) time.Duration {
		return fullJitter(time.Duration(retries) * time.Minute)
	}
}

func noBackoff() gue.Backoff {
	return func(retries int) time.Duration {
		return 0
	}
}

// fullJitter return randomized duration in interval [0, t)
func fullJitter(t time.Duration) time.Duration {
	return time.Duration(float64(t) * rand.Float64())
}

func backoffOrTest(test bool) gue.Backoff {
	if test {
		return noBackoff()
	}
	return defaultBackoff()
}

func checkOpts(o *handlerOpts) error {
	if o.timeout <= 0 {
		return fmt.Errorf("no timeout")
	}
	if o.backoff == nil {
		return fmt.Errorf("no backoff")
	}
	return nil
}
