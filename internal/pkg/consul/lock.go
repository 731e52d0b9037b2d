package consul

import (
	"context"
	"fmt"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/hashicorp/consul/api"
)

// Lock is a run lock backed by a consul session.
// The session has a TTL so a crashed holder frees the key.
type Lock struct {
	consul   *api.Client
	key      string
	ttl      time.Duration
	waitTime time.Duration
}

// NewLock creates consul lock for key
func NewLock(cfg *api.Config, key string, ttl time.Duration) (*Lock, error) {
	if key == "" {
		return nil, fmt.Errorf("no lock key")
	}
	if ttl < 10*time.Second {
		return nil, fmt.Errorf("session TTL %v < 10s", ttl)
	}
	c, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("can't init consul client: %w", err)
	}
	goapp.Log.Info().Str("key", key).Dur("ttl", ttl).Msg("cfg: consul lock")
	return &Lock{consul: c, key: key, ttl: ttl, waitTime: time.Second}, nil
}

// TryLock tries once to get the lock, returns release func if acquired
func (l *Lock) TryLock(ctx context.Context) (func() error, bool, error) {
	lk, err := l.consul.LockOpts(&api.LockOptions{Key: l.key, SessionTTL: l.ttl.String(),
		SessionName: "podscript-run", LockTryOnce: true, LockWaitTime: l.waitTime})
	if err != nil {
		return nil, false, fmt.Errorf("can't prepare lock: %w", err)
	}
	lostCh, err := lk.Lock(ctx.Done())
	if err != nil {
		return nil, false, fmt.Errorf("can't lock: %w", err)
	}
	if lostCh == nil {
		return nil, false, nil
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-lostCh:
			goapp.Log.Warn().Str("component", "lock").Str("key", l.key).Msg("consul lock lost")
		case <-done:
		}
	}()
	return func() error {
		close(done)
		if err := lk.Unlock(); err != nil && err != api.ErrLockNotHeld {
			return fmt.Errorf("can't unlock: %w", err)
		}
		return nil
	}, true, nil
}
