package postgres

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLock is a run lock backed by a postgres session advisory lock.
// The lock lives on a dedicated connection, so it is released by the server if the process dies.
type AdvisoryLock struct {
	pool *pgxpool.Pool
	name string
	key  int64
}

// NewAdvisoryLock creates lock for name
func NewAdvisoryLock(pool *pgxpool.Pool, name string) (*AdvisoryLock, error) {
	if pool == nil {
		return nil, fmt.Errorf("no pool")
	}
	if name == "" {
		return nil, fmt.Errorf("no lock name")
	}
	return &AdvisoryLock{pool: pool, name: name, key: lockKey(name)}, nil
}

// TryLock tries to get the lock without waiting, returns release func if acquired
func (l *AdvisoryLock) TryLock(ctx context.Context) (func() error, bool, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("can't acquire conn: %w", err)
	}
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, l.key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("can't lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}
	goapp.Log.Debug().Str("component", "lock").Str("name", l.name).Msg("locked")
	return func() error {
		defer conn.Release()
		ctx, cf := context.WithTimeout(context.Background(), time.Second*10)
		defer cf()
		var unlocked bool
		if err := conn.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, l.key).Scan(&unlocked); err != nil {
			// drop the session so the server frees the lock
			_ = conn.Conn().Close(ctx)
			return fmt.Errorf("can't unlock: %w", err)
		}
		if !unlocked {
			return fmt.Errorf("lock '%s' was not held", l.name)
		}
		goapp.Log.Debug().Str("component", "lock").Str("name", l.name).Msg("unlocked")
		return nil
	}, true, nil
}

func lockKey(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
