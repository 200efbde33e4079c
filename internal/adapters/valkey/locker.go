package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const keyPrefix = "gpxcorpus:lock:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements ports.Locker with SET NX PX leases, so writers on
// different API instances exclude each other.
type Locker struct {
	client valkey.Client
	ttl    time.Duration
	retry  time.Duration
}

// New connects to Valkey. ttl bounds how long a crashed holder blocks others.
func New(addr string, ttl time.Duration) (*Locker, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl, retry: 50 * time.Millisecond}, nil
}

// Lock polls until the lease is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	k := keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.tryAcquire(ctx, k, token)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// release even if the caller's ctx is already cancelled
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Exec(rctx, l.client, []string{k}, []string{token}).Error()
	}, nil
}

func (l *Locker) tryAcquire(ctx context.Context, key, token string) (bool, error) {
	cmd := l.client.Do(ctx,
		l.client.B().Set().Key(key).Value(token).Nx().PxMilliseconds(l.ttl.Milliseconds()).Build(),
	)
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("valkey set nx: %w", err)
	}
	return true, nil
}

// Ping checks connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Do(ctx, l.client.B().Ping().Build()).Error()
}

// Close releases the client.
func (l *Locker) Close() {
	l.client.Close()
}
