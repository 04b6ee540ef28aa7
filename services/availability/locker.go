package availability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// GuideLocker serializes availability writers per guide.
type GuideLocker interface {
	Lock(ctx context.Context, guideID string) (unlock func(), err error)
}

// LocalLocker serializes writers inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*guideLock
}

type guideLock struct {
	slot chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*guideLock)}
}

func (l *LocalLocker) Lock(ctx context.Context, guideID string) (func(), error) {
	l.mu.Lock()
	gl, ok := l.locks[guideID]
	if !ok {
		gl = &guideLock{slot: make(chan struct{}, 1)}
		l.locks[guideID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	select {
	case gl.slot <- struct{}{}:
	case <-ctx.Done():
		l.release(guideID, gl)
		return nil, fmt.Errorf("waiting for guide %s lock: %w", guideID, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-gl.slot
			l.release(guideID, gl)
		})
	}, nil
}

func (l *LocalLocker) release(guideID string, gl *guideLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	gl.refs--
	if gl.refs == 0 {
		delete(l.locks, guideID)
	}
}

// RedisLocker serializes writers across processes with a SETNX lease.
// The lease expires after TTL so a crashed holder cannot wedge a guide.
type RedisLocker struct {
	Client        *redis.Client
	TTL           time.Duration
	RetryInterval time.Duration
}

const guideLockPrefix = "lock:guide-availability:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{Client: client, TTL: ttl, RetryInterval: 25 * time.Millisecond}
}

func (l *RedisLocker) Lock(ctx context.Context, guideID string) (func(), error) {
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	interval := l.RetryInterval
	if interval <= 0 {
		interval = 25 * time.Millisecond
	}

	key := guideLockPrefix + guideID
	token := uuid.New().String()
	for {
		ok, err := l.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire guide %s lock: %w", guideID, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("waiting for guide %s lock: %w", guideID, ctx.Err())
		case <-timer.C:
		}
		if interval < 200*time.Millisecond {
			interval *= 2
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be done; release on a fresh one.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, l.Client, []string{key}, token).Err()
		})
	}, nil
}
