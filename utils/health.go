package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Storage   string    `json:"storage"`
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthMonitor keeps the latest probe results for the health route.
type HealthMonitor struct {
	storage  string
	redis    []*redis.Client
	mongo    *mongo.Client
	interval time.Duration

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(storage string, redisClients []*redis.Client, mongoClient *mongo.Client, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &HealthMonitor{
		storage:  storage,
		redis:    redisClients,
		mongo:    mongoClient,
		interval: interval,
		current:  HealthStatus{Storage: storage, Redis: []bool{}},
	}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check probes every dependency once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	redisHealth := make([]bool, 0, len(m.redis))
	for _, client := range m.redis {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		redisHealth = append(redisHealth, client.Ping(pctx).Err() == nil)
		cancel()
	}

	status := HealthStatus{Storage: m.storage, Redis: redisHealth, CheckedAt: time.Now().UTC()}
	if m.mongo != nil {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		ok := m.mongo.Ping(pctx, nil) == nil
		cancel()
		status.Mongo = &ok
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start runs Check periodically until ctx is cancelled.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
