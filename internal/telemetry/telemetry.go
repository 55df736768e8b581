// Package telemetry publishes per-frame render statistics (the FPS value the
// caller supplies, drummer overrun count, egress/pool error counts) to a Redis counter set
// for live dashboards and an InfluxDB bucket for historical query.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/freyr-engine/freyr/internal/logger"
)

// Config holds Redis and InfluxDB connection settings plus the publish
// cadence. Either backend may be left unconfigured (empty Addr/URL), in
// which case Publisher skips it silently.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	Measurement  string

	// FlushInterval batches frame samples before writing; zero publishes
	// every sample immediately.
	FlushInterval time.Duration
}

// Sample is one frame's worth of render statistics.
type Sample struct {
	FPS        float64
	Overrun    int
	EgressErrs int
	PoolErrs   int
	Timestamp  time.Time
}

// Publisher fans frame samples out to Redis (latest-value counters for
// dashboards) and InfluxDB (time-series history for query). Either target
// may be nil; Publish is then a no-op for that side.
type Publisher struct {
	redis  *redis.Client
	influx influxdb2.Client

	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI

	prefix      string
	measurement string

	mu       sync.Mutex
	lastFlux time.Time
	interval time.Duration
}

// NewPublisher opens connections to whichever of Redis/InfluxDB are
// configured and verifies each with a health check. A zero-value field for
// a backend's address/URL disables that backend without error.
func NewPublisher(cfg Config) (*Publisher, error) {
	p := &Publisher{
		prefix:      cfg.KeyPrefix,
		measurement: cfg.Measurement,
		interval:    cfg.FlushInterval,
	}
	if p.prefix == "" {
		p.prefix = "freyr:telemetry"
	}
	if p.measurement == "" {
		p.measurement = "frame"
	}

	if cfg.RedisAddr != "" {
		p.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("telemetry: redis ping failed: %w", err)
		}
	}

	if cfg.InfluxURL != "" {
		p.influx = influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
		p.writeAPI = p.influx.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket)
		p.queryAPI = p.influx.QueryAPI(cfg.InfluxOrg)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		health, err := p.influx.Health(ctx)
		if err != nil {
			p.influx.Close()
			return nil, fmt.Errorf("telemetry: influxdb health check failed: %w", err)
		}
		if health.Status != "pass" {
			p.influx.Close()
			return nil, fmt.Errorf("telemetry: influxdb unhealthy: %s", health.Status)
		}
	}

	return p, nil
}

// Publish records one frame sample. Redis receives the latest values under
// fixed keys (cheap reads for a live dashboard); InfluxDB receives an
// appended point (history for query). Errors from either backend are
// logged, not returned, matching an orchestrator.FrameObserver's signature
// of never blocking the frame loop on a telemetry hiccup.
func (p *Publisher) Publish(s Sample) {
	if s.Timestamp.IsZero() {
		s.Timestamp = time.Now()
	}

	if p.redis != nil {
		p.publishRedis(s)
	}
	if p.writeAPI != nil {
		p.publishInflux(s)
	}
}

func (p *Publisher) publishRedis(s Sample) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := p.redis.Pipeline()
	pipe.Set(ctx, p.prefix+":fps", s.FPS, 0)
	pipe.Set(ctx, p.prefix+":overrun", s.Overrun, 0)
	pipe.Set(ctx, p.prefix+":egress_errs", s.EgressErrs, 0)
	pipe.Set(ctx, p.prefix+":pool_errs", s.PoolErrs, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Get().Warn("telemetry redis publish failed", zap.Error(err))
	}
}

func (p *Publisher) publishInflux(s Sample) {
	point := write.NewPoint(
		p.measurement,
		nil,
		map[string]interface{}{
			"fps":         s.FPS,
			"overrun":     s.Overrun,
			"egress_errs": s.EgressErrs,
			"pool_errs":   s.PoolErrs,
		},
		s.Timestamp,
	)

	p.mu.Lock()
	due := p.interval == 0 || time.Since(p.lastFlux) >= p.interval
	if due {
		p.lastFlux = s.Timestamp
	}
	p.mu.Unlock()
	if !due {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.writeAPI.WritePoint(ctx, point); err != nil {
		logger.Get().Warn("telemetry influx publish failed", zap.Error(err))
	}
}

// Query runs a Flux query against the configured InfluxDB bucket, returning
// raw result rows as field maps. Used by the diagnostics HTTP transport to
// serve historical FPS charts.
func (p *Publisher) Query(ctx context.Context, flux string) ([]map[string]interface{}, error) {
	if p.queryAPI == nil {
		return nil, fmt.Errorf("telemetry: influxdb not configured")
	}
	result, err := p.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("telemetry: query failed: %w", err)
	}
	defer result.Close()

	var rows []map[string]interface{}
	for result.Next() {
		rows = append(rows, result.Record().Values())
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("telemetry: query iteration failed: %w", result.Err())
	}
	return rows, nil
}

// Close releases both backend connections. Safe to call even if a backend
// was never configured.
func (p *Publisher) Close() {
	if p.redis != nil {
		p.redis.Close()
	}
	if p.influx != nil {
		p.influx.Close()
	}
}

// Observer adapts Publish to an orchestrator.FrameObserver. fps is computed
// by the caller (Drummer knows the configured interval; frame-to-frame
// elapsed time is not tracked here) and passed in via a closure, since the
// frame-loop signature carries only overrun and error counts.
func (p *Publisher) Observer(fps func() float64) func(overrun int, egressErrs, poolErrs []error) {
	return func(overrun int, egressErrs, poolErrs []error) {
		p.Publish(Sample{
			FPS:        fps(),
			Overrun:    overrun,
			EgressErrs: len(egressErrs),
			PoolErrs:   len(poolErrs),
		})
	}
}
