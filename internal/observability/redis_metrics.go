package observability

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentRedisClient adds command counters, latency and a pool saturation
// gauge to client. Instrument registration failures are logged and leave the
// client uninstrumented.
func InstrumentRedisClient(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if logger == nil {
		logger = NewLogger()
	}
	hook, err := newRedisCommandHook(otel.Meter(instrumentationName), client.PoolStats)
	if err != nil {
		logger.Warn("redis instrumentation disabled", "error", err)
		return
	}
	client.AddHook(hook)
}

type redisCommandHook struct {
	commands metric.Int64Counter
	latency  metric.Float64Histogram
}

func newRedisCommandHook(meter metric.Meter, poolStats func() *redis.PoolStats) (*redisCommandHook, error) {
	commands, err := meter.Int64Counter("redis.commands", metric.WithDescription("Redis commands issued by the service"))
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("redis.command.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Redis command latency"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	)
	if err != nil {
		return nil, err
	}
	saturation, err := meter.Float64ObservableGauge("redis.pool.saturation",
		metric.WithUnit("1"),
		metric.WithDescription("Share of pooled Redis connections in use"),
	)
	if err != nil {
		return nil, err
	}
	if _, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := poolStats()
		if stats == nil || stats.TotalConns == 0 {
			return nil
		}
		used := float64(stats.TotalConns-stats.IdleConns) / float64(stats.TotalConns)
		o.ObserveFloat64(saturation, min(max(used, 0), 1))
		return nil
	}, saturation); err != nil {
		return nil, err
	}
	return &redisCommandHook{commands: commands, latency: latency}, nil
}

func (h *redisCommandHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *redisCommandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.record(ctx, strings.ToLower(cmd.Name()), err, time.Since(start))
		return err
	}
}

func (h *redisCommandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.record(ctx, "pipeline", err, time.Since(start))
		return err
	}
}

func (h *redisCommandHook) record(ctx context.Context, command string, err error, d time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", redisOutcome(err)),
	)
	h.commands.Add(ctx, 1, attrs)
	h.latency.Record(ctx, d.Seconds(), attrs)
}

func redisOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, redis.Nil):
		return "nil"
	case strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return "timeout"
	default:
		return "error"
	}
}
