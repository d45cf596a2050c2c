// Package driver holds the executors the query builders run against:
// a go-redis RediSearch connection, a rueidis alternative, and a
// database/sql connection. Every call opens an OpenTelemetry span.
//
// Usage:
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	conn := driver.NewRedisearchConn(rdb)
//	rows, total, err := b.Search("post_idx").Using(conn).Run(ctx)
package driver

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

// Executor sends one raw command (FT.SEARCH, FT.AGGREGATE, FT.CREATE, ...)
// and returns the decoded reply.
type Executor interface {
	Do(ctx context.Context, args ...interface{}) (any, error)
}

// Pipeliner sends a batch of commands in one round trip. A failed command
// leaves its *Error in place of the reply; the returned error is reserved
// for failures of the batch as a whole.
type Pipeliner interface {
	Pipeline(ctx context.Context, cmds [][]interface{}) ([]any, error)
}

var (
	_ Executor  = (*RedisearchConn)(nil)
	_ Executor  = (*RueidisConn)(nil)
	_ Pipeliner = (*RedisearchConn)(nil)
	_ Pipeliner = (*RueidisConn)(nil)
)

// RedisearchConn implements Executor on top of a go-redis client.
type RedisearchConn struct {
	client redis.UniversalClient
}

// NewRedisearchConn wraps an existing go-redis client.
func NewRedisearchConn(c redis.UniversalClient) *RedisearchConn {
	return &RedisearchConn{client: c}
}

// Do satisfies the Executor interface.
func (rc *RedisearchConn) Do(ctx context.Context, args ...interface{}) (any, error) {
	ctx, done := startSpan(ctx, "redis", "do", attribute.String("redis.cmd", stringifyCmd(args)))
	res, err := rc.client.Do(ctx, args...).Result()
	if done(err) != nil {
		return nil, redisError(args, err)
	}
	return res, nil
}

// Pipeline satisfies the Pipeliner interface.
func (rc *RedisearchConn) Pipeline(ctx context.Context, cmds [][]interface{}) ([]any, error) {
	ctx, done := startSpan(ctx, "redis", "pipeline", attribute.Int("redis.pipeline.size", len(cmds)))

	pipe := rc.client.Pipeline()
	results := make([]*redis.Cmd, len(cmds))
	for i, cmd := range cmds {
		results[i] = pipe.Do(ctx, cmd...)
	}
	// Exec reports the first command error; every command's own error is
	// collected below.
	_, _ = pipe.Exec(ctx)

	out := make([]any, len(results))
	var failed error
	for i, r := range results {
		if err := r.Err(); err != nil {
			out[i] = redisError(cmds[i], err)
			if failed == nil {
				failed = err
			}
			continue
		}
		out[i] = r.Val()
	}
	_ = done(failed)
	return out, nil
}

// Close conveniently closes the underlying client.
func (rc *RedisearchConn) Close() error { return rc.client.Close() }
