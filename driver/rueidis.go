package driver

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"
	"go.opentelemetry.io/otel/attribute"
)

// RueidisConfig holds connection parameters for NewRueidisConn.
type RueidisConfig struct {
	Addrs    []string
	Username string
	Password string
	DB       int
}

// RueidisConn implements Executor on top of a rueidis client. Replies are
// converted to the same Go shapes go-redis produces, so the scan package
// decodes both.
type RueidisConn struct {
	client rueidis.Client
}

// NewRueidisConn dials a new rueidis client.
func NewRueidisConn(cfg RueidisConfig) (*RueidisConn, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("driver: addrs is required")
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // scan expects the RESP2 FT.SEARCH array layout
	})
	if err != nil {
		return nil, fmt.Errorf("driver: create rueidis client: %w", err)
	}
	return &RueidisConn{client: client}, nil
}

// WrapRueidis adapts an existing client.
func WrapRueidis(c rueidis.Client) *RueidisConn { return &RueidisConn{client: c} }

// Do satisfies the Executor interface.
func (rc *RueidisConn) Do(ctx context.Context, args ...interface{}) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("driver: empty command")
	}
	ctx, done := startSpan(ctx, "redis", "do", attribute.String("redis.cmd", stringifyCmd(args)))
	res, err := rc.client.Do(ctx, rc.build(args)).ToAny()
	if done(err) != nil {
		return nil, redisError(args, err)
	}
	return res, nil
}

// Pipeline satisfies the Pipeliner interface through DoMulti.
func (rc *RueidisConn) Pipeline(ctx context.Context, cmds [][]interface{}) ([]any, error) {
	for _, c := range cmds {
		if len(c) == 0 {
			return nil, fmt.Errorf("driver: empty command in pipeline")
		}
	}
	ctx, done := startSpan(ctx, "redis", "pipeline", attribute.Int("redis.pipeline.size", len(cmds)))

	built := make([]rueidis.Completed, len(cmds))
	for i, c := range cmds {
		built[i] = rc.build(c)
	}
	out := make([]any, len(cmds))
	var failed error
	for i, r := range rc.client.DoMulti(ctx, built...) {
		v, err := r.ToAny()
		if err != nil {
			out[i] = redisError(cmds[i], err)
			if failed == nil {
				failed = err
			}
			continue
		}
		out[i] = v
	}
	_ = done(failed)
	return out, nil
}

func (rc *RueidisConn) build(args []interface{}) rueidis.Completed {
	tokens := make([]string, len(args))
	for i, a := range args {
		tokens[i] = toString(a)
	}
	return rc.client.B().Arbitrary(tokens[0]).Args(tokens[1:]...).Build()
}

// Ping checks connectivity.
func (rc *RueidisConn) Ping(ctx context.Context) error {
	if err := rc.client.Do(ctx, rc.client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("driver: ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (rc *RueidisConn) Close() error {
	rc.client.Close()
	return nil
}
