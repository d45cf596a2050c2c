package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "paramsearch/driver"

// startSpan opens a span for one backend round trip. The returned func
// records the duration under "<system>.duration_ms", marks the span failed
// when err is non-nil, ends it, and hands err back.
func startSpan(ctx context.Context, system, op string, attrs ...attribute.KeyValue) (context.Context, func(err error) error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, system+"."+op)
	span.SetAttributes(attrs...)
	start := time.Now()

	return ctx, func(err error) error {
		defer span.End()
		span.SetAttributes(attribute.Float64(system+".duration_ms", float64(time.Since(start).Milliseconds())))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

func stringifyCmd(args []interface{}) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(toString(a))
	}
	return sb.String()
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
