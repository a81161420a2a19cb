package tracing

import (
	"context"
	"fmt"
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jCfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"

	"reversion_bot/pkg/logger"
)

type Config struct {
	Enabled bool
	Service string
	Host    string
	Port    int
	// SampleRate in [0,1]; zero samples everything.
	SampleRate float64
}

// Init installs a global Jaeger tracer. With tracing disabled the global no-op
// tracer stays in place and the returned closer does nothing.
func Init(conf Config) (func(), error) {
	if !conf.Enabled {
		return func() {}, nil
	}

	sampler := &jCfg.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}
	if conf.SampleRate > 0 && conf.SampleRate < 1 {
		sampler = &jCfg.SamplerConfig{Type: jaeger.SamplerTypeProbabilistic, Param: conf.SampleRate}
	}

	cfg := &jCfg.Configuration{
		ServiceName: conf.Service,
		Sampler:     sampler,
		Reporter: &jCfg.ReporterConfig{
			LocalAgentHostPort: fmt.Sprintf("%s:%d", conf.Host, conf.Port),
		},
	}

	tracer, closer, err := cfg.NewTracer(jCfg.Metrics(metrics.NullFactory))
	if err != nil {
		return nil, fmt.Errorf("init jaeger tracer: %w", err)
	}

	opentracing.SetGlobalTracer(tracer)
	logger.Info("[TRACING] reporting to %s:%d as %s", conf.Host, conf.Port, conf.Service)
	return closeFunc(closer), nil
}

func closeFunc(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Error("[TRACING] close tracer: %v", err)
		}
	}
}

// TraceID returns the Jaeger trace id of the span in ctx, or "".
func TraceID(ctx context.Context) string {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	sc, ok := span.Context().(jaeger.SpanContext)
	if !ok {
		return ""
	}
	return sc.TraceID().String()
}
