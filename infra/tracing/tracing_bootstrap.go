package tracing

import (
	"io"

	jaegercfg "github.com/uber/jaeger-client-go/config"
	"github.com/uber/jaeger-lib/metrics"
)

// Bootstrap installs the global jaeger tracer, configured from JAEGER_*
// environment variables (JAEGER_AGENT_HOST, JAEGER_SAMPLER_TYPE, ...).
func Bootstrap(serviceName string) (io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	return cfg.InitGlobalTracer(cfg.ServiceName, jaegercfg.Metrics(metrics.NullFactory))
}
