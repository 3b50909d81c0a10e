package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	gatherer prometheus.Gatherer
}

// NewMetrics registers the RPC metrics on reg. Passing nil uses the
// default registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	m := &Metrics{gatherer: gatherer}

	m.Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "company_rpc_requests_total",
		Help: "Number of company service RPCs by method and status code",
	}, []string{"method", "code"})
	registerer.MustRegister(m.Requests)

	m.Latency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "company_rpc_duration_seconds",
		Help:    "Latency of company service RPCs",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
	registerer.MustRegister(m.Latency)

	return m
}

// UnaryInterceptor records every unary call, including those rejected by
// interceptors further down the chain.
func (m *Metrics) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		started := time.Now()
		resp, err := handler(ctx, req)

		m.Latency.WithLabelValues(info.FullMethod).Observe(time.Since(started).Seconds())
		m.Requests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}

// Handler serves the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
