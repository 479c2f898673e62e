// Package grpc serves the gRPC health protocol for the storefront. The status
// follows the dependencies the HTTP API needs to answer requests.
package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported to grpc health clients that ask for a
// specific service instead of the server as a whole.
const ServiceName = "peixeshop.Storefront"

const (
	DefaultCheckInterval = 15 * time.Second
	DefaultCheckTimeout  = 3 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer builds a gRPC server with tracing, the health service and reflection.
func NewServer(checker *HealthChecker) *grpc.Server {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	healthpb.RegisterHealthServer(srv, checker.health)
	reflection.Register(srv)
	return srv
}

// HealthChecker pings every dependency on a ticker and flips the health
// status between SERVING and NOT_SERVING.
type HealthChecker struct {
	health   *health.Server
	checks   map[string]Pinger
	log      logrus.FieldLogger
	interval time.Duration
	timeout  time.Duration

	mu     sync.Mutex
	failed map[string]error

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewHealthChecker(checks map[string]Pinger, log logrus.FieldLogger) *HealthChecker {
	h := &HealthChecker{
		health:   health.NewServer(),
		checks:   checks,
		log:      log.WithField("component", "health"),
		interval: DefaultCheckInterval,
		timeout:  DefaultCheckTimeout,
		failed:   make(map[string]error),
		stop:     make(chan struct{}),
	}
	h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

// Start runs one check right away and then keeps checking until Close.
func (h *HealthChecker) Start(ctx context.Context) {
	h.CheckNow(ctx)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.CheckNow(ctx)
			case <-ctx.Done():
				return
			case <-h.stop:
				return
			}
		}
	}()
}

// CheckNow pings all dependencies once and updates the status.
// It reports whether every dependency answered.
func (h *HealthChecker) CheckNow(ctx context.Context) bool {
	healthy := true
	for name, p := range h.checks {
		pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := p.Ping(pingCtx)
		cancel()

		h.record(name, err)
		if err != nil {
			healthy = false
		}
	}

	if healthy {
		h.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return healthy
}

// record logs only transitions so a long outage produces one line each way.
func (h *HealthChecker) record(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, wasFailing := h.failed[name]
	switch {
	case err != nil && !wasFailing:
		h.failed[name] = err
		h.log.WithError(err).WithField("dependency", name).Warn("dependency unhealthy")
	case err == nil && wasFailing:
		delete(h.failed, name)
		h.log.WithField("dependency", name).Info("dependency recovered")
	}
}

func (h *HealthChecker) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Close stops the check loop and marks the server as shutting down.
func (h *HealthChecker) Close() {
	close(h.stop)
	h.wg.Wait()
	h.health.Shutdown()
}
