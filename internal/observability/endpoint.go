package observability

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/swimform/swimform-go/internal/conf"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	metricspkg "github.com/swimform/swimform-go/internal/observability/metrics"
)

const readHeaderTimeout = 10 * time.Second

// Endpoint serves /metrics, and pprof when debug is on, on its own listener.
type Endpoint struct {
	listenAddress string
	debug         bool
	metrics       *Metrics
	log           logger.Logger
}

// NewEndpoint creates an Endpoint. It fails when metrics are disabled in
// settings.
func NewEndpoint(settings *conf.MetricsSettings, metrics *Metrics) (*Endpoint, error) {
	if settings == nil || !settings.Enabled {
		return nil, errors.Newf("metrics endpoint not enabled in settings").
			Component("observability").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &Endpoint{
		listenAddress: settings.Listen,
		debug:         settings.Debug,
		metrics:       metrics,
		log:           GetLogger(),
	}, nil
}

// Handler returns the endpoint's routes.
func (e *Endpoint) Handler() http.Handler {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	if e.debug {
		RegisterDebugHandlers(mux)
	}
	return mux
}

// Run serves until ctx is done, then shuts down gracefully.
func (e *Endpoint) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              e.listenAddress,
		Handler:           e.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("metrics endpoint starting", logger.String("address", e.listenAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryNetwork).
			Context("address", e.listenAddress).
			Build()
	case <-ctx.Done():
	}

	e.log.Info("stopping metrics endpoint")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		e.log.Error("metrics endpoint shutdown error", logger.Error(err))
		return err
	}
	return nil
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
