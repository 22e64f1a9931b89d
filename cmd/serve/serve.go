package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/swimform/swimform-go/internal/api"
	"github.com/swimform/swimform-go/internal/config"
	"github.com/swimform/swimform-go/internal/errors"
	"github.com/swimform/swimform-go/internal/logger"
	"github.com/swimform/swimform-go/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve command.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored sessions over HTTP",
		Long:  "Start the read-only REST API for stored sessions and, when enabled, the Prometheus metrics endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), ctx)
		},
	}

	if err := setupFlags(cmd, ctx); err != nil {
		panic(err)
	}
	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, ctx *config.Context) error {
	cmd.Flags().String("listen", "", "API listen address")
	cmd.Flags().Bool("metrics", false, "Enable the Prometheus endpoint")
	cmd.Flags().String("metrics-listen", "", "Prometheus endpoint listen address")

	bindings := map[string]string{
		"listen":         "api.listen",
		"metrics":        "metrics.enabled",
		"metrics-listen": "metrics.listen",
	}
	for name, key := range bindings {
		if err := ctx.Viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

func run(ctx context.Context, app *config.Context) error {
	log := logger.Global().Module("serve")
	settings := app.Settings

	m, err := app.Metrics()
	if err != nil {
		return err
	}
	store, err := app.OpenStore()
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Warn("failed to close session store", logger.Error(err))
			}
		}()
	} else {
		log.Warn("session storage is disabled, the API will serve health only")
	}

	var endpoint *observability.Endpoint
	if settings.Metrics.Enabled {
		if endpoint, err = observability.NewEndpoint(&settings.Metrics, m); err != nil {
			return err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.New(e, store, settings, api.WithMetrics(m.HTTP), api.WithBuildInfo(app.Build))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", logger.String("address", settings.API.Listen))
		if err := e.Start(settings.API.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if endpoint != nil {
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	err = g.Wait()
	log.Info("server stopped")
	return err
}
