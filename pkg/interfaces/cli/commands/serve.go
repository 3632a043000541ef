package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/vsinha/monopilot/pkg/application/services/orchestration"
	"github.com/vsinha/monopilot/pkg/infrastructure/events"
	"github.com/vsinha/monopilot/pkg/infrastructure/logger"
	"github.com/vsinha/monopilot/pkg/infrastructure/telemetry"
	"github.com/vsinha/monopilot/pkg/interfaces/rest"
)

// ServeCmd runs the JSON API
type ServeCmd struct {
	// Server configuration
	Listen          string        `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"MONOPILOT_LISTEN"`
	ShutdownTimeout time.Duration `help:"grace period for in-flight requests on shutdown" default:"10s" env:"MONOPILOT_SHUTDOWN_TIMEOUT"`
	Telemetry       bool          `help:"export traces and metrics over OTLP" default:"false" env:"MONOPILOT_TELEMETRY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"MONOPILOT_CORS_ORIGINS"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"MONOPILOT_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`

	// Seed configuration
	Seed    string `help:"directory of CSV seed files imported into a new organization on startup" type:"existingdir" env:"MONOPILOT_SEED"`
	SeedOrg string `help:"name of the organization created for seed data" default:"Demo Bakery" env:"MONOPILOT_SEED_ORG"`
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx = log.WithContext(ctx)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	var metrics *telemetry.Metrics
	if c.Telemetry {
		log.Info().Msg("Telemetry is enabled")
		shutdown, err := telemetry.Init(ctx, "monopilot", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					log.Error().Err(err).Msg("Failed to shutdown telemetry")
				}
			}()
			metrics = telemetry.GetMetrics()
		}
	}

	be, err := openStore(ctx, c.StoreType, &c.PostgresStore)
	if err != nil {
		return err
	}
	defer be.close()

	recorder := events.NewRecorder(be.repos.Activity)
	if metrics != nil {
		recorder.Subscribe(telemetry.NewEventCounter(metrics))
	}
	svc := orchestration.New(be.repos, recorder)

	if c.Seed != "" {
		if _, _, err := seedOrganization(ctx, svc, be, c.Seed, c.SeedOrg); err != nil {
			return err
		}
	}

	if !globals.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := rest.NewRouter(svc, rest.Options{Logger: log, Metrics: metrics, Health: be.health})
	srv := configureHTTPServer(c.Listen, withCORS(c.CORSOrigins, router))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Str("store", c.StoreType).Msg("Starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	return nil
}

// withCORS lets the browser front end call the API cross origin
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", rest.OrgHeader},
	})
	return middleware.Handler(h)
}
