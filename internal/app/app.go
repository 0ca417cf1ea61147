package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"

	"github.com/you/accountsvc/internal/config"
	"github.com/you/accountsvc/internal/infrastructure/auth"
	"github.com/you/accountsvc/internal/infrastructure/database"
	"github.com/you/accountsvc/internal/services"
)

// Run serves HTTP and runs the janitor until ctx is cancelled, then shuts
// the server down gracefully.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("close container")
		}
	}()

	if err := c.Migrate(); err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           instrument(c.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Deferred after Close so the janitor stops first, on every return path.
	stopJanitor := startJanitor(ctx, c.Janitor)
	defer stopJanitor()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting accountsvc")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// startJanitor runs j in the background. The returned stop cancels it and
// waits for the loop to exit.
func startJanitor(ctx context.Context, j *services.Janitor) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// instrument extracts W3C trace context from inbound requests so the
// request logger can stamp trace ids.
func instrument(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, "accountsvc",
		otelhttp.WithPropagators(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		)),
	)
}

// Migrate creates the tables and seeds the default policies when the policy
// table is empty.
func (c *Container) Migrate() error {
	if err := database.AutoMigrate(c.DB); err != nil {
		return err
	}
	rules, err := auth.LoadPolicyRules(c.Config.CasbinPolicyPath)
	if err != nil {
		return err
	}
	return c.Casbin.SeedDefaults(rules, c.Log)
}

// Cleanup runs one janitor sweep.
func Cleanup(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.SweepResult, error) {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return services.SweepResult{}, err
	}
	defer c.Close()
	return c.Janitor.Sweep(ctx)
}

// MigrateOnly runs the migrations and policy seeding without serving.
func MigrateOnly(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Migrate()
}
