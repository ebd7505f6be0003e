package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"playbook/internal/api"
	"playbook/internal/auth"
	"playbook/internal/store"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func serveRun(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	svc, err := newIngestService(cfg)
	if err != nil {
		return err
	}
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	uploadsDir, err := cfg.UploadsDir()
	if err != nil {
		return fmt.Errorf("uploads dir: %w", err)
	}
	fs := afero.NewOsFs()
	for _, sub := range []string{"videos", "thumbnails"} {
		if err := fs.MkdirAll(filepath.Join(uploadsDir, sub), 0o755); err != nil {
			return fmt.Errorf("creating uploads dir: %w", err)
		}
	}

	handler := api.NewRouter(api.Config{
		Store:       store.New(d),
		Ingester:    svc,
		Issuer:      issuer,
		UploadsFS:   fs,
		UploadsDir:  uploadsDir,
		TagPolicy:   cfg.Ingest.TagPolicy,
		BcryptCost:  cfg.Auth.BcryptCost,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit: api.RateLimitConfig{
			RequestsPerSecond: cfg.Server.RateLimitRPS,
			Burst:             cfg.Server.RateLimitBurst,
		},
		Logger: log.WithField("component", "http"),
	})
	srv := api.NewHTTPServer(cfg.Server.ListenAddr, handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.Server.ListenAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
