package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/financing-wizard/internal/buildinfo"
	"github.com/iwvelando/financing-wizard/internal/config"
	"github.com/iwvelando/financing-wizard/internal/metrics"
	"github.com/iwvelando/financing-wizard/internal/server"
	"github.com/iwvelando/financing-wizard/internal/session"
	"github.com/iwvelando/financing-wizard/internal/storage"
	"github.com/iwvelando/financing-wizard/internal/wizard"
	"github.com/iwvelando/financing-wizard/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the wizard HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			if address != "" {
				conf.Server.Address = address
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, conf, logger)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "listen address override")
	return cmd
}

// serve wires the stores, the wizard and the HTTP handler, then blocks until
// ctx is cancelled or the listener fails.
func serve(ctx context.Context, conf *config.Configuration, logger *zap.Logger) error {
	rules, err := conf.BusinessRules()
	if err != nil {
		return err
	}
	serverConfig, err := server.NewConfig(conf.Server)
	if err != nil {
		return err
	}
	renderer, err := output.NewRenderer(conf.Documents.Format)
	if err != nil {
		return err
	}
	linkTTL, err := conf.Documents.ParseLinkTTL()
	if err != nil {
		return err
	}

	store, err := storage.Open(ctx, conf.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("failed to close storage", zap.String("op", "main.serve"), zap.Error(err))
		}
	}()

	sessions, err := session.Open(ctx, conf.Sessions, logger)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("failed to close session store", zap.String("op", "main.serve"), zap.Error(err))
		}
	}()

	service := wizard.NewService(rules, wizard.Dependencies{
		Sessions:  sessions,
		Proposals: store,
		Documents: store,
		Renderer:  renderer,
	}, logger)

	handler := server.NewHandler(server.Options{
		Wizard:  service,
		Store:   store,
		Metrics: metrics.New(),
		Config:  serverConfig,
		Admin:   conf.Admin,
		Links:   server.NewDocumentLinks(conf.Documents.LinkSecret, linkTTL),
		Version: buildinfo.Version,
		Logger:  logger,
	})
	defer handler.Close()

	httpServer := &http.Server{
		Addr:              serverConfig.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting financing wizard API",
			zap.String("op", "main.serve"),
			zap.String("address", serverConfig.Address),
			zap.String("storage", conf.Storage.Driver),
			zap.String("sessions", conf.Sessions.Driver),
			zap.String("version", buildinfo.Version),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("op", "main.serve"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
