package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/internal/mcp"
	"github.com/Foundup/Foundups-Agent-sub010/internal/telemetry"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("HoloIndex starting",
		zap.String("version", version),
		zap.String("env", a.env),
		zap.String("build_mode", vecstore.BuildMode),
		zap.String("sqlite_driver", vecstore.DriverName),
		zap.Bool("vector_extension", vecstore.VectorExtensionAvailable))

	srv, err := mcp.NewServer(mcp.Options{
		Engine:  a.engine,
		Indexer: a.indexer,
		Logger:  a.logger,
	})
	if err != nil {
		return err
	}

	var ops *telemetry.Server
	if a.cfg.Telemetry.Enabled {
		ops = telemetry.NewServer(a.cfg.Telemetry, a.engine.Ready, a.logger)
		go func() {
			if err := ops.Start(); err != nil {
				a.logger.Error("Telemetry server failed", zap.Error(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		a.logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err = <-errChan:
		if err != nil {
			a.logger.Error("MCP server error", zap.Error(err))
		}
	}

	if ops != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			time.Duration(a.cfg.Telemetry.ShutdownSec)*time.Second)
		defer shutdownCancel()
		if serr := ops.Shutdown(shutdownCtx); serr != nil {
			a.logger.Warn("Telemetry shutdown failed", zap.Error(serr))
		}
	}

	a.logger.Info("Server stopped")
	return err
}
