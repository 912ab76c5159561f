// Command chunkserver runs a stateless chunk-storage node: it accepts
// uploads, serves downloads, replicates on demand, and pings the
// coordinator on a fixed interval. See SPEC_FULL.md §4.2.
//
// Config is read entirely from the environment, per spec.md §6: HOST,
// PORT, METADATA_URL, and SERVER_ID (a UUID, required).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"distfs/internal/chunkserver"
	"distfs/internal/coordclient"
	"distfs/internal/logging"
)

var version = "dev"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rootCmd := &cobra.Command{
		Use:   "chunkserver",
		Short: "Run a distfs chunk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()
			return run(ctx, logger)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   func(cmd *cobra.Command, args []string) { fmt.Println(version) },
	}
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	host := envOr("HOST", "0.0.0.0")
	port := envOr("PORT", "8081")
	metadataURL := os.Getenv("METADATA_URL")
	if metadataURL == "" {
		return fmt.Errorf("METADATA_URL is required")
	}
	serverIDStr := os.Getenv("SERVER_ID")
	serverID, err := uuid.Parse(serverIDStr)
	if err != nil {
		return fmt.Errorf("SERVER_ID must be a valid uuid: %w", err)
	}

	uploadsDir, err := defaultUploadsDir()
	if err != nil {
		return fmt.Errorf("resolve uploads dir: %w", err)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	srv, err := chunkserver.New(chunkserver.Config{
		ID:          serverID,
		Address:     fmt.Sprintf("http://%s", addr),
		UploadsDir:  uploadsDir,
		Coordinator: coordclient.New(metadataURL),
		Logger:      logging.Default(logger),
	})
	if err != nil {
		return fmt.Errorf("create chunk server: %w", err)
	}

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start ping job: %w", err)
	}
	defer srv.Stop()

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("chunk server starting", "addr", addr, "uploads_dir", uploadsDir)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("chunk server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultUploadsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".distfs", "chunkserver-uploads"), nil
}
