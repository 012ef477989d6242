package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/scanbridge/internal/bridge"
	"github.com/lehigh-university-libraries/scanbridge/internal/config"
	"github.com/lehigh-university-libraries/scanbridge/internal/guard"
	"github.com/lehigh-university-libraries/scanbridge/internal/handlers"
	"github.com/lehigh-university-libraries/scanbridge/internal/pdfexport"
	"github.com/lehigh-university-libraries/scanbridge/internal/scan"
)

func newServeCmd() *cobra.Command {
	var port int
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the loopback scan endpoint",
		Long: `Starts the scanbridge HTTP endpoint on the loopback interface.

GET /scan triggers a scan with the default profile; GET /batch-scan runs
the pre-configured batch job. Captured pages come back as one or more PDF
files in a single multipart/form-data response.`,
		Example: `  # Start on the default port
  scanbridge serve

  # Custom port and config file
  scanbridge serve --port 9100 --config ~/.config/scanbridge.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				configPath = os.Getenv("SCANBRIDGE_CONFIG")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			store := scan.NewStore()
			runner := bridge.NewRunner()
			defer runner.Close()

			driver := &bridge.CommandDriver{
				Sink:         store,
				ScanCommand:  cfg.ScanCommand,
				BatchCommand: cfg.BatchScanCommand,
			}
			fg := &bridge.CommandForegrounder{Command: cfg.ForegroundCmd}
			provider := config.NewFileProvider(configPath, cfg)

			// Scans run under the command context: only process shutdown
			// cancels them, never a disconnecting client.
			handler := handlers.New(
				cmd.Context(),
				guard.New(),
				scan.NewOrchestrator(store, driver, runner, provider),
				&pdfexport.Writer{},
				fg,
				provider,
			)

			// Loopback only: the endpoint is not reachable from other hosts.
			addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Scanbridge endpoint available", "addr", addr, "url", "http://"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// In-flight scans drain best-effort within the timeout.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", config.DefaultPort, "Port to listen on (loopback only)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the scanbridge config file")

	return cmd
}
