package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scanbridge",
		Short: "Loopback HTTP bridge for a desktop scanning application",
		Long: `Scanbridge exposes a desktop application's scanner to local automation
clients. A GET to /scan or /batch-scan triggers the scan and returns the
captured pages as PDF files in one multipart response.

Only loopback clients can connect; only one scan runs at a time.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())

	return cmd
}
