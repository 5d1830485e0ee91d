package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kikiluvv/hoopreel/internal/config"
	"github.com/kikiluvv/hoopreel/internal/logging"
	"github.com/kikiluvv/hoopreel/internal/store"
)

var (
	cfgFile    string
	verbose    bool
	jsonOutput bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "hoopreel",
	Short:         "hoopreel - basketball highlight reels from raw game footage",
	Long:          "Finds bursts of motion around the hoop, then cuts and stitches them into a highlight reel.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(logging.Options{Verbose: verbose, JSON: jsonOutput})

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./hoopreel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "log-json", false, "write logs as JSON lines")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(clipCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(configCmd)
}

// openStore opens the run database named in the config
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg := config.FromContext(cmd.Context())
	return store.Open(cfg.Store.Path)
}
