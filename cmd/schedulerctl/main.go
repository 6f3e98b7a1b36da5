// Command schedulerctl authorizes calendar access, chats with the scheduler
// from a terminal and inspects recorded meetings.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mr-Amresh/meeting-scheduler/internal/config"
	"github.com/Mr-Amresh/meeting-scheduler/pkg/logger"
)

var (
	configFile string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "schedulerctl",
	Short:         "Meeting scheduler command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		os.Setenv("CONFIG_FILE", configFile)
	}
	return config.Load()
}

// newLogger keeps the terminal quiet unless --verbose is set.
func newLogger() (*logger.Logger, error) {
	if !verbose {
		return logger.NewNop(), nil
	}
	return logger.NewDevelopment("debug")
}
