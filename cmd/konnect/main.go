package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/konnect-cli/internal/app"
	"github.com/vovakirdan/konnect-cli/internal/config"
	"github.com/vovakirdan/konnect-cli/internal/log"
)

var (
	configPath string
	serverURL  string
	statePath  string
	logLevel   string
)

// rootCmd launches the interactive chat UI.
var rootCmd = &cobra.Command{
	Use:   "konnect",
	Short: "Terminal client for the Konnect chat service",
	Long: `konnect is a terminal client for the Konnect chat service.

Run without arguments to start the interactive chat interface. The
subcommands cover the same operations headlessly for scripting.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		// The UI owns the terminal, so logs go to a file.
		logger, closeLog := log.NewFile(cfg.LogLevel, cfg.LogFile)
		defer closeLog()

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Run(ctx)
	},
}

// loadConfig resolves the layered configuration and applies flag overrides.
func loadConfig() (config.Config, error) {
	bootLog := log.New("warn")
	cfg, path, err := config.Load(bootLog, configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	bootLog.Debug().Str("path", path).Msg("config loaded")

	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if statePath != "" {
		cfg.StatePath = statePath
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

// newApp builds a headless app for subcommands. Logs go to stderr since no
// UI owns the terminal.
func newApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := log.New(cfg.LogLevel)
	return app.New(cfg, logger)
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Konnect server base URL")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "path to the local state database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	rootCmd.AddCommand(messagesCmd, sendCmd, deleteCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
