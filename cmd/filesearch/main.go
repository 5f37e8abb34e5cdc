// Command filesearch serves the Gemini File Search demo: a browser UI over
// managed document stores with retrieval-grounded question answering.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"filesearch/config"
	"filesearch/logging"
	"filesearch/server"
)

var (
	cfgFile string
	addr    string
)

func main() {
	// Optional .env for local development; system env wins.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "filesearch",
		Short:         "Browser demo for Gemini File Search grounded Q&A",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address override")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logger := logging.New(logging.Config{
		Level:  logLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	srv := server.New(cfg, func(o *server.Options) {
		o.Logger = logger
	})
	return srv.Listen()
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
