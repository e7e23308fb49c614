package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	app "github.com/rocketscienceinc/bingo-backend/internal"
	"github.com/rocketscienceinc/bingo-backend/internal/config"
)

type flags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "bingo-backend",
		Short:         "Two-player bingo game server with a websocket relay and a computer opponent.",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(_ *cobra.Command, _ []string) error {
			conf, err := config.Load(f.configPath)
			if err != nil {
				return err
			}

			if f.logLevel != "" {
				conf.LogLevel = f.logLevel
				if err = conf.Validate(); err != nil {
					return err
				}
			}

			if err = app.RunApp(initLogger(conf), conf); err != nil {
				return fmt.Errorf("app run failed: %w", err)
			}

			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.configPath, "config", "c", "./config.yml", "path to the config file")
	fs.StringVar(&f.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	cmd.CompletionOptions.HiddenDefaultCmd = true

	return cmd
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch strings.ToLower(conf.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
