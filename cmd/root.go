package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"webframeworks/config"
	"webframeworks/logger"
	"webframeworks/report"
	"webframeworks/service"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// newRootCmd builds the webframeworks command. Positional arguments, when
// given, replace the configured framework list.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "webframeworks [owner/name ...]",
		Short: "Generate a Markdown table of popular web frameworks ranked by GitHub stars",
		Long: `webframeworks fetches stars, forks, open issues, license and the last commit
date for a list of GitHub repositories and prints a README table ranked by stars.

The access token is read from GITHUB_TOKEN; other settings come from the config
file, WEBFW_* environment variables or flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				v.Set(config.KeyFrameworks, args)
			}

			cfg := config.NewConfig()
			if err := cfg.Load(v, configFile); err != nil {
				return err
			}

			if err := logger.Initialize(cfg.LogLevel); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer logger.Sync()

			svc, err := service.NewService(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = svc.Run(ctx)
			if errors.Is(err, report.ErrNoRows) && !cfg.Strict {
				return nil
			}
			if err != nil {
				logger.Error("Report generation failed", zap.Error(err))
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "path to a YAML/TOML/JSON config file")
	flags.StringP("lang", "l", "", "language label used in the title (e.g. Go)")
	flags.StringP("output", "o", "-", "output file, - for stdout")
	flags.String("api-url", "https://api.github.com", "REST API base URL")
	flags.Int("concurrency", 8, "maximum repositories fetched at once")
	flags.Duration("timeout", 0, "per-request timeout (default 30s)")
	flags.Int("retries", 0, "retries per request on fetch errors")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Bool("strict", false, "exit non-zero when no repository could be fetched")

	bindFlags(v, flags, map[string]string{
		"lang":        config.KeyLanguage,
		"output":      config.KeyOutput,
		"api-url":     config.KeyAPIURL,
		"concurrency": config.KeyConcurrency,
		"timeout":     config.KeyRequestTimeout,
		"retries":     config.KeyMaxRetries,
		"log-level":   config.KeyLogLevel,
		"strict":      config.KeyStrict,
	})

	return cmd
}

// bindFlags binds each flag to its config key. Bound flags only override the
// config file and environment when set explicitly.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding flag %q: %v", flag, err))
		}
	}
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
