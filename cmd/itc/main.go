package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/artcache/internal/logger"
	"github.com/samcharles93/artcache/internal/version"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "itc",
		Usage:   "Read and edit iTunes artwork cache (.itc) files",
		Version: version.String(),
		Writer:  stdout,
		Flags:   globalFlags(),
		Before:  setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			listCmd(),
			extractCmd(),
			addCmd(),
			setIDsCmd(),
			versionCmd(),
		},
	}
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	c, err := loadConfig(configFile, cmd.IsSet("config"))
	if err != nil {
		return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	cfg = c
	applyLoggingConfig(cmd, cfg)

	level := logger.ParseLevel(logLevel)
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet && !cmd.IsSet("log-level"):
		level = slog.LevelWarn
	}
	log := logger.Configure(os.Stderr, logger.ParseFormat(logFormat), level)
	log.Debug("configuration loaded", "config", configSource(configFile), "log_level", level.String())
	return logger.WithContext(ctx, log), nil
}
