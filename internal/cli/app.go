package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/morozRed/flowdoc/internal/config"
	"github.com/morozRed/flowdoc/internal/ignore"
	"github.com/morozRed/flowdoc/internal/languages"
	"github.com/morozRed/flowdoc/internal/logging"
	"github.com/morozRed/flowdoc/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app is the state shared by the commands of one root command.
type app struct {
	v       *viper.Viper
	bindErr error

	root   string
	cfg    *config.Config
	ignore []string
	logger *slog.Logger
	ctx    context.Context
}

func (a *app) bind(key string, flag *pflag.Flag) {
	if err := a.v.BindPFlag(key, flag); err != nil && a.bindErr == nil {
		a.bindErr = fmt.Errorf("failed to bind --%s flag: %w", flag.Name, err)
	}
}

// prepare loads the configuration, ignore rules, and logger of the project in
// the working directory and starts a new run.
func (a *app) prepare(cmd *cobra.Command) error {
	if a.bindErr != nil {
		return a.bindErr
	}
	root, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	file, err := OptionalStringFlag(cmd, "config")
	if err != nil {
		return err
	}
	cfg, err := config.Load(a.v, root, file)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	rules, err := ignore.LoadFile(root)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ignore.FileName, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a.root = root
	a.cfg = cfg
	a.ignore = append(append(make([]string, 0, len(cfg.Ignore)+len(rules)), cfg.Ignore...), rules...)
	a.logger = logger
	a.ctx = logging.WithRunID(ctx, logging.NewRunID())
	return nil
}

// pipeline returns a pipeline over the prepared configuration together with
// the progress reporter it reports to.
func (a *app) pipeline(cmd *cobra.Command, asJSON bool) (*pipeline.Pipeline, *progressReporter, error) {
	p, err := pipeline.New(
		languages.NewDefaultRegistry(),
		a.cfg.Cache.Size,
		a.cfg.OutputDir(a.root),
		a.cfg.AuxDir(a.root),
		a.ignore,
		a.logger,
	)
	if err != nil {
		return nil, nil, err
	}
	reporter := newProgressReporter(cmd.ErrOrStderr(), asJSON)
	p.Progress = reporter.Step
	return p, reporter, nil
}

func resolveWorkingDirectory() (string, error) {
	rootPath, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to resolve working directory: %w", err)
	}
	return rootPath, nil
}

// pathsOrDefault returns args, or the working directory when args is empty.
func pathsOrDefault(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
