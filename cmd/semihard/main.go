// Package main provides the semihard CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/FlavioCFOliveira/semihard/internal/config"
	"github.com/FlavioCFOliveira/semihard/internal/logging"
	"github.com/FlavioCFOliveira/semihard/internal/loss"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (unreadable or invalid config, bad loss parameters)
	ExitDataError   = 3 // Data error (malformed input, label/embedding mismatch)
)

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configError(err error) error { return &exitError{code: ExitConfigError, err: err} }
func dataError(err error) error { return &exitError{code: ExitDataError, err: err} }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	margin     float64
	reduction  string
	workers    int
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "semihard",
		Short: "Semi-hard negative triplet margin loss",
		Long: `semihard computes the semi-hard negative triplet margin loss over a
batch of labelled embeddings.

For every same-label pair (i, j) with j > i, negatives k whose distance to i
lies strictly between d(i,j) and d(i,j)+margin contribute
max(0, margin - (d(i,k) - d(i,j))). The result is the sum of those penalties
or their mean over contributing triplets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	pf.Float64Var(&opts.margin, "margin", loss.DefaultMargin, "Triplet margin (> 0)")
	pf.StringVar(&opts.reduction, "reduction", "mean", "Reduction: mean or sum")
	pf.IntVar(&opts.workers, "workers", 0, "Goroutines scanning anchors (0 = GOMAXPROCS)")

	cmd.AddCommand(newScoreCmd(opts), newSmokeCmd(opts))
	return cmd
}

// load reads the config file and applies every flag the user set explicitly.
// override runs before validation so commands can add their own flags.
func (o *rootOptions) load(cmd *cobra.Command, override func(*config.Config) error) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, configError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = o.logFormat
	}
	if flags.Changed("margin") {
		cfg.Loss.Margin = o.margin
	}
	if flags.Changed("reduction") {
		r, err := loss.ParseReduction(o.reduction)
		if err != nil {
			return nil, nil, configError(err)
		}
		cfg.Loss.Reduction = r
	}
	if flags.Changed("workers") {
		cfg.Loss.Workers = o.workers
	}
	if override != nil {
		if err := override(cfg); err != nil {
			return nil, nil, configError(err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, configError(err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, configError(err)
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Format, level)
	if err != nil {
		return nil, nil, configError(err)
	}
	return cfg, logger, nil
}
