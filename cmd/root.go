package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"bclharness/pkg/config"
	"bclharness/pkg/generator"
	"bclharness/pkg/log"
	"bclharness/pkg/model"
	"bclharness/pkg/runner"
	"bclharness/pkg/steps"
	"bclharness/pkg/system"
	"bclharness/pkg/targets"

	"github.com/spf13/cobra"
)

type contextKey string

const loggerKey contextKey = "logger"

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool
	logger     log.Logger
	cmdRunner  steps.CommandRunner = runner.New()
	rootCmd                        = &cobra.Command{
		Use:   "bclharness",
		Short: "bclharness turns generated BCL test projects into harness targets",
		Long: `A harness adapter for the BCL test-project generator. It lists the
generated iOS and macOS test projects as harness targets and runs their
dependency steps (NuGet restore, BCL tests build) under a timeout.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			writer := cmd.ErrOrStderr()
			logger = log.NewSlogLogger(level, writer)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, loggerKey, logger))
			return nil
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loggerFrom(cmd *cobra.Command) log.Logger {
	return cmd.Context().Value(loggerKey).(log.Logger)
}

// harness is what every subcommand works with once the config is loaded.
type harness struct {
	cfg     *model.HarnessConfig
	factory *targets.Factory
	logFile io.Closer
}

func (h *harness) Close() error {
	if h.logFile == nil {
		return nil
	}
	return h.logFile.Close()
}

// loadHarness reads the config and wires the target factory. Timeout lines
// go to the logger and, when harness-log is set, to that file. Child process
// output goes to the harness log, or to stderr when there is none.
func loadHarness(cmd *cobra.Command) (*harness, error) {
	logger := loggerFrom(cmd)
	cfg, err := config.LoadConfig(cfgFile, logger)
	if err != nil {
		return nil, err
	}

	h := &harness{cfg: cfg}
	sink := log.MultiSink{log.LoggerSink{Logger: logger}}
	output := cmd.ErrOrStderr()
	if cfg.HarnessLog != "" {
		f, err := system.OpenAppend(cfg.HarnessLog)
		if err != nil {
			return nil, fmt.Errorf("opening harness log: %w", err)
		}
		h.logFile = f
		sink = append(sink, log.NewWriterSink(f))
		output = f
	}
	r := cmdRunner
	if live, ok := cmdRunner.(*runner.Runner); ok {
		withOutput := *live
		withOutput.Stdout = output
		withOutput.Stderr = output
		r = &withOutput
	}

	gen := generator.FromConfig(cfg, logger)
	h.factory = targets.NewFactory(targets.EnvironmentFromConfig(cfg), gen, r, sink, logger)
	return h, nil
}

// selectTargets returns the targets of the requested kind. flavor narrows
// mac targets to one flavor when not empty.
func selectTargets(f *targets.Factory, kind, flavor string) ([]targets.Target, error) {
	if flavor != "" && kind != string(targets.KindMac) {
		return nil, fmt.Errorf("--flavor requires --kind mac")
	}
	switch kind {
	case "all", "":
		return f.All()
	case string(targets.KindIOS):
		return f.IOSTargets()
	case string(targets.KindMac):
		if flavor == "" {
			return f.AllMacTargets()
		}
		mf, err := model.ParseMacFlavor(flavor)
		if err != nil {
			return nil, err
		}
		return f.MacTargets(mf)
	default:
		return nil, fmt.Errorf("invalid kind: %s (expected ios, mac or all)", kind)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "./harness.yaml", "config file (default is ./harness.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}
