package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"dialert/internal/assess"
	"dialert/internal/config"
	"dialert/internal/export"
	"dialert/internal/intake"
	"dialert/internal/logging"
	"dialert/internal/predict"
	"dialert/internal/report"
	"dialert/internal/tactile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// options holds flag values and the configuration resolved for one invocation.
type options struct {
	configPath string
	verbose    bool
	output     string
	format     string
	open       bool

	cfg *config.Config
}

// recordPath is the path named in export diagnostics.
func (o *options) recordPath() string {
	if o.cfg != nil {
		return o.cfg.Output.RecordPath
	}
	if o.output != "" {
		return o.output
	}
	return export.DefaultPath
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "dialert",
		Short: "DiAlert - interactive diabetes risk assessment",
		Long: `DiAlert collects a patient's clinical indicators, asks an external
model for a diabetes risk estimate and prints lifestyle recommendations.

The model is an external program (default: python predict.py) that prints
"<percent>,<label>". The result is written as JSON to result.txt.

Run without arguments to start the interactive assessment.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.bootstrap(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssessment(cmd, opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	root.Flags().StringVar(&opts.output, "output", "", "Result record path (overrides output.record_path)")
	root.Flags().StringVar(&opts.format, "format", "", "Report format: plain or markdown (overrides output.report_format)")
	root.Flags().BoolVar(&opts.open, "open", false, "Open the viewer on the result after export")

	root.AddCommand(newRecommendCmd())
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newVersionCmd())
	return root
}

// bootstrap loads .env and the configuration, applies flag overrides and
// builds the logger.
func (o *options) bootstrap(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(""); err != nil {
		return err
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		cfg.Output.RecordPath = o.output
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		cfg.Output.ReportFormat = o.format
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	o.cfg = cfg

	level := cfg.Logging.Level
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.Initialize(logging.Options{Level: level, Format: cfg.Logging.Format})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Debug("configuration loaded",
		zap.String("path", o.configPath),
		zap.String("predictor", cfg.Predictor.Binary),
		zap.String("record_path", cfg.Output.RecordPath),
		zap.String("report_format", cfg.Output.ReportFormat))
	return nil
}

// runAssessment performs one interactive assessment on the command's streams.
func runAssessment(cmd *cobra.Command, opts *options) error {
	cfg := opts.cfg
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	format, err := report.ParseFormat(cfg.Output.ReportFormat)
	if err != nil {
		return err
	}

	executor := tactile.NewDirectExecutor()
	runner, err := assess.NewRunner(assess.Deps{
		Source:    intake.NewPrompter(cmd.InOrStdin(), out),
		Predictor: predict.NewProcessPredictor(executor, cfg.PredictorOptions()),
		Renderer:  report.NewRenderer(format, reportWidth(out)),
		Exporter:  export.NewFileExporter(cfg.Output.RecordPath),
		Out:       out,
	})
	if err != nil {
		return err
	}

	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	if opts.open {
		target := cfg.ViewerTarget()
		if err := tactile.Open(ctx, executor, target); err != nil {
			// The record is already on disk; a missing viewer is not fatal.
			logging.Get(logging.CategoryBoot).Warn("failed to open viewer",
				zap.String("target", target), zap.Error(err))
		}
	}
	return nil
}

// reportWidth is the terminal width when out is a terminal, else 80.
func reportWidth(out io.Writer) int {
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

// exitCode prints the diagnostic for err and returns the process exit code.
func exitCode(w io.Writer, err error, recordPath string) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, export.ErrExport) {
		fmt.Fprintf(w, "Could not write to %s\n", recordPath)
		return 1
	}
	fmt.Fprintf(w, "An error occurred: %v\n", err)
	return 1
}

// run executes the CLI with args and returns the process exit code.
// SIGINT and SIGTERM cancel the command context, which ends a waiting prompt
// or kills the predictor. After the first signal the default handling is
// restored, so a second one terminates the process outright.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	opts := &options{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	return exitCode(stderr, err, opts.recordPath())
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
