package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/term"

	"github.com/INLOpen/fsprobe/config"
	"github.com/INLOpen/fsprobe/internal/logutil"
	"github.com/INLOpen/fsprobe/internal/tracing"
	"github.com/INLOpen/fsprobe/probe"
	"github.com/INLOpen/fsprobe/sys"
)

// exitError carries a specific exit status for commands that already printed
// their own diagnostics.
type exitError struct {
	code int
}

func (e exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	span    trace.Span
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func NewCLI() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sysutil",
		Short: "File preallocation and filesystem utilities",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if err := a.setup(cmd); err != nil {
				a.close()
				return err
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output", "", "Log output (stdout, stderr, file, none)")
	rootCmd.PersistentFlags().Bool("bytes", false, "Print sizes as raw byte counts")

	cobra.EnableCommandSorting = false

	rootCmd.AddCommand(
		newProbeCmd(a),
		newFallocateCmd(a),
		newStatCmd(a),
		newMountsCmd(a),
		newDuCmd(a),
		newLsCmd(a),
		newResolveCmd(a),
		newExistsCmd(a),
		newMountCmd(a),
		newUmountAllCmd(a),
		newBenchCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if out, _ := cmd.Flags().GetString("log-output"); out != "" {
		cfg.Logging.Output = out
	}
	a.cfg = cfg

	logger, closer, err := logutil.New(cfg.Logging)
	if err != nil {
		return err
	}
	if closer != nil {
		a.cleanup = append(a.cleanup, func() { closer.Close() })
	}
	a.logger = logger.With("command", cmd.Name())
	if strings.EqualFold(cfg.Logging.Level, "debug") {
		sys.SetDebugLogger(a.logger)
		sys.SetDebugMode(true)
	}

	_, shutdown, err := tracing.Init(cmd.Context(), cfg.Tracing, "sysutil", a.logger)
	if err != nil {
		return err
	}
	a.cleanup = append(a.cleanup, shutdown)

	ctx, span := tracing.Tracer().Start(cmd.Context(), "sysutil."+cmd.Name(),
		trace.WithAttributes(attribute.StringSlice("args", cmd.Flags().Args())))
	a.span = span
	a.cleanup = append(a.cleanup, func() { span.End() })
	cmd.SetContext(ctx)
	return nil
}

// runE wraps a command body so the span records its error and everything
// set up in setup is torn down, whether or not the body fails.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.close()
		err := fn(cmd, args)
		if err != nil && a.span != nil {
			a.span.RecordError(err)
			a.span.SetStatus(codes.Error, err.Error())
		}
		return err
	}
}

// sizeFormatter returns raw byte counts when --bytes is given or output is
// not a terminal, and IEC units otherwise.
func sizeFormatter(cmd *cobra.Command) func(uint64) string {
	raw, _ := cmd.Flags().GetBool("bytes")
	if !raw {
		f, ok := cmd.OutOrStdout().(*os.File)
		raw = !ok || !term.IsTerminal(int(f.Fd()))
	}
	if raw {
		return func(n uint64) string { return strconv.FormatUint(n, 10) }
	}
	return humanize.IBytes
}

// parseSize accepts plain byte counts as well as "100MB" or "1GiB".
func parseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %q too large", s)
	}
	return int64(n), nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func outcomeAttr(o probe.Outcome) attribute.KeyValue {
	return attribute.String("probe.outcome", o.String())
}
