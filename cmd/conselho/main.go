// Package main provides the CLI entrypoint for conselho.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/conselho/internal/config"
	"github.com/verte-zerg/conselho/internal/council"
	"github.com/verte-zerg/conselho/internal/export"
	"github.com/verte-zerg/conselho/internal/gridui"
	"github.com/verte-zerg/conselho/internal/logging"
	"github.com/verte-zerg/conselho/internal/model"
	"github.com/verte-zerg/conselho/internal/risk"
	"github.com/verte-zerg/conselho/internal/schema"
	"github.com/verte-zerg/conselho/internal/sheet"
	"github.com/verte-zerg/conselho/internal/tabular"
)

const (
	defaultMinAverage    = 5.0
	defaultMinAttendance = 75.0
	defaultLogLevel      = "warn"
	defaultFormat        = "auto"
	defaultGridOut       = "periodo3.csv"
)

var (
	logLevel string

	periodPaths      [3]string
	periodSheets     [3]string
	periodHeaderRows [3]int
	minAverage       float64
	minAttendance    float64
	scanRows         int
	alertMarker      string

	reportOut    string
	reportFormat string
	reportBOM    bool

	gridOut string

	headersSheet     string
	headersHeaderRow int
	headersPeriod    int

	fileCfg config.FileConfig
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "conselho",
		Short:             "Class council risk report from period grade sheets",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error, off)")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newGridCmd())
	rootCmd.AddCommand(newHeadersCmd())
	rootCmd.AddCommand(newSheetsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// setup loads the config file and environment, then installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	fileCfg = cfg.WithEnv(env)

	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	logger, err := logging.New(cmd.ErrOrStderr(), logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logging.SetLogger(logger)
	return nil
}

func addPeriodFlags(cmd *cobra.Command) {
	for i := range periodPaths {
		n := i + 1
		cmd.Flags().StringVar(&periodPaths[i], fmt.Sprintf("p%d", n), "", fmt.Sprintf("period %d file (.csv, .txt, .xlsx)", n))
		cmd.Flags().StringVar(&periodSheets[i], fmt.Sprintf("sheet%d", n), "", fmt.Sprintf("worksheet of the period %d workbook (default: first)", n))
		cmd.Flags().IntVar(&periodHeaderRows[i], fmt.Sprintf("header-row%d", n), 0, fmt.Sprintf("1-based header row of the period %d workbook (default: detect)", n))
	}
	cmd.Flags().Float64Var(&minAverage, "min-average", defaultMinAverage, "grades average below this is a risk")
	cmd.Flags().Float64Var(&minAttendance, "min-attendance", defaultMinAttendance, "attendance percent below this is a risk")
	cmd.Flags().IntVar(&scanRows, "scan-rows", tabular.DefaultScanRows, "rows scanned when detecting a header row")
	cmd.Flags().StringVar(&alertMarker, "alert-marker", risk.DefaultAlertMarker, "text written to the Alert column")
}

func applyPeriodConfig(cmd *cobra.Command) {
	applyFloatConfig(cmd, "min-average", &minAverage, fileCfg.Thresholds.MinAverage)
	applyFloatConfig(cmd, "min-attendance", &minAttendance, fileCfg.Thresholds.MinAttendance)
	applyIntConfig(cmd, "scan-rows", &scanRows, fileCfg.Detect.ScanRows)
	applyStringConfig(cmd, "alert-marker", &alertMarker, fileCfg.Output.AlertMarker)
}

func validatePeriodFlags() error {
	if minAttendance < 0 || minAttendance > 100 {
		return fmt.Errorf("--min-attendance must be between 0 and 100")
	}
	if minAverage < 0 {
		return fmt.Errorf("--min-average must be >= 0")
	}
	if scanRows <= 0 {
		return fmt.Errorf("--scan-rows must be > 0")
	}
	for i, row := range periodHeaderRows {
		if row < 0 {
			return fmt.Errorf("--header-row%d must be >= 0", i+1)
		}
	}
	for _, p := range periodPaths {
		if p != "" {
			return nil
		}
	}
	return fmt.Errorf("at least one of --p1, --p2, --p3 is required")
}

// loadSession reads every given period file into a new session.
func loadSession() (*council.Session, error) {
	session := council.NewSession(model.Thresholds{
		MinAverage:    minAverage,
		MinAttendance: minAttendance,
	}, alertMarker)

	for i, period := range council.Periods {
		mapping, err := config.ParseMapping(fileCfg.Mapping.ForPeriod(int(period)))
		if err != nil {
			return nil, fmt.Errorf("invalid [mapping.period%d]: %w", int(period), err)
		}
		if err := session.SetMapping(period, mapping); err != nil {
			return nil, err
		}

		path := periodPaths[i]
		if path == "" {
			continue
		}
		table, err := sheet.Load(path, sheet.Options{
			Sheet:     periodSheets[i],
			HeaderRow: periodHeaderRows[i],
			ScanRows:  scanRows,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load period %d: %w", int(period), err)
		}
		if err := session.SetDataset(period, table.Source); err != nil {
			return nil, err
		}
		ds, err := session.Dataset(period)
		if err != nil {
			return nil, err
		}
		if unknown := tabular.Unrecognized(ds.Headers); len(unknown) > 0 {
			logging.Logger().Warn("unrecognized headers",
				"period", int(period),
				"headers", fieldNames(unknown),
			)
			logErrf("period %d: unrecognized columns %s (map them in [mapping.period%d], see: conselho headers %s)\n",
				int(period), strings.Join(fieldNames(unknown), ", "), int(period), path)
		}
		logging.Logger().Info("period loaded", "period", int(period), "path", path, "students", ds.Len())
	}
	return session, nil
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build the risk report",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addPeriodFlags(cmd)
	cmd.Flags().StringVar(&reportOut, "out", "", "write CSV to this file instead of stdout")
	cmd.Flags().StringVar(&reportFormat, "format", defaultFormat, "output format: auto, csv, table")
	cmd.Flags().BoolVar(&reportBOM, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	applyPeriodConfig(cmd)
	applyStringConfig(cmd, "format", &reportFormat, fileCfg.Output.Format)
	applyBoolConfig(cmd, "bom", &reportBOM, fileCfg.Output.BOM)
	if err := validatePeriodFlags(); err != nil {
		return err
	}

	format, err := resolveFormat(reportFormat, reportOut, isTerminal(cmd.OutOrStdout()))
	if err != nil {
		return err
	}

	session, err := loadSession()
	if err != nil {
		return err
	}
	rows := session.Report()

	if reportOut != "" {
		if err := export.WriteFileAtomic(reportOut, func(w io.Writer) error {
			return export.WriteReport(w, rows, export.Options{BOM: reportBOM})
		}); err != nil {
			return err
		}
		logErrf("Wrote %d students to %s\n", len(rows), reportOut)
		return nil
	}

	out := cmd.OutOrStdout()
	if format == "table" {
		if err := export.WriteReportTable(out, rows); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	return export.WriteReport(out, rows, export.Options{BOM: reportBOM})
}

// resolveFormat picks the report format. Files are always CSV; "auto" means
// a table on a terminal and CSV otherwise.
func resolveFormat(format, out string, tty bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		if out == "" && tty {
			return "table", nil
		}
		return "csv", nil
	case "csv":
		return "csv", nil
	case "table":
		if out != "" {
			return "", fmt.Errorf("--format table cannot be used with --out")
		}
		return "table", nil
	default:
		return "", fmt.Errorf("unknown --format %q (use auto, csv or table)", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func newGridCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Review and edit the current period, then browse the report",
		Args:  cobra.NoArgs,
		RunE:  runGridCmd,
	}
	addPeriodFlags(cmd)
	cmd.Flags().StringVar(&gridOut, "out", defaultGridOut, "file written by ctrl+s with the current period")
	cmd.Flags().BoolVar(&reportBOM, "bom", false, "prefix saved CSV with a UTF-8 byte order mark")
	return cmd
}

func runGridCmd(cmd *cobra.Command, _ []string) error {
	applyPeriodConfig(cmd)
	applyBoolConfig(cmd, "bom", &reportBOM, fileCfg.Output.BOM)
	if err := validatePeriodFlags(); err != nil {
		return err
	}
	session, err := loadSession()
	if err != nil {
		return err
	}

	save := func(ds model.Dataset) (string, error) {
		if err := export.WriteFileAtomic(gridOut, func(w io.Writer) error {
			return export.WriteDataset(w, ds, export.Options{BOM: reportBOM})
		}); err != nil {
			return "", err
		}
		return gridOut, nil
	}

	program := tea.NewProgram(gridui.NewModel(session, save), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run grid TUI: %w", err)
	}
	return nil
}

func newHeadersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "headers FILE",
		Short: "Show how the columns of a file are recognized",
		Args:  cobra.ExactArgs(1),
		RunE:  runHeadersCmd,
	}
	cmd.Flags().StringVar(&headersSheet, "sheet", "", "worksheet (default: first)")
	cmd.Flags().IntVar(&headersHeaderRow, "header-row", 0, "1-based header row (default: detect)")
	cmd.Flags().IntVar(&scanRows, "scan-rows", tabular.DefaultScanRows, "rows scanned when detecting a header row")
	cmd.Flags().IntVar(&headersPeriod, "period", 0, "apply the [mapping.periodN] overrides of this period")
	return cmd
}

func runHeadersCmd(cmd *cobra.Command, args []string) error {
	applyIntConfig(cmd, "scan-rows", &scanRows, fileCfg.Detect.ScanRows)
	if headersPeriod < 0 || headersPeriod > 3 {
		return fmt.Errorf("--period must be 1, 2 or 3")
	}
	mapping, err := config.ParseMapping(fileCfg.Mapping.ForPeriod(headersPeriod))
	if err != nil {
		return fmt.Errorf("invalid [mapping.period%d]: %w", headersPeriod, err)
	}

	table, err := sheet.Load(args[0], sheet.Options{
		Sheet:     headersSheet,
		HeaderRow: headersHeaderRow,
		ScanRows:  scanRows,
	})
	if err != nil {
		return err
	}

	mapped := tabular.ApplyMapping(table.Source, mapping)
	rows := make([][]string, 0, len(table.RawHeaders))
	for i, raw := range table.RawHeaders {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		field, ok := tabular.Resolve(mapping, model.Field(raw))
		target := string(field)
		state := "ok"
		switch {
		case !ok:
			target = string(model.Ignore)
			state = "ignored"
		case !schema.IsCanonical(field):
			state = "unrecognized"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), raw, target, state})
	}

	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "Header row: %d  Students: %d  Fields: %d\n", table.HeaderRow+1, mapped.Len(), len(mapped.Headers)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	lines := export.FormatTable([]string{"Col", "Header", "Field", "State"}, rows, map[int]bool{0: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets FILE",
		Short: "List the worksheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runSheetsCmd,
	}
}

func runSheetsCmd(cmd *cobra.Command, args []string) error {
	names, err := sheet.ListSheets(args[0])
	if err != nil {
		return err
	}
	if len(names) == 0 {
		logErrln("text files have a single table and no worksheets")
		return nil
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# conselho configuration
# Uncomment a value to enable it. CONSELHO_* environment variables override
# config values and CLI flags override both.

[thresholds]
# min-average = %.1f       # Periods 1+2 average below this is a risk
# min-attendance = %.1f   # Attendance percent below this is a risk

[detect]
# scan-rows = %d           # Rows scanned when detecting a workbook header row

[output]
# format = %q          # auto, csv or table
# bom = false             # Prefix CSV with a UTF-8 byte order mark
# alert-marker = %q

[log]
# level = %q           # debug, info, warn, error, off

# Column overrides per period: raw header = field name or "ignore".
# Run "conselho headers FILE" to see how a file is recognized.
[mapping.period1]
# "Nota Artes" = "Arte"
# "Observacoes" = "ignore"

[mapping.period2]

[mapping.period3]
`,
		defaultMinAverage,
		defaultMinAttendance,
		tabular.DefaultScanRows,
		defaultFormat,
		risk.DefaultAlertMarker,
		defaultLogLevel,
	)
}

func fieldNames(fields []model.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
