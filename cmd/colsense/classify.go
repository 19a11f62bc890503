package colsense

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/report"
	"github.com/colsense/colsense/internal/session"
	"github.com/colsense/colsense/internal/tui"
	"github.com/colsense/colsense/internal/update"
)

var (
	flagColumns   []string
	flagSamples   int
	flagFormat    string
	flagExport    []string
	flagOutDir    string
	flagTUI       bool
	flagWide      bool
	flagCharts    bool
	flagAttempts  int
	flagTimeout   time.Duration
	flagModel     string
	flagAPIKey    string
	flagBaseURL   string
	flagReconcile bool

	// exit is swapped in tests.
	exit = os.Exit
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify <file.csv|schema.json>",
		Short: "Classify the columns of a CSV file or JSON schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runClassify,
		Example: `
# Table output with a summary
colsense classify customers.csv

# Only some columns, three samples each, plus a Markdown report
colsense classify customers.csv --columns 'email*' --columns 'card_*' --samples 3 --export md

# Browse the results interactively
colsense classify customers.csv --tui
`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringSliceVar(&flagColumns, "columns", nil, "only classify columns matching these glob patterns (repeatable)")
	cmd.Flags().IntVar(&flagSamples, "samples", 0, "distinct sample values sent per column, at most 5 (default 5)")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format: table | json | text")
	cmd.Flags().StringSliceVar(&flagExport, "export", nil, "also write a report: csv | json | md (repeatable)")
	cmd.Flags().StringVar(&flagOutDir, "out-dir", ".", "directory for exported reports")
	cmd.Flags().BoolVar(&flagTUI, "tui", false, "open the interactive results browser")
	cmd.Flags().BoolVar(&flagWide, "wide", false, "do not truncate reasoning in table output")
	cmd.Flags().BoolVar(&flagCharts, "charts", false, "print level and confidence charts after the table")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "overall deadline for the classification, retries included")
	cmd.Flags().StringVar(&flagModel, "model", "", "Gemini model (default gemini-1.5-flash)")
	cmd.Flags().StringVar(&flagAPIKey, "api-key", "", "Gemini API key (default from $GEMINI_API_KEY)")
	cmd.Flags().StringVar(&flagBaseURL, "base-url", "", "Gemini API endpoint")
	cmd.Flags().BoolVar(&flagReconcile, "reconcile", false, "log columns the model skipped or invented")
	cmd.Flags().IntVar(&flagAttempts, "max-attempts", 0, "attempts per request, including the first (default 5)")
}

func currentClassifierFlags() classifierFlags {
	return classifierFlags{
		model:     flagModel,
		apiKey:    flagAPIKey,
		baseURL:   flagBaseURL,
		timeout:   flagTimeout,
		reconcile: flagReconcile,
		attempts:  flagAttempts,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	path := args[0]
	format := flagFormat
	if flagJSON {
		format = "json"
	}
	switch format {
	case "table", "json", "text":
	default:
		return fmt.Errorf("unknown format %q (want table, json or text)", format)
	}

	gcfg, lcfg := loadConfigs()
	opts := extractOptions(flagColumns, flagSamples, gcfg, lcfg)
	ds, err := dataset.LoadFile(path, opts)
	if err != nil {
		return err
	}

	var exports []report.Format
	for _, s := range flagExport {
		f, err := report.ParseFormat(s)
		if err != nil {
			return err
		}
		if f == report.FormatCSV && ds.Kind == dataset.KindSchema {
			return errors.New("--export csv needs a CSV input")
		}
		exports = append(exports, f)
	}

	eng, err := buildEngine(currentClassifierFlags(), gcfg, lcfg)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if format != "json" && !flagNoUpdateCheck {
		if latest, newer, _ := update.Check(version, false); newer && latest != "" {
			_, _ = fmt.Fprintf(stderr, "(new version available: v%s)  run 'colsense update' to upgrade\n", latest)
		}
	}
	if format != "json" && !flagTUI {
		_, _ = fmt.Fprintf(stderr, "Classifying %d columns from %s...\n", len(ds.Columns), ds.Filename)
	}

	limit := pickInt(0, lcfg.HistoryLimit, gcfg.HistoryLimit)
	if limit == 0 {
		limit = session.DefaultLimit
	}
	sess := session.New(limit)

	start := time.Now()
	entry := classifyInto(cmd.Context(), eng, sess, ds)
	took := time.Since(start)

	for _, f := range exports {
		p, err := writeExport(flagOutDir, f, entry)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stderr, "Wrote %s\n", p)
	}

	if flagTUI {
		rerun := func(ctx context.Context) (session.Entry, error) {
			ds, err := dataset.LoadFile(path, opts)
			if err != nil {
				return session.Entry{}, err
			}
			return classifyInto(ctx, eng, sess, ds), nil
		}
		exportDir := ""
		if cmd.Flags().Changed("out-dir") {
			exportDir = flagOutDir
		}
		return tui.Run(entry, tui.Options{Session: sess, Rerun: rerun, ExportDir: exportDir})
	}

	out := cmd.OutOrStdout()
	noColor := flagNoColor || pickBool(false, lcfg.NoColor, gcfg.NoColor)
	popts := report.PrintOptions{NoColor: noColor, Wide: flagWide, Filename: ds.Filename, Duration: took}
	switch format {
	case "json":
		if err := report.PrintJSON(out, entry.ClassificationResults); err != nil {
			return err
		}
	case "text":
		report.PrintText(out, entry.ClassificationResults, popts)
	default:
		if err := report.PrintTable(out, entry.ClassificationResults, popts); err != nil {
			return err
		}
		if flagCharts && !entry.Failed() {
			copts := report.ChartOptions{NoColor: noColor}
			_, _ = fmt.Fprint(out, "\n"+report.LevelChart(entry.ClassificationResults, copts))
			_, _ = fmt.Fprint(out, "\n"+report.ConfidenceChart(entry.ClassificationResults, copts))
		}
	}

	if entry.Failed() {
		exit(1)
	}
	return nil
}

// classifyInto runs one classification under the engine's deadline and
// records it in sess.
func classifyInto(ctx context.Context, eng *engine, sess *session.Session, ds *dataset.Dataset) session.Entry {
	if ctx == nil {
		ctx = context.Background()
	}
	if eng.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.timeout)
		defer cancel()
	}
	results := eng.classifier.Classify(ctx, ds.Columns, eng.apiKey)
	return sess.Add(ds, results)
}

// writeExport writes one report for entry into dir and returns its path.
func writeExport(dir string, f report.Format, e session.Entry) (string, error) {
	var buf bytes.Buffer
	if err := report.Export(&buf, f, e.Filename, e.Table, e.ColumnMetadata, e.ClassificationResults, e.Timestamp); err != nil {
		return "", fmt.Errorf("export %s: %w", f, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(dir, f.Filename(e.Filename, e.Timestamp))
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return p, nil
}
