// Command processor runs the ingestion pipeline over batch log exports on
// disk and writes the consolidated records as CSV, XLSX or JSON.
//
//	processor -in logs/ -out reports/ -format xlsx
//
// A directory input processes its most recent export, or every export with
// -all. -pattern narrows the scan to matching names and -since skips exports
// last modified before a date:
//
//	processor -in logs/ -all -pattern "line2_*" -since 2024-03-01
//
// Degradation alerts are reported in the log.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"batchline/internal/analytics"
	"batchline/internal/config"
	"batchline/internal/dataprocessing"
	"batchline/internal/exporter"
	"batchline/internal/files"
	"batchline/internal/infrastructure"
	"batchline/internal/validation"
	"batchline/pkg/contracts"
	"batchline/pkg/contracts/domain"
)

type options struct {
	in         string
	out        string
	format     string
	all        bool
	pattern    string
	since      time.Time
	configPath string
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "batch log file or directory of exports (required)")
	fs.StringVar(&opts.out, "out", ".", "output directory")
	fs.StringVar(&opts.format, "format", "csv", "output format: csv, xlsx or json")
	fs.BoolVar(&opts.all, "all", false, "process every export of a directory instead of the latest")
	fs.StringVar(&opts.pattern, "pattern", "", "glob limiting which exports of a directory are considered, e.g. line3_*.dbf")
	since := fs.String("since", "", "skip exports modified before this date (YYYY-MM-DD)")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.version {
		return opts, nil
	}

	if opts.in == "" {
		return options{}, errors.New("-in is required")
	}
	if *since != "" {
		t, err := time.ParseInLocation(time.DateOnly, *since, time.Local)
		if err != nil {
			return options{}, fmt.Errorf("invalid -since: %w", err)
		}
		opts.since = t
	}
	opts.format = strings.ToLower(opts.format)
	switch opts.format {
	case "csv", "xlsx", "json":
	default:
		return options{}, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.version {
		fmt.Println(contracts.GetFullVersionString("processor"))
		return
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := infrastructure.NewLogger(os.Stderr, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, cfg, logger); err != nil {
		logger.Error("Processing failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// selectInputs resolves -in to the files to process
func selectInputs(opts options) ([]files.FileInfo, error) {
	info, err := os.Stat(opts.in)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []files.FileInfo{{Path: opts.in, Name: filepath.Base(opts.in), Size: info.Size(), ModTime: info.ModTime()}}, nil
	}

	discovery := files.NewDiscovery("")
	var found []files.FileInfo
	if opts.pattern != "" {
		matched, err := discovery.FindFilesByPattern(opts.in, opts.pattern)
		if err != nil {
			return nil, err
		}
		for _, f := range matched {
			if files.IsLogFile(f.Name) && !strings.HasPrefix(f.Name, "~$") {
				found = append(found, f)
			}
		}
	} else if found, err = discovery.FindLogFiles(opts.in); err != nil {
		return nil, err
	}
	if !opts.since.IsZero() {
		found = files.FilterFilesByDateRange(found, opts.since, time.Now())
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("no .dbf or .xlsx exports in %s", opts.in)
	}
	if opts.all {
		return found, nil
	}
	latest, _ := files.GetLatestFile(found)
	return []files.FileInfo{latest}, nil
}

func run(ctx context.Context, opts options, cfg *config.Config, logger *slog.Logger) error {
	inputs, err := selectInputs(opts)
	if err != nil {
		return err
	}

	loc, err := cfg.Ingest.LoadLocation()
	if err != nil {
		return err
	}
	pipeline := dataprocessing.NewPipeline(dataprocessing.PipelineOptions{
		Normalizer: dataprocessing.NormalizerOptions{Location: loc},
		Consolidator: dataprocessing.ConsolidatorOptions{
			GapAlertMinutes:   cfg.Ingest.GapAlertMinutes,
			TimestampFallback: dataprocessing.TimestampFallback(cfg.Ingest.TimestampFallback),
		},
		Logger: logger,
	})
	degradation := analytics.DegradationOptions{
		MinObservations:    cfg.Analytics.MinObservations,
		MinPercentIncrease: cfg.Analytics.MinPercentIncrease,
		MaxAlerts:          cfg.Analytics.MaxAlerts,
	}
	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateOutputDirectory(opts.out); err != nil {
		return err
	}
	manager := files.NewManager(opts.out, logger)

	logger.InfoContext(ctx, "Starting batch log processing",
		slog.String("input", opts.in),
		slog.String("output_dir", opts.out),
		slog.String("format", opts.format),
		slog.Int("files", len(inputs)))

	var errs []error
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := validator.ValidateLogFile(in.Path, cfg.Ingest.MaxUploadBytes)
		if err == nil {
			err = processFile(ctx, pipeline, manager, in, opts.format, degradation, logger)
		}
		if err != nil {
			logger.ErrorContext(ctx, "File failed",
				slog.String("file", in.Name),
				slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", in.Name, err))
		}
	}
	return errors.Join(errs...)
}

func processFile(ctx context.Context, pipeline *dataprocessing.Pipeline, manager *files.Manager, in files.FileInfo, format string, degradation analytics.DegradationOptions, logger *slog.Logger) error {
	started := time.Now()

	data, err := os.ReadFile(in.Path)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, dataprocessing.Source{Name: in.Name, Data: data})
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(in.Name, filepath.Ext(in.Name))
	if err := writeOutput(manager, stem, format, res.Records); err != nil {
		return err
	}

	alerts := analytics.DetectDegradation(res.Records, degradation)
	for _, a := range alerts {
		logger.WarnContext(ctx, "Step duration degrading",
			slog.String("equipment_group", a.EquipmentGroup),
			slog.String("step", a.StepName),
			slog.Float64("recent_average_min", a.RecentAverage),
			slog.Float64("percent_increase", a.PercentIncrease))
	}

	logger.InfoContext(ctx, "File processed",
		slog.String("file", in.Name),
		slog.String("format", string(res.Stats.Format)),
		slog.Int("rows", res.Stats.RowsDecoded),
		slog.Int("skipped", res.Stats.Skipped()),
		slog.Int("records", res.Stats.Records),
		slog.Int("degradation_alerts", len(alerts)),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}

func writeOutput(manager *files.Manager, stem, format string, records []domain.BatchRecord) error {
	switch format {
	case "xlsx":
		return manager.Create(stem+".xlsx", func(w io.Writer) error {
			return exporter.WriteWorkbook(w, records)
		})
	case "json":
		return manager.Create(stem+".json", func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		})
	default:
		csv := exporter.NewCSVWriter()
		for _, t := range exporter.WorkbookTables(records) {
			name := fmt.Sprintf("%s_%s.csv", stem, strings.ToLower(t.Name))
			if err := manager.Create(name, func(w io.Writer) error {
				return csv.WriteTable(w, t)
			}); err != nil {
				return err
			}
		}
		return nil
	}
}
