package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/toxidity-18/Marketing-Data-Engine/internal/config"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/infrastructure"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/schema"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/services"
	"github.com/toxidity-18/Marketing-Data-Engine/internal/validation"
)

const (
	formatMarkdown = "markdown"
	formatCSV      = "csv"
	formatExcel    = "excel"
)

var errUsage = errors.New("usage error")

type options struct {
	format     string
	out        string
	sampleDays int
	seed       int64
	platform   string
	currency   string
	strategy   string
	schemaFile string
	verbose    bool
	files      []string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("campaign-report failed", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("campaign-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.format, "format", formatMarkdown, "report format: markdown, csv or excel")
	fs.StringVar(&opts.out, "out", "", "output path (markdown and csv default to stdout, excel to the report name)")
	fs.IntVar(&opts.sampleDays, "sample", 0, "generate a sample export covering this many days instead of reading files")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed for -sample (0 uses the clock)")
	fs.StringVar(&opts.platform, "platform", "", "force the source platform of every input file")
	fs.StringVar(&opts.currency, "currency", "", "target currency for spend and revenue")
	fs.StringVar(&opts.strategy, "strategy", "", "merge strategy for several files: append or outer_join_by_date")
	fs.StringVar(&opts.schemaFile, "schema", "", "YAML file extending the built-in column mappings")
	fs.BoolVar(&opts.verbose, "v", false, "log pipeline progress to stderr")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: campaign-report [flags] [file ...]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("%w: %w", errUsage, err)
	}
	opts.files = fs.Args()
	opts.format = strings.ToLower(opts.format)

	switch opts.format {
	case formatMarkdown, formatCSV, formatExcel:
	default:
		fs.Usage()
		return opts, fmt.Errorf("%w: unknown format %q", errUsage, opts.format)
	}
	if len(opts.files) == 0 && opts.sampleDays <= 0 {
		fs.Usage()
		return opts, fmt.Errorf("%w: no input files and no -sample", errUsage)
	}
	if len(opts.files) > 0 && opts.sampleDays > 0 {
		return opts, fmt.Errorf("%w: -sample cannot be combined with input files", errUsage)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := infrastructure.NewLoggerWithWriter(stderr, config.LoggingConfig{Level: level})

	cfg := config.Default()
	registry := schema.Default()
	if opts.schemaFile != "" {
		if registry, err = schema.LoadRegistry(opts.schemaFile); err != nil {
			return err
		}
	}
	validator := validation.NewFileValidator(logger, cfg.Pipeline.MaxUploadBytes, cfg.Pipeline.AllowedExtensions)

	svc := services.NewDatasetService(services.DatasetDeps{
		Registry:  registry,
		Validator: validator,
		Logger:    logger,
		Config: services.DatasetConfig{
			DefaultCurrency:    cfg.Pipeline.DefaultCurrency,
			DetectionThreshold: cfg.Pipeline.DetectionThreshold,
			Workers:            cfg.Pipeline.Workers,
			SampleDays:         cfg.Pipeline.SampleDays,
		},
	})

	id, err := load(ctx, svc, validator, opts)
	if err != nil {
		return err
	}

	export, err := render(ctx, svc, id, opts.format)
	if err != nil {
		return err
	}
	return write(export, opts, stdout, logger)
}

// load registers the inputs and returns the id of the dataset to report on.
func load(ctx context.Context, svc *services.DatasetService, validator *validation.FileValidator, opts options) (string, error) {
	if opts.sampleDays > 0 {
		result, err := svc.GenerateSample(ctx, opts.sampleDays, opts.seed)
		if err != nil {
			return "", err
		}
		return result.ID, nil
	}

	uploads := make([]services.Upload, 0, len(opts.files))
	for _, path := range opts.files {
		if err := validator.ValidateFile(path); err != nil {
			return "", err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		uploads = append(uploads, services.Upload{Filename: filepath.Base(path), Data: data})
	}

	results, err := svc.IngestMany(ctx, uploads)
	if err != nil {
		return "", err
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
		if opts.platform != "" || opts.currency != "" {
			_, err := svc.Normalize(ctx, r.ID, services.NormalizeRequest{
				Platform: opts.platform,
				Currency: opts.currency,
			})
			if err != nil {
				return "", fmt.Errorf("%s: %w", r.Filename, err)
			}
		}
	}
	if len(ids) == 1 {
		return ids[0], nil
	}

	merged, err := svc.Merge(ctx, services.MergeRequest{
		DatasetIDs: ids,
		Strategy:   opts.strategy,
		Name:       "combined",
	})
	if err != nil {
		return "", err
	}
	return merged.ID, nil
}

func render(ctx context.Context, svc *services.DatasetService, id, format string) (*services.Export, error) {
	switch format {
	case formatCSV:
		return svc.ExportCSV(ctx, id, false)
	case formatExcel:
		return svc.ExcelReport(ctx, id)
	default:
		return svc.MarkdownReport(ctx, id)
	}
}

func write(export *services.Export, opts options, stdout io.Writer, logger *slog.Logger) error {
	path := opts.out
	if path == "" && opts.format == formatExcel {
		path = export.Filename
	}
	if path == "" || path == "-" {
		_, err := stdout.Write(export.Data)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, export.Data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	logger.Info("Report written",
		slog.String("path", path),
		slog.String("format", opts.format),
		slog.Int("bytes", len(export.Data)))
	return nil
}
