package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/surveyloom/internal/ai"
	"github.com/KaramelBytes/surveyloom/internal/ingest"
	"github.com/KaramelBytes/surveyloom/internal/pipeline"
	"github.com/KaramelBytes/surveyloom/internal/responses"
	"github.com/KaramelBytes/surveyloom/internal/storage"
	"github.com/KaramelBytes/surveyloom/internal/store"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// inputFlags are the file-reading flags shared by the analysis commands.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	sheetName  string
	sheetIndex int
	maxRows    int
	keepNames  bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	fl.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fl.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fl.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to analyze")
	fl.IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fl.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to process (0 = config max_rows)")
	fl.BoolVar(&f.keepNames, "keep-names", false, "keep original column headers instead of cleaning them")
}

func (f *inputFlags) options() (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	if c := settings(); c.MaxRows > 0 {
		opt.MaxRows = c.MaxRows
	}
	if f.maxRows > 0 {
		opt.MaxRows = f.maxRows
	}
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.SheetName = f.sheetName
	opt.SheetIndex = f.sheetIndex
	opt.KeepNames = f.keepNames
	return opt, nil
}

func detector() (*survey.Detector, error) {
	c := settings()
	if len(c.SurveyPatterns) == 0 && len(c.SkipPatterns) == 0 {
		return survey.DefaultDetector(), nil
	}
	d, err := survey.NewDetector(c.SurveyPatterns, c.SkipPatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid survey_patterns/skip_patterns: %w", err)
	}
	return d, nil
}

// newRuntime returns nil when no provider is usable, so callers fall back to
// the rule-based paths.
func newRuntime() ai.Runtime {
	c := settings()
	if c.APIKey == "" && c.Provider != ai.ProviderOllama {
		return nil
	}
	rt, err := ai.NewRuntime(c.Provider, c.RuntimeConfig())
	if err != nil {
		return nil
	}
	return rt
}

func newClassifier(rt ai.Runtime, log *slog.Logger) *responses.Classifier {
	return &responses.Classifier{Runtime: rt, Model: settings().Model, Logger: log}
}

func newEnricher(rt ai.Runtime) (*ai.Enricher, error) {
	if rt == nil {
		return nil, fmt.Errorf("--enrich needs an AI provider: set api_key (or provider=ollama) via 'surveyloom config set'")
	}
	c := settings()
	return &ai.Enricher{Runtime: rt, Model: c.Model, MaxTokens: c.MaxTokens, Temperature: c.Temperature}, nil
}

// openStore returns nil when run history is disabled.
func openStore(ctx context.Context) (*store.Store, error) {
	c := settings()
	if c.StoreDriver == "" || c.StoreDSN == "" {
		return nil, nil
	}
	return store.Open(ctx, c.StoreDriver, c.StoreDSN)
}

// openUploader returns nil when no MinIO endpoint is configured.
func openUploader(ctx context.Context) (*storage.Store, error) {
	c := settings()
	if c.MinioEndpoint == "" {
		return nil, nil
	}
	return storage.New(ctx, c.MinioEndpoint, c.MinioRegion, c.MinioBucket, c.MinioAccessKey, c.MinioSecretKey, c.MinioUseSSL)
}

type analysisFlags struct {
	allColumns bool
	enrich     bool
	workers    int
	noRecord   bool
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.BoolVar(&f.allColumns, "all-columns", false, "analyze every column instead of detected survey columns")
	fl.BoolVar(&f.enrich, "enrich", false, "append an AI elaboration of the findings (overrides config enrich)")
	fl.IntVar(&f.workers, "workers", 4, "columns classified concurrently")
	fl.BoolVar(&f.noRecord, "no-record", false, "do not record the run in the run store")
}

// pipelineOptions wires config and flags into pipeline options. The returned
// cleanup closes whatever was opened.
func pipelineOptions(ctx context.Context, cmd *cobra.Command, in *inputFlags, af *analysisFlags, log *slog.Logger) (pipeline.Options, func(), error) {
	noop := func() {}
	iopt, err := in.options()
	if err != nil {
		return pipeline.Options{}, noop, err
	}
	det, err := detector()
	if err != nil {
		return pipeline.Options{}, noop, err
	}
	rt := newRuntime()
	opt := pipeline.Options{
		Ingest:     iopt,
		AllColumns: af.allColumns,
		Detector:   det,
		Workers:    af.workers,
		Classifier: newClassifier(rt, log),
		Logger:     log,
	}
	enrich := settings().Enrich
	if cmd.Flags().Changed("enrich") {
		enrich = af.enrich
	}
	if enrich {
		e, err := newEnricher(rt)
		if err != nil {
			return pipeline.Options{}, noop, err
		}
		opt.Enricher = e
	}
	if up, err := openUploader(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: artifact upload disabled: %v\n", err)
	} else if up != nil {
		opt.Uploader = up
	}
	if af.noRecord {
		return opt, noop, nil
	}
	st, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: run history disabled: %v\n", err)
		return opt, noop, nil
	}
	if st == nil {
		return opt, noop, nil
	}
	opt.Recorder = st
	return opt, func() { _ = st.Close() }, nil
}
