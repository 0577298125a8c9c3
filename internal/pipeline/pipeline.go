// Package pipeline runs the end-to-end survey workflow: ingest, survey
// column detection, classification, charts, insights, optional AI
// elaboration, export, upload and run recording.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/surveyloom/internal/export"
	"github.com/KaramelBytes/surveyloom/internal/ingest"
	"github.com/KaramelBytes/surveyloom/internal/insight"
	"github.com/KaramelBytes/surveyloom/internal/logging"
	"github.com/KaramelBytes/surveyloom/internal/render"
	"github.com/KaramelBytes/surveyloom/internal/report"
	"github.com/KaramelBytes/surveyloom/internal/responses"
	"github.com/KaramelBytes/surveyloom/internal/storage"
	"github.com/KaramelBytes/surveyloom/internal/store"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Enricher elaborates on a finished Markdown report. ai.Enricher implements it.
type Enricher interface {
	Enrich(ctx context.Context, reportMarkdown string) (string, error)
}

// Uploader stores an exported file and returns its URL. storage.Store implements it.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Recorder persists a run. store.Store implements it.
type Recorder interface {
	SaveRun(ctx context.Context, r store.Run) error
}

type Options struct {
	Ingest ingest.Options
	// AllColumns skips survey-column detection.
	AllColumns bool
	// Detector defaults to survey.DefaultDetector.
	Detector *survey.Detector
	// Workers > 1 classifies columns concurrently.
	Workers  int
	Renderer *render.Renderer
	// Classifier handles problem/difficulty questions. Nil uses the keyword rules.
	Classifier *responses.Classifier
	// OutputDir receives the export package; empty skips export.
	OutputDir string
	Enricher  Enricher
	Uploader  Uploader
	Recorder  Recorder
	Logger    *slog.Logger
	// ID names the run; empty generates a UUID.
	ID  string
	Now func() time.Time
}

// Result is a finished analysis.
type Result struct {
	ID      string            `json:"id"`
	Data    *report.Data      `json:"data"`
	Export  *export.Manifest  `json:"export,omitempty"`
	Uploads map[string]string `json:"uploads,omitempty"`
}

// Run analyzes the survey file at path.
func Run(ctx context.Context, path string, opt Options) (*Result, error) {
	log := logging.OrDiscard(opt.Logger)
	log.Info("reading survey", "path", path)
	ds, table, err := ingest.Load(path, opt.Ingest)
	if err != nil {
		return nil, err
	}
	d := &report.Data{Source: table.Name, Sheet: table.Sheet, Warnings: append([]string(nil), table.Warnings...)}
	return analyze(ctx, ds, len(table.Rows), d, opt)
}

// Analyze runs the workflow over an in-memory dataset.
func Analyze(ctx context.Context, name string, ds *survey.Dataset, opt Options) (*Result, error) {
	return analyze(ctx, ds, ds.Rows(), &report.Data{Source: name}, opt)
}

func analyze(ctx context.Context, ds *survey.Dataset, rows int, d *report.Data, opt Options) (*Result, error) {
	log := logging.OrDiscard(opt.Logger)
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	id := opt.ID
	if id == "" {
		id = uuid.NewString()
	}
	log = log.With("run", id)
	d.ID = id
	d.GeneratedAt = now().UTC()
	d.Rows = rows
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 1. survey columns
	target := ds
	if !opt.AllColumns {
		det := opt.Detector
		if det == nil {
			det = survey.DefaultDetector()
		}
		var matched bool
		target, matched = det.SurveyColumns(ds)
		d.SurveyDetected = matched
		if !matched && ds.Len() > 0 {
			d.Warnings = append(d.Warnings, "no survey columns detected; analyzing all columns")
		}
	}
	d.Columns = target.Names()
	log.Info("columns selected", "columns", target.Len(), "of", ds.Len(), "survey_detected", d.SurveyDetected)

	// 2. classification
	agg := survey.Aggregator{Workers: opt.Workers, Logger: log}
	d.Classification = agg.Aggregate(target)
	d.Profiles = survey.Profiles(target)
	d.Plan = survey.Plan(d.Classification)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. charts
	rnd := opt.Renderer
	if rnd == nil {
		rnd = render.New()
	}
	d.Charts, d.ChartResults = renderCharts(rnd, target, d.Classification, log)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 4. response classification
	clf := opt.Classifier
	if clf == nil {
		clf = &responses.Classifier{Logger: log}
	}
	for _, c := range target.Columns() {
		if responses.NeedsClassification(c.Name) {
			d.Responses = append(d.Responses, clf.ClassifyQuestion(ctx, c.Name, c.Values))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 5. insights
	d.Insights = insight.Compose(insight.Input{
		Classification: d.Classification,
		Profiles:       d.Profiles,
		Charts:         d.ChartResults,
		Patterns:       insight.IdentifyPatterns(target, d.Classification),
	})

	// 6. enrichment
	if opt.Enricher != nil {
		text, err := opt.Enricher.Enrich(ctx, report.Markdown(d))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("AI elaboration failed", "error", err)
			d.Warnings = append(d.Warnings, fmt.Sprintf("AI elaboration skipped: %v", err))
		} else {
			d.Elaboration = text
		}
	}

	res := &Result{ID: id, Data: d}

	// 7. export and upload
	if opt.OutputDir != "" {
		m, err := export.Write(opt.OutputDir, d)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		res.Export = m
		log.Info("package exported", "dir", m.Dir, "zip", m.Zip)
		if opt.Uploader != nil {
			res.Uploads = upload(ctx, opt.Uploader, id, m, log)
		}
	}

	// 8. record
	if opt.Recorder != nil {
		if err := opt.Recorder.SaveRun(ctx, RunRecord(res, "completed", "")); err != nil {
			log.Warn("recording run failed", "error", err)
			d.Warnings = append(d.Warnings, fmt.Sprintf("run not recorded: %v", err))
		}
	}
	log.Info("analysis completed",
		"columns", d.Classification.TotalColumns,
		"charts", d.Insights.DataQualityAssessment.SuccessfulCharts,
		"completeness", d.Insights.DataQualityAssessment.AnalysisCompleteness)
	return res, nil
}

func renderCharts(r *render.Renderer, ds *survey.Dataset, dc survey.DatasetClassification, log *slog.Logger) ([]render.Artifact, []insight.ChartResult) {
	arts := []render.Artifact{}
	results := []insight.ChartResult{}
	for _, col := range ds.Columns() {
		recs := dc.Classifications[col.Name].VisualizationRecommendations
		res := insight.ChartResult{Column: col.Name}
		if len(recs) > 0 {
			res.Chart = recs[0]
		}
		art, err := r.RenderFirst(recs, col.Name, col.Values)
		if err != nil {
			res.Error = err.Error()
			log.Debug("chart failed", "column", col.Name, "error", err)
		} else {
			res.Chart = art.Token
			res.Success = true
			arts = append(arts, art)
		}
		results = append(results, res)
	}
	return arts, results
}

func upload(ctx context.Context, up Uploader, id string, m *export.Manifest, log *slog.Logger) map[string]string {
	out := map[string]string{}
	for _, f := range m.Files {
		url, err := up.Upload(ctx, f.Path, storage.Key(id, f.Path))
		if err != nil {
			log.Warn("upload failed", "kind", f.Kind, "error", err)
			continue
		}
		out[f.Kind] = url
	}
	return out
}

// RunRecord converts a result into its persisted form. res may be nil for
// runs that failed before producing a result.
func RunRecord(res *Result, status, message string) store.Run {
	r := store.Run{Status: status, Message: message, CreatedAt: time.Now().UTC()}
	if res == nil || res.Data == nil {
		return r
	}
	d := res.Data
	r.ID = res.ID
	r.Source = d.Source
	r.TotalColumns = d.Classification.TotalColumns
	r.Completeness = d.Insights.DataQualityAssessment.AnalysisCompleteness
	if !d.GeneratedAt.IsZero() {
		r.CreatedAt = d.GeneratedAt
	}
	if b, err := json.Marshal(d); err == nil {
		r.ResultJSON = string(b)
	}
	return r
}
