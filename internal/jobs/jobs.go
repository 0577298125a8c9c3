// Package jobs runs survey analyses in the background and tracks their
// status for the HTTP API.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/surveyloom/internal/export"
	"github.com/KaramelBytes/surveyloom/internal/logging"
	"github.com/KaramelBytes/surveyloom/internal/pipeline"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrNotCompleted = errors.New("job not completed")
	ErrUnknownKind  = errors.New("unknown artifact kind")
)

type Status string

const (
	Queued     Status = "queued"
	Processing Status = "processing"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

// Job is a snapshot of one background analysis.
type Job struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	Status       Status            `json:"status"`
	Message      string            `json:"message"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	TotalColumns int               `json:"total_columns,omitempty"`
	Completeness float64           `json:"analysis_completeness,omitempty"`
	Downloads    []string          `json:"downloads,omitempty"`
	Uploads      map[string]string `json:"uploads,omitempty"`

	seq    int
	result *pipeline.Result
}

// AnalyzeFunc runs one analysis. id is the job id, to be used as run id.
type AnalyzeFunc func(ctx context.Context, id, path string) (*pipeline.Result, error)

type Manager struct {
	mu       sync.RWMutex
	jobs     map[string]*Job
	seq      int
	analyze  AnalyzeFunc
	ctx      context.Context
	wg       sync.WaitGroup
	sem      chan struct{}
	recorder pipeline.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Manager)

// WithConcurrency caps how many jobs analyze at once. Default 2.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.sem = make(chan struct{}, n)
		}
	}
}

// WithRecorder persists every status change.
func WithRecorder(r pipeline.Recorder) Option { return func(m *Manager) { m.recorder = r } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// NewManager returns a manager whose jobs run under ctx; canceling ctx
// aborts running analyses.
func NewManager(ctx context.Context, analyze AnalyzeFunc, opts ...Option) *Manager {
	m := &Manager{
		jobs:    map[string]*Job{},
		analyze: analyze,
		ctx:     ctx,
		sem:     make(chan struct{}, 2),
		now:     time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	return m
}

// Submit queues an analysis of path and returns the job id.
func (m *Manager) Submit(path string) string {
	id := uuid.NewString()
	now := m.now().UTC()
	m.mu.Lock()
	m.seq++
	j := &Job{
		ID:        id,
		Source:    filepath.Base(path),
		Status:    Queued,
		Message:   "waiting for a worker",
		CreatedAt: now,
		UpdatedAt: now,
		seq:       m.seq,
	}
	m.jobs[id] = j
	snap := *j
	m.mu.Unlock()
	m.record(snap)
	m.logger.Info("job queued", "job", id, "source", j.Source)

	m.wg.Add(1)
	go m.run(id, path)
	return id
}

func (m *Manager) run(id, path string) {
	defer m.wg.Done()
	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-m.ctx.Done():
		m.finish(id, nil, m.ctx.Err())
		return
	}
	m.update(id, func(j *Job) {
		j.Status = Processing
		j.Message = "analyzing survey"
	})
	res, err := m.safeAnalyze(id, path)
	m.finish(id, res, err)
}

func (m *Manager) safeAnalyze(id, path string) (res *pipeline.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analysis panicked: %v", r)
		}
	}()
	return m.analyze(m.ctx, id, path)
}

func (m *Manager) finish(id string, res *pipeline.Result, err error) {
	m.update(id, func(j *Job) {
		if err != nil {
			j.Status = Failed
			j.Message = err.Error()
			return
		}
		j.Status = Completed
		j.Message = "analysis completed"
		j.result = res
		if res != nil && res.Data != nil {
			j.TotalColumns = res.Data.Classification.TotalColumns
			j.Completeness = res.Data.Insights.DataQualityAssessment.AnalysisCompleteness
		}
		if res != nil && res.Export != nil {
			for _, f := range res.Export.Files {
				j.Downloads = append(j.Downloads, f.Kind)
			}
		}
		if res != nil {
			j.Uploads = res.Uploads
		}
	})
	if err != nil {
		m.logger.Warn("job failed", "job", id, "error", err)
	} else {
		m.logger.Info("job completed", "job", id)
	}
}

func (m *Manager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	j, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	fn(j)
	j.UpdatedAt = m.now().UTC()
	snap := *j
	m.mu.Unlock()
	m.record(snap)
}

func (m *Manager) record(j Job) {
	if m.recorder == nil {
		return
	}
	run := pipeline.RunRecord(j.result, string(j.Status), j.Message)
	run.ID = j.ID
	if run.Source == "" {
		run.Source = j.Source
	}
	run.CreatedAt = j.CreatedAt
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.recorder.SaveRun(ctx, run); err != nil {
		m.logger.Warn("recording job failed", "job", j.ID, "error", err)
	}
}

// Get returns a snapshot of the job.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *j, nil
}

// Result returns the analysis of a completed job.
func (m *Manager) Result(id string) (*pipeline.Result, error) {
	j, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if j.Status != Completed || j.result == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCompleted, id, j.Status)
	}
	return j.result, nil
}

// List returns every job, newest first.
func (m *Manager) List() []Job {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, *j)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, k int) bool { return out[i].seq > out[k].seq })
	return out
}

// Artifact returns the local path of an exported file of a completed job.
// kind is one of dashboard, report, json or package.
func (m *Manager) Artifact(id, kind string) (string, error) {
	switch kind {
	case export.KindDashboard, export.KindReport, export.KindJSON, export.KindPackage:
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	res, err := m.Result(id)
	if err != nil {
		return "", err
	}
	p := res.Export.Path(kind)
	if p == "" {
		return "", fmt.Errorf("%w: %s has no %s", ErrNotFound, id, kind)
	}
	return p, nil
}

// Wait blocks until every submitted job has finished.
func (m *Manager) Wait() { m.wg.Wait() }
