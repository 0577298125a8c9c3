package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveyloom/internal/export"
	"github.com/KaramelBytes/surveyloom/internal/jobs"
	"github.com/KaramelBytes/surveyloom/internal/pipeline"
	"github.com/KaramelBytes/surveyloom/internal/report"
)

type fixture struct {
	srv  *httptest.Server
	jobs *jobs.Manager
	dir  string
}

func newFixture(t *testing.T, analyze jobs.AnalyzeFunc, cfg Config) *fixture {
	t.Helper()
	dir := t.TempDir()
	if analyze == nil {
		analyze = func(_ context.Context, id, path string) (*pipeline.Result, error) {
			d := &report.Data{ID: id, Source: filepath.Base(path), Rows: 2}
			m, err := export.Write(filepath.Join(dir, "exports", id), d)
			if err != nil {
				return nil, err
			}
			return &pipeline.Result{ID: id, Data: d, Export: m}, nil
		}
	}
	m := jobs.NewManager(context.Background(), analyze)
	if cfg.UploadDir == "" {
		cfg.UploadDir = filepath.Join(dir, "uploads")
	}
	srv := httptest.NewServer(NewRouter(m, cfg))
	t.Cleanup(func() {
		srv.Close()
		m.Wait()
	})
	return &fixture{srv: srv, jobs: m, dir: dir}
}

func upload(t *testing.T, url, name, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err := http.Post(url+"/v1/surveys/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil, Config{})
	resp, err := http.Get(f.srv.URL + "/health")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestUploadAnalyzeDownload(t *testing.T) {
	f := newFixture(t, nil, Config{})
	resp := upload(t, f.srv.URL, "wave1.csv", "screen1;screen2\nsim;5\nnão;4\n")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var sub submitted
	decode(t, resp, &sub)
	require.NotEmpty(t, sub.JobID)
	assert.Equal(t, "wave1.csv", sub.Filename)

	f.jobs.Wait()

	resp, err := http.Get(f.srv.URL + "/v1/surveys/" + sub.JobID)
	require.NoError(t, err)
	var job jobs.Job
	decode(t, resp, &job)
	assert.Equal(t, jobs.Completed, job.Status)

	entries, err := os.ReadDir(filepath.Join(f.dir, "uploads"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_wave1.csv"))

	resp, err = http.Get(f.srv.URL + "/v1/surveys/" + sub.JobID + "/download/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "report.md")

	resp2, err := http.Get(f.srv.URL + "/v1/surveys/" + sub.JobID + "/download/dashboard")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Contains(t, resp2.Header.Get("Content-Type"), "text/html")
	assert.Empty(t, resp2.Header.Get("Content-Disposition"))
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t, nil, Config{})
	resp := upload(t, f.srv.URL, "notes.txt", "hello")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, f.jobs.List())
}

func TestUploadRequiresFileField(t *testing.T) {
	f := newFixture(t, nil, Config{})
	resp, err := http.Post(f.srv.URL+"/v1/surveys/upload", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAnalyzeFile(t *testing.T) {
	f := newFixture(t, nil, Config{})
	path := filepath.Join(t.TempDir(), "survey.csv")
	require.NoError(t, os.WriteFile(path, []byte("screen1\nsim\n"), 0o644))

	body := strings.NewReader(`{"file_path":"` + filepath.ToSlash(path) + `"}`)
	resp, err := http.Post(f.srv.URL+"/v1/surveys/analyze-file", "application/json", body)
	require.NoError(t, err)
	var sub submitted
	decode(t, resp, &sub)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, jobs.Queued, sub.Status)

	resp, err = http.Post(f.srv.URL+"/v1/surveys/analyze-file", "application/json", strings.NewReader(`{"file_path":"/no/such/file.csv"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(f.srv.URL+"/v1/surveys/analyze-file", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUnknownJob(t *testing.T) {
	f := newFixture(t, nil, Config{})
	resp, err := http.Get(f.srv.URL + "/v1/surveys/does-not-exist")
	require.NoError(t, err)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "job not found")
}

func TestDownloadErrors(t *testing.T) {
	f := newFixture(t, func(context.Context, string, string) (*pipeline.Result, error) {
		return nil, errors.New("corrupt workbook")
	}, Config{})
	id := f.jobs.Submit("/tmp/broken.xlsx")
	f.jobs.Wait()

	resp, err := http.Get(f.srv.URL + "/v1/surveys/" + id + "/download/report")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/v1/surveys/" + id + "/download/spreadsheet")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(f.srv.URL + "/v1/surveys/" + id)
	require.NoError(t, err)
	var job jobs.Job
	decode(t, resp, &job)
	assert.Equal(t, jobs.Failed, job.Status)
	assert.Contains(t, job.Message, "corrupt workbook")
}

func TestListNewestFirst(t *testing.T) {
	f := newFixture(t, nil, Config{})
	first := f.jobs.Submit("/tmp/a.csv")
	second := f.jobs.Submit("/tmp/b.csv")
	f.jobs.Wait()

	resp, err := http.Get(f.srv.URL + "/v1/surveys")
	require.NoError(t, err)
	var body struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Jobs, 2)
	assert.Equal(t, second, body.Jobs[0].ID)
	assert.Equal(t, first, body.Jobs[1].ID)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil, Config{RateLimit: 0.001, Burst: 2})
	codes := []int{}
	for i := 0; i < 3; i++ {
		resp, err := http.Get(f.srv.URL + "/health")
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, nil, Config{CORSOrigins: []string{"https://dash.example"}})
	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/v1/surveys", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dash.example")
	req.Header.Set("Access-Control-Request-Method", "GET")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://dash.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
