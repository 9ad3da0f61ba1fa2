package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/processor"
	"git.home.luguber.info/inful/sitebuilder/internal/resource"
	"git.home.luguber.info/inful/sitebuilder/internal/transform"
)

type page struct {
	id  string
	out string
}

func (p page) Identifier() string { return p.id }
func (p page) OutputPath() string { return p.out }

type memoryHistory struct {
	mu      sync.Mutex
	records []history.Record
}

func (m *memoryHistory) Append(_ context.Context, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryHistory) Recent(context.Context, int) ([]history.Record, error) { return m.records, nil }
func (m *memoryHistory) Get(context.Context, string) (history.Record, bool, error) {
	return history.Record{}, false, nil
}
func (m *memoryHistory) Close() error { return nil }

type memoryEvents struct {
	mu     sync.Mutex
	events []events.BuildEvent
	err    error
}

func (m *memoryEvents) Publish(_ context.Context, ev events.BuildEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}
func (m *memoryEvents) Close() error { return nil }

type outcomeRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.BuildOutcomeLabel
	results  map[metrics.ResultLabel]int
}

func (r *outcomeRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *outcomeRecorder) IncResourceResult(_ string, res metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.results == nil {
		r.results = map[metrics.ResultLabel]int{}
	}
	r.results[res]++
}

func newProject(t *testing.T, files map[string]string) *resource.Registry {
	t.Helper()
	root := t.TempDir()
	reg := resource.NewRegistry(root)
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return reg
}

func htmlProcessors(transformers ...transform.Transformer) ProcessorFunc {
	html := &processor.HTML{Transformers: transformers}
	return func(sourcePath string, _ resource.Resource) processor.Processor {
		if filepath.Ext(sourcePath) == ".html" {
			return html
		}
		return processor.Identity{}
	}
}

func TestRun_WritesOutputTree(t *testing.T) {
	reg := newProject(t, map[string]string{
		"index.html":       `<a href="@about">About</a>`,
		"about/index.html": `<h1>About</h1>`,
		"css/site.css":     `body{}`,
	})
	require.NoError(t, reg.Register("index.html", page{id: "index", out: "index.html"}))
	require.NoError(t, reg.Register("about/index.html", page{id: "about", out: "about/index.html"}))
	require.NoError(t, reg.Register("css/site.css", page{id: "css/site.css", out: "assets/site.css"}))

	out := filepath.Join(t.TempDir(), "site")
	hist := &memoryHistory{}
	evs := &memoryEvents{}
	rec := &outcomeRecorder{}

	b := &Builder{
		OutputRoot:   out,
		Registry:     reg,
		ProcessorFor: htmlProcessors(transform.NewLinks()),
		Workers:      2,
		ConfigHash:   "hash",
		Recorder:     rec,
		History:      hist,
		Events:       evs,
	}
	report, err := b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, report.Status)
	assert.Equal(t, 3, report.Resources)
	assert.NotEmpty(t, report.BuildID)

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, `<a href="about/index.html">About</a>`, string(index))

	css, err := os.ReadFile(filepath.Join(out, "assets", "site.css"))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(css))

	require.Len(t, hist.records, 1)
	assert.Equal(t, report.BuildID, hist.records[0].BuildID)
	assert.Equal(t, "success", hist.records[0].Outcome)
	assert.Equal(t, "hash", hist.records[0].ConfigHash)

	require.Len(t, evs.events, 2)
	assert.Equal(t, events.TypeBuildStarted, evs.events[0].Type)
	assert.Equal(t, events.TypeBuildFinished, evs.events[1].Type)

	assert.Equal(t, []metrics.BuildOutcomeLabel{metrics.BuildOutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 3, rec.results[metrics.ResultSuccess])
}

func TestRun_FailFast(t *testing.T) {
	reg := newProject(t, map[string]string{
		"a.html": `<p>ok</p>`,
		"b.html": `<a href="@missing">x</a>`,
		"c.html": `<p>never</p>`,
	})
	for _, p := range []string{"a.html", "b.html", "c.html"} {
		require.NoError(t, reg.Register(p, page{id: p, out: p}))
	}
	out := t.TempDir()
	hist := &memoryHistory{}

	b := &Builder{OutputRoot: out, Registry: reg, ProcessorFor: htmlProcessors(transform.NewLinks()), History: hist}
	report, err := b.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.True(t, errors.HasCategory(err, errors.CategoryTransform))

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	path, _ := ce.Context().GetString(errors.ContextPath)
	assert.Equal(t, "b.html", path)

	assert.FileExists(t, filepath.Join(out, "a.html"))
	assert.NoFileExists(t, filepath.Join(out, "c.html"))

	require.Len(t, hist.records, 1)
	assert.Equal(t, "failed", hist.records[0].Outcome)
	assert.Contains(t, hist.records[0].Error, "@missing")
}

func TestRun_Canceled(t *testing.T) {
	reg := newProject(t, map[string]string{"a.html": "<p>a</p>"})
	require.NoError(t, reg.Register("a.html", page{id: "a", out: "a.html"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &Builder{OutputRoot: t.TempDir(), Registry: reg, ProcessorFor: htmlProcessors()}
	report, err := b.Run(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
	assert.Equal(t, StatusCanceled, report.Status)
}

func TestRun_RejectsEscapingOutputPath(t *testing.T) {
	reg := newProject(t, map[string]string{"a.html": "<p>a</p>"})
	require.NoError(t, reg.Register("a.html", page{id: "a", out: "../outside.html"}))

	_, err := (&Builder{OutputRoot: t.TempDir(), Registry: reg, ProcessorFor: htmlProcessors()}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestRun_Clean(t *testing.T) {
	reg := newProject(t, map[string]string{"a.html": "<p>a</p>"})
	require.NoError(t, reg.Register("a.html", page{id: "a", out: "a.html"}))

	out := t.TempDir()
	stale := filepath.Join(out, "stale.html")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := (&Builder{OutputRoot: out, Registry: reg, ProcessorFor: htmlProcessors(), Clean: true}).Run(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(out, "a.html"))
}

func TestRun_CleanRefusesProjectRoot(t *testing.T) {
	reg := newProject(t, map[string]string{"a.html": "<p>a</p>"})
	require.NoError(t, reg.Register("a.html", page{id: "a", out: "a.html"}))

	_, err := (&Builder{OutputRoot: reg.Root(), Registry: reg, ProcessorFor: htmlProcessors(), Clean: true}).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.FileExists(t, filepath.Join(reg.Root(), "a.html"))
}

func TestRun_SinkFailuresDoNotFailBuild(t *testing.T) {
	reg := newProject(t, nil)
	evs := &memoryEvents{err: stderrors.New("nats down")}

	report, err := (&Builder{OutputRoot: t.TempDir(), Registry: reg, ProcessorFor: htmlProcessors(), Events: evs}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, report.Status)
	assert.Len(t, evs.events, 2)
}

func TestReportRecord(t *testing.T) {
	start := time.Now()
	r := &Report{BuildID: "id", StartTime: start, Duration: time.Second, Resources: 2, Bytes: 10, Status: StatusFailed, Err: stderrors.New("boom")}
	rec := r.Record("cfg")
	assert.Equal(t, history.Record{
		BuildID: "id", StartedAt: start, Duration: time.Second, Outcome: "failed",
		Resources: 2, Bytes: 10, Error: "boom", ConfigHash: "cfg",
	}, rec)
}
