// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/visio-preview/internal/host"
	"github.com/pdiddy/visio-preview/internal/host/hosttest"
	"github.com/pdiddy/visio-preview/pkg/types"
)

// sliceRecorder collects mapping records in order.
type sliceRecorder struct {
	records []types.MappingRecord
}

func (s *sliceRecorder) Add(r types.MappingRecord) { s.records = append(s.records, r) }

// memIndex is an in-memory Index.
type memIndex struct {
	records map[string]types.MappingRecord
	pages   map[string][]types.PagePreview
	saves   int
}

func newMemIndex() *memIndex {
	return &memIndex{records: map[string]types.MappingRecord{}, pages: map[string][]types.PagePreview{}}
}

func (m *memIndex) Lookup(_ context.Context, source string) (types.MappingRecord, []types.PagePreview, bool, error) {
	r, ok := m.records[source]
	return r, m.pages[source], ok, nil
}

func (m *memIndex) Save(_ context.Context, rec types.MappingRecord, pages []types.PagePreview) error {
	m.saves++
	m.records[rec.Source] = rec
	m.pages[rec.Source] = pages
	return nil
}

type fixture struct {
	fs     afero.Fs
	app    *hosttest.App
	out    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newFixture(t *testing.T, docs map[string]*hosttest.FakeDocument) *fixture {
	t.Helper()
	f := &fixture{
		fs:  afero.NewMemMapFs(),
		app: hosttest.NewApp(docs),
		out: t.TempDir(),
	}
	f.app.WriteFiles = true
	for path := range docs {
		require.NoError(t, afero.WriteFile(f.fs, path, []byte("vsdx"), 0o644))
		require.NoError(t, f.fs.Chtimes(path, march2, march2))
	}
	return f
}

func (f *fixture) generator(t *testing.T, opts Options) (*Generator, *host.Session) {
	t.Helper()
	s, err := host.Start(f.app)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	opts.OutputDir = f.out
	opts.Fs = f.fs
	opts.Out = &f.stdout
	opts.Err = &f.stderr
	return New(s, opts), s
}

func paths(ps ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, p := range ps {
			if !yield(p, nil) {
				return
			}
		}
	}
}

func TestDocument_SinglePageWithQualifier(t *testing.T) {
	const doc = "/projects/ACME/diagrams/Plan.vsdx"
	f := newFixture(t, map[string]*hosttest.FakeDocument{doc: {Pages: []string{"Page-1"}}})
	g, _ := f.generator(t, Options{Qualifiers: []string{"ACME"}, ResizePages: true})

	res := g.Document(context.Background(), doc)

	require.NoError(t, res.Err)
	assert.Equal(t, types.StatusGenerated, res.Status)
	require.NotNil(t, res.Record)
	assert.Equal(t, "ACME_Plan_20240302.png", res.Record.Preview)
	assert.Equal(t, doc, res.Record.Source)
	assert.Equal(t, f.out, res.Record.Dir)
	assert.Equal(t, 1, res.Record.Pages)
	assert.FileExists(t, filepath.Join(f.out, "ACME_Plan_20240302.png"))
	assert.Equal(t, []string{"Page-1"}, f.app.Resized)
	assert.Contains(t, f.app.Saved, doc)
	assert.Contains(t, f.app.Closed, doc)
	assert.Contains(t, f.stdout.String(), "processing "+doc)
}

func TestDocument_MultiPage(t *testing.T) {
	const doc = "/projects/Arch.vsdx"
	f := newFixture(t, map[string]*hosttest.FakeDocument{doc: {Pages: []string{"Overview", "Detail"}}})
	g, _ := f.generator(t, Options{Qualifiers: []string{"ACME"}})

	res := g.Document(context.Background(), doc)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{
		filepath.Join(f.out, "Arch_Overview_20240302.png"),
		filepath.Join(f.out, "Arch_Detail_20240302.png"),
	}, f.app.Exported)
	require.NotNil(t, res.Record)
	assert.Equal(t, "Arch_Detail_20240302.png", res.Record.Preview, "record names the last page")
	assert.Len(t, res.Previews, 2)
	assert.Empty(t, f.app.Resized, "resize disabled")
	assert.Contains(t, f.stdout.String(), "    page Overview")
}

func TestDocument_NoPages(t *testing.T) {
	const doc = "/p/Empty.vsdx"
	f := newFixture(t, map[string]*hosttest.FakeDocument{doc: {}})
	g, _ := f.generator(t, Options{})

	res := g.Document(context.Background(), doc)

	assert.Equal(t, types.StatusEmpty, res.Status)
	assert.Nil(t, res.Record)
	assert.Empty(t, f.app.Exported)
	assert.Contains(t, f.app.Closed, doc)
}

func TestDocument_OpenFailure(t *testing.T) {
	const doc = "/p/Locked.vsdx"
	f := newFixture(t, map[string]*hosttest.FakeDocument{doc: {OpenErr: errors.New("file is locked")}})
	g, _ := f.generator(t, Options{})

	res := g.Document(context.Background(), doc)

	assert.Equal(t, types.StatusOpenFailed, res.Status)
	assert.ErrorIs(t, res.Err, host.ErrOpenDocument)
	assert.Nil(t, res.Record)
	assert.Contains(t, f.stderr.String(), doc)
	assert.Empty(t, f.app.Closed)
}

func TestDocument_ExportFailureAbortsDocument(t *testing.T) {
	const doc = "/p/Three.vsdx"
	f := newFixture(t, map[string]*hosttest.FakeDocument{doc: {
		Pages:     []string{"A", "B", "C"},
		ExportErr: map[string]error{"B": errors.New("access denied")},
	}})
	g, _ := f.generator(t, Options{})

	res := g.Document(context.Background(), doc)

	assert.Equal(t, types.StatusExportFailed, res.Status)
	assert.ErrorIs(t, res.Err, ErrExport)
	assert.Nil(t, res.Record)
	assert.Len(t, f.app.Exported, 1, "page C is never exported")
	assert.Contains(t, f.app.Closed, doc, "document is released after a failed export")
	assert.Contains(t, f.stderr.String(), filepath.Join(f.out, "Three_B_20240302.png"))
}

func TestRun(t *testing.T) {
	docs := map[string]*hosttest.FakeDocument{
		"/p/a.vsdx":      {Pages: []string{"Page-1"}},
		"/p/locked.vsdx": {OpenErr: errors.New("locked")},
		"/p/empty.vsdx":  {},
		"/p/bad.vsdx":    {Pages: []string{"X"}, ExportErr: map[string]error{"X": errors.New("disk full")}},
		"/p/b.vsdx":      {Pages: []string{"One", "Two"}},
	}
	order := []string{"/p/a.vsdx", "/p/locked.vsdx", "/p/empty.vsdx", "/p/bad.vsdx", "/p/b.vsdx"}

	t.Run("continues past failures", func(t *testing.T) {
		f := newFixture(t, docs)
		g, _ := f.generator(t, Options{})
		var rec sliceRecorder

		result, err := g.Run(context.Background(), paths(order...), &rec)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Generated)
		assert.Equal(t, 1, result.OpenFailed)
		assert.Equal(t, 1, result.Empty)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 5, result.Total())
		assert.True(t, result.HasFailures())
		require.Len(t, result.Failures, 1)
		assert.Equal(t, "/p/bad.vsdx", result.Failures[0].Path)

		require.Len(t, rec.records, 2)
		assert.Equal(t, "/p/a.vsdx", rec.records[0].Source)
		assert.Equal(t, "/p/b.vsdx", rec.records[1].Source)
		assert.Equal(t, "b_Two_20240302.png", rec.records[1].Preview)

		assert.Equal(t, 1, f.app.MaxConcurrentOpen())
		assert.Equal(t, 0, f.app.OpenNow())
		assert.Contains(t, f.stdout.String(), "Batch summary: 2 generated")
	})

	t.Run("fail fast stops at first failed document", func(t *testing.T) {
		f := newFixture(t, docs)
		g, _ := f.generator(t, Options{FailFast: true})
		var rec sliceRecorder

		result, err := g.Run(context.Background(), paths(order...), &rec)

		assert.ErrorIs(t, err, ErrExport)
		assert.Equal(t, 1, result.Failed)
		assert.NotContains(t, f.app.Opened, "/p/b.vsdx")
		assert.Len(t, rec.records, 1)
	})

	t.Run("walk errors are counted and skipped", func(t *testing.T) {
		f := newFixture(t, docs)
		g, _ := f.generator(t, Options{})
		seq := func(yield func(string, error) bool) {
			if !yield("", errors.New("permission denied")) {
				return
			}
			yield("/p/a.vsdx", nil)
		}
		var rec sliceRecorder

		result, err := g.Run(context.Background(), seq, &rec)

		require.NoError(t, err)
		assert.Equal(t, 1, result.WalkErrors)
		assert.Equal(t, 1, result.Generated)
		assert.Contains(t, f.stderr.String(), "permission denied")
	})

	t.Run("cancelled context stops between documents", func(t *testing.T) {
		f := newFixture(t, docs)
		g, _ := f.generator(t, Options{})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := g.Run(ctx, paths(order...), &sliceRecorder{})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, f.app.Opened)
	})
}

func TestDocument_Incremental(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "src", "Plan.vsdx")
	require.NoError(t, os.MkdirAll(filepath.Dir(doc), 0o755))
	require.NoError(t, os.WriteFile(doc, []byte("vsdx"), 0o644))
	require.NoError(t, os.Chtimes(doc, march2, march2))

	app := hosttest.NewApp(map[string]*hosttest.FakeDocument{doc: {Pages: []string{"Page-1"}}})
	app.WriteFiles = true
	s, err := host.Start(app)
	require.NoError(t, err)
	defer s.Close()

	idx := newMemIndex()
	g := New(s, Options{OutputDir: filepath.Join(dir, "out"), Incremental: true, Index: idx})

	first := g.Document(context.Background(), doc)
	require.Equal(t, types.StatusGenerated, first.Status)
	assert.Equal(t, 1, idx.saves)

	second := g.Document(context.Background(), doc)
	assert.Equal(t, types.StatusUnchanged, second.Status)
	require.NotNil(t, second.Record)
	assert.Equal(t, first.Record.Preview, second.Record.Preview)
	assert.Len(t, app.Opened, 1, "unchanged document is not reopened")

	later := march2.Add(24 * time.Hour)
	require.NoError(t, os.Chtimes(doc, later, later))
	third := g.Document(context.Background(), doc)
	assert.Equal(t, types.StatusGenerated, third.Status)
	assert.Equal(t, "Plan_20240303.png", third.Record.Preview)
	assert.Len(t, app.Opened, 2)

	require.NoError(t, os.Remove(third.Previews[0].Path))
	fourth := g.Document(context.Background(), doc)
	assert.Equal(t, types.StatusGenerated, fourth.Status, "missing preview forces regeneration")
}
