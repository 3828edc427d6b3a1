// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview renders diagram documents to PNG previews through the
// automation host and reports one mapping record per document.
package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/spf13/afero"

	"github.com/pdiddy/visio-preview/internal/host"
	"github.com/pdiddy/visio-preview/pkg/types"
)

// ErrExport marks a page that the host failed to export.
var ErrExport = errors.New("exporting page")

// DocumentOpener gives scoped access to one document at a time.
// *host.Session implements it.
type DocumentOpener interface {
	WithDocument(path string, fn func(host.Document) error) error
}

// Recorder accepts mapping records in processing order.
type Recorder interface {
	Add(types.MappingRecord)
}

// Index remembers previews from earlier runs. *mapping.Index implements it.
type Index interface {
	Lookup(ctx context.Context, source string) (types.MappingRecord, []types.PagePreview, bool, error)
	Save(ctx context.Context, rec types.MappingRecord, pages []types.PagePreview) error
}

// Options configures a Generator.
type Options struct {
	OutputDir   string
	Qualifiers  []string
	ResizePages bool

	// Roots are the walk roots as configured; qualifier prefixes only look
	// at path components from the root down.
	Roots []string

	// Incremental reuses indexed previews of unchanged documents. It has
	// no effect without an Index.
	Incremental bool
	// FailFast stops Run at the first document that fails after opening.
	FailFast bool

	// Fs is used for reading document modification times and checking
	// indexed previews. Defaults to the OS filesystem.
	Fs    afero.Fs
	Index Index

	// Out receives progress lines, Err receives failures. Both default to io.Discard.
	Out io.Writer
	Err io.Writer
}

// DocumentResult is the outcome of processing one document.
type DocumentResult struct {
	Path     string
	Status   types.DocumentStatus
	Previews []types.PagePreview
	// Record is nil unless the document produced at least one preview.
	Record *types.MappingRecord
	Err    error
}

// BatchResult summarizes a Run.
type BatchResult struct {
	Generated  int
	Unchanged  int
	Empty      int
	OpenFailed int
	Failed     int
	WalkErrors int

	// Failures lists documents that failed after opening.
	Failures []DocumentResult
}

// Total returns the number of documents processed.
func (r BatchResult) Total() int {
	return r.Generated + r.Unchanged + r.Empty + r.OpenFailed + r.Failed
}

// HasFailures reports whether any document failed after it was opened.
// Documents that could not be opened are skipped, not failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

func (r *BatchResult) add(res DocumentResult) {
	switch res.Status {
	case types.StatusGenerated:
		r.Generated++
	case types.StatusUnchanged:
		r.Unchanged++
	case types.StatusEmpty:
		r.Empty++
	case types.StatusOpenFailed:
		r.OpenFailed++
	case types.StatusExportFailed:
		r.Failed++
		r.Failures = append(r.Failures, res)
	}
}

// Generator turns documents into previews one at a time.
type Generator struct {
	docs  DocumentOpener
	namer *Namer
	opts  Options
}

// New returns a Generator that opens documents through docs.
func New(docs DocumentOpener, opts Options) *Generator {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	return &Generator{
		docs:  docs,
		namer: NewNamer(opts.OutputDir, opts.Qualifiers).WithRoots(opts.Roots...),
		opts:  opts,
	}
}

// Run processes every path in files, passing each mapping record to rec in
// order. Walk errors and open failures are logged and skipped. With
// FailFast, the first failed document ends the run and its error is
// returned; otherwise failures are only counted. Cancellation of ctx is
// honored between documents.
func (g *Generator) Run(ctx context.Context, files iter.Seq2[string, error], rec Recorder) (BatchResult, error) {
	var result BatchResult
	for path, err := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err != nil {
			fmt.Fprintf(g.opts.Err, "failed:  walk (%v)\n", err)
			result.WalkErrors++
			continue
		}

		res := g.Document(ctx, path)
		result.add(res)
		if res.Record != nil {
			rec.Add(*res.Record)
		}
		if res.Status == types.StatusExportFailed && g.opts.FailFast {
			return result, res.Err
		}
	}

	fmt.Fprintf(g.opts.Out, "\nBatch summary: %d generated, %d unchanged, %d empty, %d skipped, %d failed (total: %d)\n",
		result.Generated, result.Unchanged, result.Empty, result.OpenFailed, result.Failed, result.Total())
	return result, nil
}

// Document renders every page of the document at path. An open failure
// yields StatusOpenFailed; a failure after opening (page access, resize,
// export, close) aborts the remaining pages and yields StatusExportFailed
// with no mapping record. A document without pages yields StatusEmpty.
func (g *Generator) Document(ctx context.Context, path string) DocumentResult {
	res := DocumentResult{Path: path}

	info, err := g.opts.Fs.Stat(path)
	if err != nil {
		fmt.Fprintf(g.opts.Err, "failed:  open %s (%v), skipping\n", path, err)
		res.Status = types.StatusOpenFailed
		res.Err = fmt.Errorf("%w %s: %w", host.ErrOpenDocument, path, err)
		return res
	}
	modified := info.ModTime()

	if prev, ok := g.unchanged(ctx, path, modified); ok {
		fmt.Fprintf(g.opts.Out, "unchanged %s\n", path)
		res.Status = types.StatusUnchanged
		res.Record = &prev.record
		res.Previews = prev.pages
		return res
	}

	var pageCount int
	err = g.docs.WithDocument(path, func(doc host.Document) error {
		fmt.Fprintf(g.opts.Out, "processing %s\n", path)
		n, err := doc.PageCount()
		if err != nil {
			return fmt.Errorf("counting pages of %s: %w", path, err)
		}
		pageCount = n
		for i := 1; i <= n; i++ {
			p, err := g.page(doc, path, i, n, modified)
			if err != nil {
				return err
			}
			res.Previews = append(res.Previews, p)
		}
		return nil
	})

	switch {
	case errors.Is(err, host.ErrOpenDocument):
		fmt.Fprintf(g.opts.Err, "failed:  %v, skipping\n", err)
		res.Status = types.StatusOpenFailed
		res.Err = err
		res.Previews = nil
		return res
	case err != nil:
		fmt.Fprintf(g.opts.Err, "failed:  %s (%v)\n", path, err)
		res.Status = types.StatusExportFailed
		res.Err = err
		return res
	case pageCount == 0:
		fmt.Fprintf(g.opts.Out, "skipped: %s (no pages)\n", path)
		res.Status = types.StatusEmpty
		return res
	}

	last := res.Previews[len(res.Previews)-1]
	res.Status = types.StatusGenerated
	res.Record = &types.MappingRecord{
		Dir:      g.opts.OutputDir,
		Preview:  last.Name,
		Source:   path,
		Pages:    pageCount,
		Modified: modified,
	}
	if g.opts.Index != nil {
		if err := g.opts.Index.Save(ctx, *res.Record, res.Previews); err != nil {
			fmt.Fprintf(g.opts.Err, "warning: indexing %s failed: %v\n", path, err)
		}
	}
	return res
}

// page resizes and exports page index of doc. The returned PagePreview
// carries the preview's file name in Name and its absolute path in Path.
func (g *Generator) page(doc host.Document, docPath string, index, count int, modified time.Time) (types.PagePreview, error) {
	page, err := doc.Page(index)
	if err != nil {
		return types.PagePreview{}, fmt.Errorf("reading page %d of %s: %w", index, docPath, err)
	}
	pageName, err := page.Name()
	if err != nil {
		return types.PagePreview{}, fmt.Errorf("reading name of page %d of %s: %w", index, docPath, err)
	}
	if g.opts.ResizePages {
		if err := page.ResizeToFitContents(); err != nil {
			return types.PagePreview{}, fmt.Errorf("resizing page %s of %s: %w", pageName, docPath, err)
		}
	}
	if count > 1 {
		fmt.Fprintf(g.opts.Out, "    page %s\n", pageName)
	}

	fileName := g.namer.FileName(docPath, pageName, count, modified)
	target, err := g.namer.Path(fileName)
	if err != nil {
		return types.PagePreview{}, err
	}
	if err := page.Export(target); err != nil {
		return types.PagePreview{}, fmt.Errorf("%w %s: %w", ErrExport, target, err)
	}
	return types.PagePreview{Index: index, Name: fileName, Path: target}, nil
}

type indexed struct {
	record types.MappingRecord
	pages  []types.PagePreview
}

// unchanged returns the indexed previews of path when incremental mode is
// on, the modification time matches, and every preview is still on disk.
func (g *Generator) unchanged(ctx context.Context, path string, modified time.Time) (indexed, bool) {
	if !g.opts.Incremental || g.opts.Index == nil {
		return indexed{}, false
	}
	rec, pages, ok, err := g.opts.Index.Lookup(ctx, path)
	if err != nil {
		fmt.Fprintf(g.opts.Err, "warning: index lookup for %s failed: %v\n", path, err)
		return indexed{}, false
	}
	if !ok || !rec.Modified.Equal(modified) || len(pages) == 0 {
		return indexed{}, false
	}
	for _, p := range pages {
		if _, err := g.opts.Fs.Stat(p.Path); err != nil {
			return indexed{}, false
		}
	}
	return indexed{record: rec, pages: pages}, true
}
