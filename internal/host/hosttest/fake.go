// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hosttest provides an in-memory automation host for tests.
package hosttest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdiddy/visio-preview/internal/host"
)

// FakeDocument describes a document the fake host can open.
type FakeDocument struct {
	Pages []string

	// OpenErr makes Open fail for this document.
	OpenErr error
	// ExportErr maps a page name to the error its Export returns.
	ExportErr map[string]error
	// CloseErr is returned by Close.
	CloseErr error
}

// App is a fake host.Application. Exports are written as small files on the
// real filesystem so callers can check what landed on disk.
type App struct {
	mu sync.Mutex

	// Open documents reported at startup.
	Preopened int
	// Docs maps absolute paths to documents.
	Docs map[string]*FakeDocument
	// WriteFiles controls whether Export creates the target file.
	WriteFiles bool

	Opened   []string
	Exported []string
	Resized  []string
	Closed   []string
	Saved    []string
	Quits    int

	openNow int
	maxOpen int
}

// NewApp returns a fake host knowing docs.
func NewApp(docs map[string]*FakeDocument) *App {
	return &App{Docs: docs}
}

// Launcher returns a host.Launcher yielding a.
func (a *App) Launcher() host.Launcher {
	return func() (host.Application, error) { return a, nil }
}

// MaxConcurrentOpen returns the highest number of documents open at once.
func (a *App) MaxConcurrentOpen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxOpen
}

// OpenNow returns the number of documents currently open.
func (a *App) OpenNow() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openNow
}

func (a *App) DocumentCount() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Preopened + a.openNow, nil
}

func (a *App) Open(path string) (host.Document, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.Docs[path]
	if !ok {
		return nil, fmt.Errorf("no such document: %s", path)
	}
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	a.Opened = append(a.Opened, path)
	a.openNow++
	if a.openNow > a.maxOpen {
		a.maxOpen = a.openNow
	}
	return &doc{app: a, path: path, def: d}, nil
}

func (a *App) Quit() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Quits++
	return nil
}

type doc struct {
	app    *App
	path   string
	def    *FakeDocument
	closed bool
}

func (d *doc) PageCount() (int, error) { return len(d.def.Pages), nil }

func (d *doc) Page(index int) (host.Page, error) {
	if index < 1 || index > len(d.def.Pages) {
		return nil, fmt.Errorf("page %d out of range", index)
	}
	return &page{doc: d, name: d.def.Pages[index-1]}, nil
}

func (d *doc) MarkSaved() error {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	d.app.Saved = append(d.app.Saved, d.path)
	return nil
}

func (d *doc) Close() error {
	d.app.mu.Lock()
	defer d.app.mu.Unlock()
	if d.closed {
		return errors.New("document closed twice")
	}
	d.closed = true
	d.app.openNow--
	d.app.Closed = append(d.app.Closed, d.path)
	return d.def.CloseErr
}

type page struct {
	doc  *doc
	name string
}

func (p *page) Name() (string, error) { return p.name, nil }

func (p *page) ResizeToFitContents() error {
	p.doc.app.mu.Lock()
	defer p.doc.app.mu.Unlock()
	p.doc.app.Resized = append(p.doc.app.Resized, p.name)
	return nil
}

func (p *page) Export(path string) error {
	if err := p.doc.def.ExportErr[p.name]; err != nil {
		return err
	}
	p.doc.app.mu.Lock()
	p.doc.app.Exported = append(p.doc.app.Exported, path)
	write := p.doc.app.WriteFiles
	p.doc.app.mu.Unlock()
	if write {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, []byte("png"), 0o644)
	}
	return nil
}
