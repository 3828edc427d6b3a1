// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package host wraps the document automation application that renders
// previews. The application is a single shared, stateful process: at most
// one document is open through a Session at any time, and the session quits
// the application exactly once.
package host

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrOpenDocument marks a failure to open a document in the host.
	ErrOpenDocument = errors.New("opening document")

	// ErrUnsupportedPlatform is returned by Launch where no automation host exists.
	ErrUnsupportedPlatform = errors.New("document automation host not available on this platform")
)

// Application is the automation host process.
type Application interface {
	// DocumentCount returns the number of documents currently open in the host.
	DocumentCount() (int, error)

	// Open opens the document at an absolute path.
	Open(path string) (Document, error)

	// Quit terminates the host session.
	Quit() error
}

// Document is an open diagram document. Pages are numbered from 1.
type Document interface {
	PageCount() (int, error)
	Page(index int) (Page, error)

	// MarkSaved clears the document's dirty flag so Close does not prompt.
	MarkSaved() error
	Close() error
}

// Page is one page of an open document.
type Page interface {
	Name() (string, error)
	ResizeToFitContents() error

	// Export renders the page to an image file; the format follows the
	// extension of path.
	Export(path string) error
}

// Launcher starts (or attaches to) the automation host.
type Launcher func() (Application, error)

// OpenDocumentsError reports documents already open in the host at startup.
type OpenDocumentsError struct {
	Count int
}

func (e *OpenDocumentsError) Error() string {
	return fmt.Sprintf("%d documents already open in the automation host", e.Count)
}

// Session owns the host application for one run.
type Session struct {
	app      Application
	quitOnce sync.Once
	quitErr  error
}

// Start takes ownership of app after checking that no documents are open.
// On any failure the application is quit before returning, so the caller
// never holds an orphaned host.
func Start(app Application) (*Session, error) {
	s := &Session{app: app}
	count, err := app.DocumentCount()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("counting open documents: %w", err), s.Close())
	}
	if count > 0 {
		return nil, errors.Join(&OpenDocumentsError{Count: count}, s.Close())
	}
	return s, nil
}

// Close quits the host application. Later calls return the first result.
func (s *Session) Close() error {
	s.quitOnce.Do(func() {
		if err := s.app.Quit(); err != nil {
			s.quitErr = fmt.Errorf("quitting automation host: %w", err)
		}
	})
	return s.quitErr
}

// WithDocument opens the document at path, passes it to fn, then marks it
// saved and closes it whether fn returns an error or panics. A document
// that failed to open is never closed; the error wraps ErrOpenDocument.
func (s *Session) WithDocument(path string, fn func(Document) error) (err error) {
	doc, err := s.app.Open(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrOpenDocument, path, err)
	}
	if doc == nil {
		return fmt.Errorf("%w %s: host returned no document", ErrOpenDocument, path)
	}
	defer func() {
		err = errors.Join(err, release(doc, path))
	}()
	return fn(doc)
}

func release(doc Document, path string) error {
	var errs []error
	if err := doc.MarkSaved(); err != nil {
		errs = append(errs, fmt.Errorf("marking %s saved: %w", path, err))
	}
	if err := doc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing %s: %w", path, err))
	}
	return errors.Join(errs...)
}
