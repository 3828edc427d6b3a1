// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build windows

package host

import (
	"fmt"
	"runtime"

	ole "github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// Launch returns a Launcher that dispatches the COM server registered as
// progID (normally "Visio.Application"). The calling goroutine is locked to
// its OS thread until Quit, as COM apartments are per thread.
func Launch(progID string) Launcher {
	return func() (Application, error) {
		runtime.LockOSThread()
		if err := ole.CoInitialize(0); err != nil && !alreadyInitialized(err) {
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("initializing COM: %w", err)
		}
		unknown, err := oleutil.CreateObject(progID)
		if err != nil {
			ole.CoUninitialize()
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("creating %s: %w", progID, err)
		}
		defer unknown.Release()

		app, err := unknown.QueryInterface(ole.IID_IDispatch)
		if err != nil {
			ole.CoUninitialize()
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("querying IDispatch on %s: %w", progID, err)
		}
		return &visioApp{app: app}, nil
	}
}

type visioApp struct {
	app *ole.IDispatch
}

func (v *visioApp) documents() (*ole.IDispatch, error) {
	docs, err := oleutil.GetProperty(v.app, "Documents")
	if err != nil {
		return nil, fmt.Errorf("reading Documents: %w", err)
	}
	return docs.ToIDispatch(), nil
}

func (v *visioApp) DocumentCount() (int, error) {
	docs, err := v.documents()
	if err != nil {
		return 0, err
	}
	defer docs.Release()
	return intProperty(docs, "Count")
}

func (v *visioApp) Open(path string) (Document, error) {
	docs, err := v.documents()
	if err != nil {
		return nil, err
	}
	defer docs.Release()

	res, err := oleutil.CallMethod(docs, "Open", path)
	if err != nil {
		return nil, err
	}
	return &visioDoc{doc: res.ToIDispatch()}, nil
}

func (v *visioApp) Quit() error {
	defer runtime.UnlockOSThread()
	defer ole.CoUninitialize()
	defer v.app.Release()
	_, err := oleutil.CallMethod(v.app, "Quit")
	return err
}

type visioDoc struct {
	doc    *ole.IDispatch
	opened []*ole.IDispatch
}

func (d *visioDoc) pages() (*ole.IDispatch, error) {
	pages, err := oleutil.GetProperty(d.doc, "Pages")
	if err != nil {
		return nil, fmt.Errorf("reading Pages: %w", err)
	}
	return pages.ToIDispatch(), nil
}

func (d *visioDoc) PageCount() (int, error) {
	pages, err := d.pages()
	if err != nil {
		return 0, err
	}
	defer pages.Release()
	return intProperty(pages, "Count")
}

func (d *visioDoc) Page(index int) (Page, error) {
	pages, err := d.pages()
	if err != nil {
		return nil, err
	}
	defer pages.Release()

	item, err := oleutil.GetProperty(pages, "Item", index)
	if err != nil {
		return nil, fmt.Errorf("reading page %d: %w", index, err)
	}
	page := item.ToIDispatch()
	d.opened = append(d.opened, page)
	return &visioPage{page: page}, nil
}

func (d *visioDoc) MarkSaved() error {
	_, err := oleutil.PutProperty(d.doc, "Saved", true)
	return err
}

func (d *visioDoc) Close() error {
	defer d.doc.Release()
	for _, p := range d.opened {
		p.Release()
	}
	d.opened = nil
	_, err := oleutil.CallMethod(d.doc, "Close")
	return err
}

// visioPage is released by the owning document's Close.
type visioPage struct {
	page *ole.IDispatch
}

func (p *visioPage) Name() (string, error) {
	v, err := oleutil.GetProperty(p.page, "Name")
	if err != nil {
		return "", err
	}
	return v.ToString(), nil
}

func (p *visioPage) ResizeToFitContents() error {
	_, err := oleutil.CallMethod(p.page, "ResizeToFitContents")
	return err
}

func (p *visioPage) Export(path string) error {
	_, err := oleutil.CallMethod(p.page, "Export", path)
	return err
}

func intProperty(disp *ole.IDispatch, name string) (int, error) {
	v, err := oleutil.GetProperty(disp, name)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", name, err)
	}
	defer v.Clear()
	switch n := v.Value().(type) {
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected %s value %v", name, v.Value())
	}
}

// alreadyInitialized reports S_FALSE from CoInitialize: COM was already
// initialized on this thread, which is not a failure.
func alreadyInitialized(err error) bool {
	oleErr, ok := err.(*ole.OleError)
	return ok && oleErr.Code() == sFalse
}

const sFalse = 0x00000001
