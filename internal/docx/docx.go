// Package docx scans a source DOCX for insertion placeholders,
// extracts the reserved table geometry, and rewrites the document with
// the marker tokens the PDF stages search for.
package docx

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
)

const documentPart = "word/document.xml"

// Document is a DOCX package held in memory for scanning and marker
// rewriting.
type Document struct {
	path  string
	parts []part
	xml   []byte

	// placements recorded by Scan, keyed by descriptor index.
	overlaySpans map[int]overlaySpan
	mergeSpans   map[int]mergeSpan
}

type part struct {
	name string
	data []byte
}

// Load reads the DOCX package at path.
func Load(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	d := &Document{
		path:         path,
		overlaySpans: make(map[int]overlaySpan),
		mergeSpans:   make(map[int]mergeSpan),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s in %s: %w", f.Name, path, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s in %s: %w", f.Name, path, err)
		}
		d.parts = append(d.parts, part{name: f.Name, data: data})
		if f.Name == documentPart {
			d.xml = data
		}
	}
	if d.xml == nil {
		return nil, fmt.Errorf("%s: no %s part", path, documentPart)
	}
	return d, nil
}

// Path returns the path the document was loaded from.
func (d *Document) Path() string { return d.path }

// Save writes the package, with any rewrites applied, to path.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, p := range d.parts {
		data := p.data
		if p.name == documentPart {
			data = d.xml
		}
		w, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("writing %s to %s: %w", p.name, path, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("writing %s to %s: %w", p.name, path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing %s: %w", path, err)
	}
	return nil
}
