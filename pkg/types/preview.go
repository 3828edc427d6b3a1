// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DocumentStatus records what happened to one diagram document during a run.
type DocumentStatus string

const (
	StatusGenerated    DocumentStatus = "generated"
	StatusEmpty        DocumentStatus = "empty"
	StatusOpenFailed   DocumentStatus = "open_failed"
	StatusExportFailed DocumentStatus = "export_failed"
	StatusUnchanged    DocumentStatus = "unchanged"
)

// MappingRecord links a generated preview image to its source document.
// One record is produced per document that has at least one page.
type MappingRecord struct {
	// Dir is the output folder holding the preview.
	Dir string `json:"dir" yaml:"dir" parquet:"dir"`

	// Preview is the file name of the last page's preview image.
	Preview string `json:"preview" yaml:"preview" parquet:"preview"`

	// Source is the path of the diagram document.
	Source string `json:"source" yaml:"source" parquet:"source"`

	// Pages is the number of pages exported for the document.
	Pages int `json:"pages" yaml:"pages" parquet:"pages"`

	// Modified is the document's last modification time.
	Modified time.Time `json:"modified" yaml:"modified" parquet:"modified,timestamp"`
}

// PagePreview is one exported page image.
type PagePreview struct {
	Index int    `json:"index" yaml:"index"`
	Name  string `json:"name" yaml:"name"`
	Path  string `json:"path" yaml:"path"`
}
