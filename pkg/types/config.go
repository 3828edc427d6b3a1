// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MappingFormat names an output format for the preview mapping.
type MappingFormat string

const (
	FormatXLSX    MappingFormat = "xlsx"
	FormatYAML    MappingFormat = "yaml"
	FormatJSON    MappingFormat = "json"
	FormatParquet MappingFormat = "parquet"
)

// Defaults applied by the config loader when a key is absent.
const (
	DefaultOutputFolder = "data"
	DefaultExtension    = ".vsdx"
	DefaultMappingFile  = "preview2visio_mapping.xlsx"
	DefaultProgID       = "Visio.Application"
)

// PreviewConfig holds the settings for one preview generation run. It is
// loaded once at startup and passed by value to every component.
type PreviewConfig struct {
	// RootFolders are the directories scanned for diagram documents.
	RootFolders []string `json:"root_folders" yaml:"root_folders"`

	// OutputFolder receives the PNG previews and the mapping file (default "data").
	OutputFolder string `json:"output_folder" yaml:"output_folder"`

	// ExcludeFiles lists bare file names that are never processed.
	ExcludeFiles []string `json:"exclude_files,omitempty" yaml:"exclude_files,omitempty"`

	// ExcludeFolders lists folder paths whose subtrees are skipped.
	ExcludeFolders []string `json:"exclude_folders,omitempty" yaml:"exclude_folders,omitempty"`

	// QualifierNames are path components that contribute a prefix to
	// generated file names when they appear in a document's folder path.
	QualifierNames []string `json:"qualifier_names,omitempty" yaml:"qualifier_names,omitempty"`

	// Extension is the case-sensitive suffix that selects diagram files (default ".vsdx").
	Extension string `json:"extension" yaml:"extension"`

	// ResizePages resizes each page to fit its contents before export.
	ResizePages bool `json:"resize_pages" yaml:"resize_pages"`

	// MappingFile is the base name of the mapping spreadsheet.
	MappingFile string `json:"mapping_file" yaml:"mapping_file"`

	// ExportFormats selects which mapping files are written (default xlsx only).
	ExportFormats []MappingFormat `json:"export_formats" yaml:"export_formats"`

	// IndexFile is the SQLite preview index, relative to OutputFolder.
	// Empty disables the index.
	IndexFile string `json:"index_file,omitempty" yaml:"index_file,omitempty"`

	// ProgID is the COM programmatic identifier of the automation host.
	ProgID string `json:"prog_id" yaml:"prog_id"`
}
