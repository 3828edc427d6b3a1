// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads the preview generation settings from a YAML file,
// with environment overrides, into an immutable types.PreviewConfig.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/visio-preview/pkg/types"
)

const (
	// EnvConfigFile names the environment variable holding the config path.
	EnvConfigFile = "CONFIGFILE"
	// DefaultConfigFile is used when neither a flag nor CONFIGFILE is set.
	DefaultConfigFile = "config.yaml"
	// envPrefix prefixes per-key environment overrides (VISIO_PREVIEW_OUTPUT_FOLDER).
	envPrefix = "VISIO_PREVIEW"
)

// Configuration keys as they appear in the YAML file.
const (
	keyRootFolders    = "ROOT_FOLDERS"
	keyRootFolder     = "ROOT_FOLDER"
	keyOutputFolder   = "OUTPUT_FOLDER"
	keyExcludeFiles   = "EXCLUDE_FILES"
	keyExcludeFolders = "EXCLUDE_FOLDERS"
	keyQualifierNames = "QUALIFYER_NAMES"
	keyExtension      = "EXTENSION"
	keyResizePages    = "RESIZE_PAGES"
	keyMappingFile    = "MAPPING_FILE"
	keyExportFormats  = "EXPORT_FORMATS"
	keyIndexFile      = "INDEX_FILE"
	keyProgID         = "PROG_ID"
)

// ErrNoRootFolders is returned when the config names no folder to scan.
var ErrNoRootFolders = errors.New("config: ROOT_FOLDERS or ROOT_FOLDER is required")

// Path resolves the config file location: an explicit path wins, then the
// CONFIGFILE environment variable, then config.yaml in the working directory.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfigFile); p != "" {
		return p
	}
	return DefaultConfigFile
}

// Load reads the YAML config at path and returns the resulting settings.
// A missing or malformed file, or one without root folders, is an error.
func Load(path string) (types.PreviewConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyOutputFolder, types.DefaultOutputFolder)
	v.SetDefault(keyExtension, types.DefaultExtension)
	v.SetDefault(keyResizePages, true)
	v.SetDefault(keyMappingFile, types.DefaultMappingFile)
	v.SetDefault(keyProgID, types.DefaultProgID)

	if err := v.ReadInConfig(); err != nil {
		return types.PreviewConfig{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (types.PreviewConfig, error) {
	roots := stringList(v.Get(keyRootFolders))
	if len(roots) == 0 {
		roots = stringList(v.Get(keyRootFolder))
	}
	if len(roots) == 0 {
		return types.PreviewConfig{}, ErrNoRootFolders
	}

	formats, err := parseFormats(stringList(v.Get(keyExportFormats)))
	if err != nil {
		return types.PreviewConfig{}, err
	}

	cfg := types.PreviewConfig{
		RootFolders:    roots,
		OutputFolder:   v.GetString(keyOutputFolder),
		ExcludeFiles:   stringList(v.Get(keyExcludeFiles)),
		ExcludeFolders: stringList(v.Get(keyExcludeFolders)),
		QualifierNames: stringList(v.Get(keyQualifierNames)),
		Extension:      v.GetString(keyExtension),
		ResizePages:    v.GetBool(keyResizePages),
		MappingFile:    v.GetString(keyMappingFile),
		ExportFormats:  formats,
		IndexFile:      v.GetString(keyIndexFile),
		ProgID:         v.GetString(keyProgID),
	}
	if cfg.OutputFolder == "" {
		cfg.OutputFolder = types.DefaultOutputFolder
	}
	if cfg.Extension == "" {
		cfg.Extension = types.DefaultExtension
	}
	return cfg, nil
}

// stringList accepts a scalar or a sequence. Scalars are kept whole so that
// folder names containing spaces survive.
func stringList(raw any) []string {
	var out []string
	switch val := raw.(type) {
	case nil:
	case string:
		if s := strings.TrimSpace(val); s != "" {
			out = append(out, s)
		}
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, item := range val {
			if item == nil {
				continue
			}
			if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
				out = append(out, s)
			}
		}
	default:
		if s := strings.TrimSpace(fmt.Sprint(val)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseFormats(names []string) ([]types.MappingFormat, error) {
	if len(names) == 0 {
		return []types.MappingFormat{types.FormatXLSX}, nil
	}
	formats := make([]types.MappingFormat, 0, len(names))
	for _, n := range names {
		f := types.MappingFormat(strings.ToLower(n))
		switch f {
		case types.FormatXLSX, types.FormatYAML, types.FormatJSON, types.FormatParquet:
			formats = append(formats, f)
		default:
			return nil, fmt.Errorf("config: unsupported export format %q: use xlsx, yaml, json, or parquet", n)
		}
	}
	return formats, nil
}
