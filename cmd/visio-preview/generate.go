// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pdiddy/visio-preview/internal/host"
	"github.com/pdiddy/visio-preview/internal/mapping"
	"github.com/pdiddy/visio-preview/internal/preview"
	"github.com/pdiddy/visio-preview/internal/walk"
	"github.com/pdiddy/visio-preview/pkg/types"
)

// launcherFor picks the automation host for a config; tests replace it.
var launcherFor = func(cfg types.PreviewConfig) host.Launcher {
	return host.Launch(cfg.ProgID)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Export PNG previews of every Visio document under the root folders",
	Long: `Generate opens each matching Visio document through the Visio
application, resizes every page to fit its contents, exports each page as a
PNG into the output folder, and writes the preview mapping spreadsheet.

Visio must have no documents open when generate starts. Documents that
cannot be opened are skipped. A document whose export fails is abandoned,
the remaining documents are still processed, and the command exits non-zero.`,
	RunE: runGenerate,
}

// generateOptions carries the flags of the generate command.
type generateOptions struct {
	output      string
	incremental bool
	failFast    bool
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var opts generateOptions
	opts.output, _ = cmd.Flags().GetString("output")
	opts.incremental, _ = cmd.Flags().GetBool("incremental")
	opts.failFast, _ = cmd.Flags().GetBool("fail-fast")
	if opts.output != "" {
		cfg.OutputFolder = opts.output
	}

	return generate(cmdContext(cmd), cfg, opts, launcherFor(cfg), afero.NewOsFs(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// generate runs one preview generation pass: start the host session, walk
// the root folders, render each document, write the mapping, quit the host.
func generate(ctx context.Context, cfg types.PreviewConfig, opts generateOptions, launch host.Launcher, fsys afero.Fs, stdout, stderr io.Writer) (err error) {
	if err := os.MkdirAll(cfg.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("creating output folder %s: %w", cfg.OutputFolder, err)
	}

	var index *mapping.Index
	if cfg.IndexFile != "" {
		index, err = mapping.OpenIndex(filepath.Join(cfg.OutputFolder, cfg.IndexFile))
		if err != nil {
			return err
		}
		defer index.Close()
	}

	app, err := launch()
	if err != nil {
		return err
	}
	session, err := host.Start(app)
	if err != nil {
		var openErr *host.OpenDocumentsError
		if errors.As(err, &openErr) {
			fmt.Fprintf(stderr, "There are %d open documents in Visio, close all before starting this program.\n", openErr.Count)
		}
		return err
	}
	defer func() {
		err = errors.Join(err, session.Close())
	}()

	genOpts := preview.Options{
		OutputDir:   cfg.OutputFolder,
		Qualifiers:  cfg.QualifierNames,
		Roots:       cfg.RootFolders,
		ResizePages: cfg.ResizePages,
		Incremental: opts.incremental,
		FailFast:    opts.failFast,
		Fs:          fsys,
		Out:         stdout,
		Err:         stderr,
	}
	if index != nil {
		genOpts.Index = index
	}
	gen := preview.New(session, genOpts)

	walker := walk.New(fsys, walk.Options{
		Extension:      cfg.Extension,
		ExcludeFiles:   cfg.ExcludeFiles,
		ExcludeFolders: cfg.ExcludeFolders,
	})

	var rec mapping.Recorder
	result, runErr := gen.Run(ctx, walker.Files(cfg.RootFolders...), &rec)

	paths, err := mapping.Write(cfg.OutputFolder, cfg.MappingFile, cfg.ExportFormats, rec.Records())
	if err != nil {
		return errors.Join(runErr, err)
	}
	for _, p := range paths {
		fmt.Fprintf(stdout, "wrote %s (%d records)\n", p, rec.Len())
	}

	if runErr != nil {
		return runErr
	}
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed export", result.Failed)
	}
	fmt.Fprintln(stdout, "done.")
	return nil
}

func init() {
	generateCmd.Flags().String("output", "", "override OUTPUT_FOLDER")
	generateCmd.Flags().Bool("incremental", false, "skip documents whose indexed previews are up to date (needs INDEX_FILE)")
	generateCmd.Flags().Bool("fail-fast", false, "stop the run at the first document whose export fails")

	rootCmd.AddCommand(generateCmd)
}
