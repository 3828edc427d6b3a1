// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/visio-preview/internal/mapping"
	"github.com/pdiddy/visio-preview/pkg/types"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Query and export the preview index",
	Long: `Mapping reads the SQLite preview index (INDEX_FILE in the output folder)
maintained by generate. Use subcommands to list indexed previews or to
rewrite the mapping file from the index.`,
}

// --- list subcommand ---

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed previews",
	RunE:  runMappingList,
}

func runMappingList(cmd *cobra.Command, args []string) error {
	index, _, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	records, err := index.List(cmdContext(cmd), mapping.ListOptions{Source: source, Limit: limit})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatMappingList(cmd.OutOrStdout(), records, jsonOutput)
}

func formatMappingList(w io.Writer, records []types.MappingRecord, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No previews indexed.")
		return nil
	}

	fmt.Fprintf(w, "%-40s  %-5s  %-10s  %s\n", "Preview", "Pages", "Modified", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, r := range records {
		name := r.Preview
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(w, "%-40s  %-5d  %-10s  %s\n", name, r.Pages, r.Modified.Local().Format("2006-01-02"), r.Source)
	}
	fmt.Fprintf(w, "\n%d documents\n", len(records))
	return nil
}

// --- export subcommand ---

var mappingExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the mapping file from the preview index",
	Long: `Export writes every indexed mapping record to the output folder in the
requested format, using MAPPING_FILE as the base name.`,
	RunE: runMappingExport,
}

func runMappingExport(cmd *cobra.Command, args []string) error {
	index, cfg, err := openIndex()
	if err != nil {
		return err
	}
	defer index.Close()

	format, _ := cmd.Flags().GetString("format")
	records, err := index.List(cmdContext(cmd), mapping.ListOptions{})
	if err != nil {
		return err
	}

	paths, err := mapping.Write(cfg.OutputFolder, cfg.MappingFile, []types.MappingFormat{types.MappingFormat(strings.ToLower(format))}, records)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(records), p)
	}
	return nil
}

// --- shared helpers ---

func openIndex() (*mapping.Index, types.PreviewConfig, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	if cfg.IndexFile == "" {
		return nil, cfg, fmt.Errorf("no preview index configured: set INDEX_FILE")
	}
	index, err := mapping.OpenIndex(filepath.Join(cfg.OutputFolder, cfg.IndexFile))
	if err != nil {
		return nil, cfg, err
	}
	return index, cfg, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	mappingListCmd.Flags().String("source", "", "only documents whose path contains this text")
	mappingListCmd.Flags().Int("limit", 0, "maximum results (0 = all)")
	mappingListCmd.Flags().Bool("json", false, "output results as JSON")

	mappingExportCmd.Flags().String("format", "xlsx", "export format: xlsx, yaml, json, or parquet")

	mappingCmd.AddCommand(mappingListCmd)
	mappingCmd.AddCommand(mappingExportCmd)

	rootCmd.AddCommand(mappingCmd)
}
