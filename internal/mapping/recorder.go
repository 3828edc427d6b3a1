// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mapping records which preview image belongs to which diagram
// document, writes the mapping spreadsheet, and keeps a SQLite index of
// previews across runs.
package mapping

import "github.com/pdiddy/visio-preview/pkg/types"

// Recorder accumulates mapping records in processing order.
type Recorder struct {
	records []types.MappingRecord
}

// Add appends r.
func (r *Recorder) Add(rec types.MappingRecord) {
	r.records = append(r.records, rec)
}

// Records returns a copy of the recorded mappings in insertion order.
func (r *Recorder) Records() []types.MappingRecord {
	out := make([]types.MappingRecord, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records.
func (r *Recorder) Len() int { return len(r.records) }
