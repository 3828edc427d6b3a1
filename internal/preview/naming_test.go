// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var march2 = time.Date(2024, time.March, 2, 15, 4, 5, 0, time.Local)

func TestFileName(t *testing.T) {
	tests := []struct {
		name       string
		qualifiers []string
		docPath    string
		pageName   string
		pageCount  int
		want       string
	}{
		{
			name:       "single page with qualifier",
			qualifiers: []string{"ACME"},
			docPath:    "/projects/ACME/diagrams/Plan.vsdx",
			pageName:   "Page-1",
			pageCount:  1,
			want:       "ACME_Plan_20240302.png",
		},
		{
			name:      "multi page without qualifier",
			docPath:   "/projects/other/Arch.vsdx",
			pageName:  "Overview",
			pageCount: 2,
			want:      "Arch_Overview_20240302.png",
		},
		{
			name:       "qualifiers concatenate in path order",
			qualifiers: []string{"ACME", "Globex"},
			docPath:    "/x/Globex/y/ACME/z/Net.vsdx",
			pageCount:  1,
			want:       "Globex_ACME_Net_20240302.png",
		},
		{
			name:       "repeated qualifier component contributes twice",
			qualifiers: []string{"ACME"},
			docPath:    "/ACME/ACME/Net.vsdx",
			pageCount:  1,
			want:       "ACME_ACME_Net_20240302.png",
		},
		{
			name:       "qualifier must match a whole component",
			qualifiers: []string{"ACME"},
			docPath:    "/ACME-old/ACMEx/Net.vsdx",
			pageCount:  1,
			want:       "Net_20240302.png",
		},
		{
			name:       "file name itself is not a qualifier",
			qualifiers: []string{"ACME.vsdx", "ACME"},
			docPath:    "/projects/ACME.vsdx",
			pageCount:  1,
			want:       "ACME_20240302.png",
		},
		{
			name:      "unsafe page name characters are replaced",
			docPath:   "/p/Flow.vsdx",
			pageName:  `In/Out: a*b?"c"<d>|e\f`,
			pageCount: 3,
			want:      "Flow_In_Out_ a_b__c__d__e_f_20240302.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNamer("out", tt.qualifiers)
			assert.Equal(t, tt.want, n.FileName(tt.docPath, tt.pageName, tt.pageCount, march2))
		})
	}
}

func TestSanitize(t *testing.T) {
	const unsafe = `\/:*?"<>|`
	for _, r := range unsafe {
		in := "a" + string(r) + "b"
		assert.Equal(t, "a_b", Sanitize(in), "character %q", r)
	}
	assert.Equal(t, "plain name-1.png", Sanitize("plain name-1.png"))
	assert.Equal(t, strings.Repeat("_", len(unsafe)), Sanitize(unsafe))
}

func TestQualifierPrefix(t *testing.T) {
	n := NewNamer("out", []string{"ACME", "Globex"})
	assert.Equal(t, "", n.QualifierPrefix("/projects/diagrams"))
	assert.Equal(t, "ACME_", n.QualifierPrefix("/projects/ACME/diagrams"))
	assert.Equal(t, "ACME_Globex_", n.QualifierPrefix("ACME/Globex"))

	none := NewNamer("out", nil)
	assert.Equal(t, "", none.QualifierPrefix("/projects/ACME"))
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	n := NewNamer(dir, nil)
	p, err := n.Path("Plan_20240302.png")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
	assert.Equal(t, filepath.Join(dir, "Plan_20240302.png"), p)
}

func TestFileName_QualifiersFromRelativeRoot(t *testing.T) {
	work := filepath.Join(t.TempDir(), "ACME", "work")
	require.NoError(t, os.MkdirAll(work, 0o755))
	t.Chdir(work)

	doc, err := filepath.Abs(filepath.Join("docs", "Globex", "Plan.vsdx"))
	require.NoError(t, err)

	n := NewNamer("out", []string{"ACME", "Globex"}).WithRoots("docs")
	assert.Equal(t, "Globex_Plan_20240302.png", n.FileName(doc, "Page-1", 1, march2),
		"working directory ancestors must not qualify")

	abs := NewNamer("out", []string{"ACME", "Globex"}).WithRoots(filepath.Join(work, "docs"))
	assert.Equal(t, "ACME_Globex_Plan_20240302.png", abs.FileName(doc, "Page-1", 1, march2),
		"an absolute root keeps its own components")

	outside := filepath.Join(filepath.Dir(work), "other", "Net.vsdx")
	assert.Equal(t, "ACME_Net_20240302.png", n.FileName(outside, "Page-1", 1, march2))
}
