// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	imageExt   = ".png"
	dateLayout = "20060102"
)

// unsafeChars replaces the characters reserved in Windows and POSIX paths.
var unsafeChars = strings.NewReplacer(
	`\`, "_", "/", "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Sanitize replaces each of \ / : * ? " < > | in name with an underscore.
func Sanitize(name string) string {
	return unsafeChars.Replace(name)
}

// Namer computes collision-free preview file names inside one output folder.
type Namer struct {
	outputDir  string
	qualifiers map[string]struct{}
	roots      []root
}

// root pairs a walk root as configured with its absolute form.
type root struct {
	given string
	abs   string
}

// NewNamer returns a Namer writing under outputDir that prefixes names with
// every qualifier found in a document's folder path.
func NewNamer(outputDir string, qualifiers []string) *Namer {
	n := &Namer{
		outputDir:  outputDir,
		qualifiers: make(map[string]struct{}, len(qualifiers)),
	}
	for _, q := range qualifiers {
		n.qualifiers[q] = struct{}{}
	}
	return n
}

// WithRoots records the walk roots as configured. Qualifiers are then
// matched against a document's path as walked from its root (for a relative
// root, the relative path), not against the working directory's ancestors.
func (n *Namer) WithRoots(roots ...string) *Namer {
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		n.roots = append(n.roots, root{given: r, abs: abs})
	}
	return n
}

// walkedPath rewrites an absolute docPath relative to the deepest root
// containing it, rejoined onto that root as configured. Paths outside every
// root are returned unchanged.
func (n *Namer) walkedPath(docPath string) string {
	best, bestLen := docPath, -1
	for _, r := range n.roots {
		rel, err := filepath.Rel(r.abs, docPath)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(r.abs) > bestLen {
			best, bestLen = filepath.Join(r.given, rel), len(r.abs)
		}
	}
	return best
}

// QualifierPrefix concatenates "<token>_" for each component of dir that is
// a qualifier, from root to leaf.
func (n *Namer) QualifierPrefix(dir string) string {
	var b strings.Builder
	for _, part := range splitPath(dir) {
		if _, ok := n.qualifiers[part]; ok {
			b.WriteString(part)
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FileName returns the preview name for one page of the document at
// docPath: <prefix><stem>_<page>_<YYYYMMDD>.png, where the page segment is
// present only for documents with more than one page.
func (n *Namer) FileName(docPath, pageName string, pageCount int, modified time.Time) string {
	base := filepath.Base(docPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var b strings.Builder
	b.WriteString(n.QualifierPrefix(filepath.Dir(n.walkedPath(docPath))))
	b.WriteString(stem)
	b.WriteByte('_')
	if pageCount > 1 {
		b.WriteString(pageName)
		b.WriteByte('_')
	}
	b.WriteString(modified.Format(dateLayout))
	b.WriteString(imageExt)
	return Sanitize(b.String())
}

// Path resolves fileName to an absolute path in the output folder.
func (n *Namer) Path(fileName string) (string, error) {
	p, err := filepath.Abs(filepath.Join(n.outputDir, fileName))
	if err != nil {
		return "", fmt.Errorf("resolving preview path %s: %w", fileName, err)
	}
	return p, nil
}

func splitPath(dir string) []string {
	return strings.FieldsFunc(filepath.ToSlash(dir), func(r rune) bool { return r == '/' })
}
