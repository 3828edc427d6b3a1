//go:build mage

// Package main contains Mage build targets for visio-preview developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "visio-preview"
	cmdPkg  = "./cmd/visio-preview"
)

// sampleConfig is written by Init when no config.yaml exists.
const sampleConfig = `ROOT_FOLDERS:
  - C:\Diagrams
OUTPUT_FOLDER: data
EXCLUDE_FILES: []
EXCLUDE_FOLDERS: []
QUALIFYER_NAMES: []
EXPORT_FORMATS: [xlsx]
INDEX_FILE: previews.db
`

// Init creates the output folder and a sample config.yaml.
func Init() error {
	if err := os.MkdirAll("data", 0o755); err != nil {
		return fmt.Errorf("creating data: %w", err)
	}
	fmt.Println("   data")
	if _, err := os.Stat("config.yaml"); err == nil {
		fmt.Println("config.yaml already exists, leaving it alone.")
		return nil
	}
	if err := os.WriteFile("config.yaml", []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("writing config.yaml: %w", err)
	}
	fmt.Println("Wrote sample config.yaml.")
	return nil
}

// Build compiles the CLI binary into bin/. Cross-compile for Visio hosts
// with GOOS=windows.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := binPath()
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests, then vets the tree for Windows so the COM
// binding keeps compiling on non-Windows development machines.
func Test() error {
	if err := sh.RunV("go", "test", "./..."); err != nil {
		return err
	}
	return sh.RunWithV(map[string]string{"GOOS": "windows"}, "go", "vet", "./...")
}

// Generate builds the CLI and runs a preview generation pass with the
// config named by CONFIGFILE (or ./config.yaml).
func Generate() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "generate")
}

// binPath is where Build writes the CLI, with .exe when targeting Windows.
func binPath() string {
	goos := os.Getenv("GOOS")
	if goos == "" {
		goos = runtime.GOOS
	}
	name := binName
	if goos == "windows" {
		name += ".exe"
	}
	return filepath.Join(binDir, name)
}

// Stats prints project metrics: Go production and test LOC.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}
	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// countGoLines walks the directory tree and counts non-blank lines in Go files.
// If testOnly is true, count only _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), "_") || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				total++
			}
		}
		return nil
	})
	return total, err
}
