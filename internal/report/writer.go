// Package report writes and caches the single artifact a run produces.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/yourusername/quant-edge/internal/models"
)

// DefaultOutputPath is where the latest report is written when no path is configured.
const DefaultOutputPath = "reports/today_latest.json"

// Marshal renders r as indented JSON with a trailing newline.
func Marshal(r *models.Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// Encode writes r to w in the same format WriteFile uses.
func Encode(w io.Writer, r *models.Report) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// FileWriter persists reports to a fixed path, replacing the previous file.
type FileWriter struct {
	path string
}

// NewFileWriter creates a writer for path. An empty path uses DefaultOutputPath.
func NewFileWriter(path string) *FileWriter {
	if path == "" {
		path = DefaultOutputPath
	}
	return &FileWriter{path: path}
}

// Path returns the destination file.
func (w *FileWriter) Path() string { return w.path }

// Write replaces the destination with r. The file is written to a temporary
// sibling and renamed so readers never observe a partial report.
func (w *FileWriter) Write(r *models.Report) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

// ReadFile loads a report previously written by FileWriter.
func ReadFile(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
