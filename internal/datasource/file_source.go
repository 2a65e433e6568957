package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/yourusername/quant-edge/internal/models"
)

const fileSourceName = "snapshot_file"

// FileSource reads a snapshot written by an external collector. A "{date}"
// placeholder in the path is replaced with the run date.
type FileSource struct {
	path string
}

// NewFileSource creates a file-backed source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the name of the data source
func (s *FileSource) Name() string { return fileSourceName }

// Path resolves the file read for runDate.
func (s *FileSource) Path(runDate models.Date) string {
	return strings.ReplaceAll(s.path, "{date}", runDate.String())
}

// FetchSnapshot decodes the snapshot file for runDate. The file is read fresh
// on every call.
func (s *FileSource) FetchSnapshot(ctx context.Context, runDate models.Date) (*models.DataSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.Path(runDate)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewDataSourceError(fileSourceName, ErrCodeNotFound, path, ErrNotFound)
		}
		return nil, NewDataSourceError(fileSourceName, ErrCodeNetworkError, "failed to read "+path, err)
	}

	var snap models.DataSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, NewDataSourceError(fileSourceName, ErrCodeInvalidData, "failed to parse "+path, err)
	}
	return &snap, nil
}
