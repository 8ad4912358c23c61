package surveillance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/resistance"
)

// FileSource reads a snapshot document from disk on every Load.
type FileSource struct {
	path   string
	format Format
}

var _ interfaces.SurveillanceSource = (*FileSource)(nil)

// NewFileSource infers the format from the file extension.
func NewFileSource(path string) (*FileSource, error) {
	clean := filepath.Clean(path)
	format, err := FormatOf(clean)
	if err != nil {
		return nil, err
	}
	return &FileSource{path: clean, format: format}, nil
}

func (f *FileSource) Name() string { return f.path }

// Load reads and decodes the file. Snapshots without a date take the file's
// modification time.
func (f *FileSource) Load(ctx context.Context) (resistance.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return resistance.Snapshot{}, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close surveillance file", "path", f.path, "error", err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}

	s, err := Decode(file, f.format)
	if err != nil {
		return resistance.Snapshot{}, fmt.Errorf("%s: %w", f.path, err)
	}
	return finalize(s, filepath.Base(f.path), info.ModTime())
}
