// Package surveillance loads regional resistance snapshots from files or HTTP feeds.
// A loaded snapshot replaces the built-in one through the scheduler.
package surveillance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/resistance"
)

var (
	// ErrUnsupportedSource is returned for a source whose format cannot be inferred.
	ErrUnsupportedSource = errors.New("unsupported surveillance source")
	// ErrEmptySnapshot is returned when a source parses to no data at all.
	ErrEmptySnapshot = errors.New("surveillance snapshot is empty")
)

// Format is the encoding of a snapshot document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTSV  Format = "tsv"
)

// FormatOf infers the format from a file name or URL path.
func FormatOf(name string) (Format, error) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".tsv", ".txt":
		return FormatTSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, name)
}

// Builtin serves the compiled-in snapshot.
type Builtin struct{}

var _ interfaces.SurveillanceSource = Builtin{}

func (Builtin) Load(context.Context) (resistance.Snapshot, error) {
	return resistance.DefaultSnapshot(), nil
}

func (Builtin) Name() string { return "built-in" }

// New returns the source for a location: empty means built-in, http(s) URLs are
// fetched, anything else is read from disk.
func New(location string) (interfaces.SurveillanceSource, error) {
	switch {
	case location == "":
		return Builtin{}, nil
	case strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://"):
		return NewHTTPSource(location, nil)
	default:
		return NewFileSource(location)
	}
}

// finalize normalizes region keys, stamps the source and rejects empty snapshots.
// The document's own date wins over the fallback.
func finalize(s resistance.Snapshot, source string, fallback time.Time) (resistance.Snapshot, error) {
	regions := make(map[string]resistance.RegionalData, len(s.Regions))
	for key, data := range s.Regions {
		norm := resistance.NormalizeRegion(key)
		if norm == "" {
			continue
		}
		if norm == resistance.GlobalRegion {
			s.Default = data
			continue
		}
		regions[norm] = data
	}
	s.Regions = regions

	if len(s.Regions) == 0 && s.Default == (resistance.RegionalData{}) {
		return resistance.Snapshot{}, fmt.Errorf("%w: %s", ErrEmptySnapshot, source)
	}
	if s.Source == "" {
		s.Source = source
	}
	if s.AsOf.IsZero() {
		s.AsOf = fallback.UTC().Truncate(time.Second)
	}
	return s, nil
}
