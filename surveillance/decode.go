package surveillance

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/giygas/antibiotic-advisor/logging"
	"github.com/giygas/antibiotic-advisor/resistance"
)

const metaRegion = "_meta"

// TSVStats counts the lines a TSV decode skipped.
type TSVStats struct {
	Lines          int
	Applied        int
	Empty          int
	MissingColumns int
	FormatErrors   int
	UnknownMetrics int
}

var metricSetters = map[string]func(*resistance.RegionalData, float64){
	"mrsa":                    func(d *resistance.RegionalData, v float64) { d.MRSA = v },
	"vre":                     func(d *resistance.RegionalData, v float64) { d.VRE = v },
	"esbl":                    func(d *resistance.RegionalData, v float64) { d.ESBL = v },
	"cre":                     func(d *resistance.RegionalData, v float64) { d.CRE = v },
	"pseudomonas":             func(d *resistance.RegionalData, v float64) { d.Pseudomonas = v },
	"respiratory.macrolide":   func(d *resistance.RegionalData, v float64) { d.Respiratory.Macrolide = v },
	"respiratory.doxycycline": func(d *resistance.RegionalData, v float64) { d.Respiratory.Doxycycline = v },
	"respiratory.penicillin":  func(d *resistance.RegionalData, v float64) { d.Respiratory.Penicillin = v },
	"urinary.tmp_smx":         func(d *resistance.RegionalData, v float64) { d.Urinary.TMPSMX = v },
	"urinary.fluoroquinolone": func(d *resistance.RegionalData, v float64) { d.Urinary.Fluoroquinolone = v },
	"urinary.nitrofurantoin":  func(d *resistance.RegionalData, v float64) { d.Urinary.Nitrofurantoin = v },
	"urinary.cephalosporin":   func(d *resistance.RegionalData, v float64) { d.Urinary.Cephalosporin = v },
}

// Decode reads a snapshot document in the given format.
func Decode(r io.Reader, format Format) (resistance.Snapshot, error) {
	var s resistance.Snapshot
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&s); err != nil {
			return s, fmt.Errorf("failed to decode YAML snapshot: %w", err)
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&s); err != nil {
			return s, fmt.Errorf("failed to decode JSON snapshot: %w", err)
		}
	case FormatTSV:
		s, stats, err := DecodeTSV(r)
		if err != nil {
			return s, err
		}
		if skipped := stats.MissingColumns + stats.FormatErrors + stats.UnknownMetrics; skipped > 0 {
			logging.Warn("Skipped surveillance TSV lines",
				"lines", stats.Lines,
				"applied", stats.Applied,
				"missing_columns", stats.MissingColumns,
				"format_errors", stats.FormatErrors,
				"unknown_metrics", stats.UnknownMetrics,
			)
		}
		return s, nil
	default:
		return s, fmt.Errorf("%w: format %q", ErrUnsupportedSource, format)
	}
	return s, nil
}

// DecodeTSV reads "region<TAB>metric<TAB>percent" rows. Feeds may be ISO-8859-1 or
// UTF-8 and may use a decimal comma. Rows under the _meta region carry as_of and
// source; lines starting with '#' and the header row are ignored.
func DecodeTSV(r io.Reader) (resistance.Snapshot, TSVStats, error) {
	var stats TSVStats
	raw, err := io.ReadAll(r)
	if err != nil {
		return resistance.Snapshot{}, stats, fmt.Errorf("failed to read TSV snapshot: %w", err)
	}

	var reader io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(raw))
	}

	s := resistance.Snapshot{Regions: map[string]resistance.RegionalData{}}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		stats.Lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			stats.Empty++
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			stats.MissingColumns++
			continue
		}
		region := strings.TrimSpace(fields[0])
		metric := strings.ToLower(strings.TrimSpace(fields[1]))
		value := strings.TrimSpace(fields[2])

		if stats.Applied == 0 && strings.EqualFold(region, "region") {
			continue
		}

		if region == metaRegion {
			switch metric {
			case "as_of":
				t, err := time.Parse("2006-01-02", value)
				if err != nil {
					stats.FormatErrors++
					continue
				}
				s.AsOf = t
			case "source":
				s.Source = value
			default:
				stats.UnknownMetrics++
				continue
			}
			stats.Applied++
			continue
		}

		set, ok := metricSetters[metric]
		if !ok {
			stats.UnknownMetrics++
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
		if err != nil {
			stats.FormatErrors++
			continue
		}

		key := resistance.NormalizeRegion(region)
		data := s.Regions[key]
		set(&data, v)
		s.Regions[key] = data
		stats.Applied++
	}

	if err := scanner.Err(); err != nil {
		return resistance.Snapshot{}, stats, fmt.Errorf("scanner error in TSV snapshot: %w", err)
	}
	return s, stats, nil
}
