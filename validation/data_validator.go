// Package validation checks request input at the service edge and reports the quality
// of surveillance snapshots. The clinical core accepts any input; this layer only
// rejects what is malformed or hostile.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/giygas/antibiotic-advisor/interfaces"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/resistance"
)

var (
	// ErrInvalidRegion is returned for region names that cannot be a region key.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrDangerousInput is returned for input carrying injection payloads.
	ErrDangerousInput = errors.New("input contains potentially dangerous content")
)

const (
	maxTextLength   = 500
	maxListEntries  = 50
	maxRegionLength = 64
	staleAfter      = 365 * 24 * time.Hour
)

var (
	// Free text: letters in any script, digits, whitespace and clinical punctuation
	inputRegex  = regexp.MustCompile(`^[\p{L}\p{M}\p{N}\s\-\.\,\+'/\(\)%:;<>=°]+$`)
	regionRegex = regexp.MustCompile(`^[a-z][a-z_]*$`)

	// Substring checks are cheaper than regexes for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "@import",
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"xp_", "exec(", "execute(",
		"`", "$(", "${",
		"../", "..\\", "%2e%2e", "file://",
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct {
	now func() time.Time
}

// Compile-time check to ensure DataValidatorImpl implements DataValidator
var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{now: time.Now}
}

// ValidateInput checks one free-text field. Empty input is valid.
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	if len(input) > maxTextLength {
		return fmt.Errorf("input too long: maximum %d characters", maxTextLength)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return ErrDangerousInput
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateRegion returns the normalized key of a region name. An empty name is
// valid and selects the default entry.
func (v *DataValidatorImpl) ValidateRegion(region string) (string, error) {
	if len(region) > maxRegionLength {
		return "", fmt.Errorf("%w: longer than %d characters", ErrInvalidRegion, maxRegionLength)
	}
	key := resistance.NormalizeRegion(region)
	if key == "" {
		return "", nil
	}
	if !regionRegex.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, region)
	}
	return key, nil
}

// ValidatePatientInput checks the free-text and list fields of a request.
func (v *DataValidatorImpl) ValidatePatientInput(in *patient.Input) error {
	if in == nil {
		return fmt.Errorf("patient input is required")
	}

	fields := map[string]string{
		"gender":    in.Gender,
		"pregnancy": in.Pregnancy,
		"severity":  in.Severity,
		"symptoms":  in.Symptoms,
	}
	for _, name := range []string{"gender", "pregnancy", "severity", "symptoms"} {
		if err := v.ValidateInput(fields[name]); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	lists := []struct {
		name   string
		values []string
	}{
		{"infectionSites", in.InfectionSites},
		{"currentMedications", in.CurrentMedications},
		{"allergies.other", in.Allergies.Other},
	}
	for _, list := range lists {
		if len(list.values) > maxListEntries {
			return fmt.Errorf("%s: too many entries (maximum %d)", list.name, maxListEntries)
		}
		for i, value := range list.values {
			if err := v.ValidateInput(value); err != nil {
				return fmt.Errorf("%s[%d]: %w", list.name, i, err)
			}
		}
	}

	if _, err := v.ValidateRegion(in.Region); err != nil {
		return fmt.Errorf("region: %w", err)
	}
	return nil
}

// ReportSnapshotQuality generates a quality report for a snapshot
func (v *DataValidatorImpl) ReportSnapshotQuality(snapshot resistance.Snapshot) *interfaces.SnapshotQualityReport {
	report := &interfaces.SnapshotQualityReport{Regions: len(snapshot.Regions)}

	canonical := make(map[string]bool)
	for _, key := range resistance.DefaultSnapshot().RegionKeys() {
		canonical[key] = true
	}

	check := func(region string, data resistance.RegionalData) {
		if data == (resistance.RegionalData{}) {
			report.EmptyRegions = append(report.EmptyRegions, region)
			return
		}
		for _, m := range metrics(data) {
			if math.IsNaN(m.value) || m.value < 0 || m.value > 100 {
				report.OutOfRange = append(report.OutOfRange, region+"."+m.name)
			}
		}
	}

	check(resistance.GlobalRegion, snapshot.Default)
	for _, region := range snapshot.RegionKeys() {
		check(region, snapshot.Regions[region])
		if !canonical[region] {
			report.UnknownRegions = append(report.UnknownRegions, region)
		}
	}
	sort.Strings(report.OutOfRange)

	if snapshot.AsOf.IsZero() {
		report.MissingAsOf = snapshot.Source != "built-in"
	} else {
		report.StaleDays = int(v.now().Sub(snapshot.AsOf).Hours() / 24)
	}
	return report
}

// IsStale reports whether a snapshot report describes data older than a year.
func IsStale(report *interfaces.SnapshotQualityReport) bool {
	return report != nil && time.Duration(report.StaleDays)*24*time.Hour > staleAfter
}

type metric struct {
	name  string
	value float64
}

func metrics(d resistance.RegionalData) []metric {
	return []metric{
		{"mrsa", d.MRSA},
		{"vre", d.VRE},
		{"esbl", d.ESBL},
		{"cre", d.CRE},
		{"pseudomonas", d.Pseudomonas},
		{"respiratory.macrolide", d.Respiratory.Macrolide},
		{"respiratory.doxycycline", d.Respiratory.Doxycycline},
		{"respiratory.penicillin", d.Respiratory.Penicillin},
		{"urinary.tmp_smx", d.Urinary.TMPSMX},
		{"urinary.fluoroquinolone", d.Urinary.Fluoroquinolone},
		{"urinary.nitrofurantoin", d.Urinary.Nitrofurantoin},
		{"urinary.cephalosporin", d.Urinary.Cephalosporin},
	}
}

// hasExcessiveRepetition checks for the same character repeated more than 10 times
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] && input[i] != ' ' {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}
