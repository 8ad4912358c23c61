package validation

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/resistance"
)

func TestValidateInput(t *testing.T) {
	v := NewDataValidator()
	testCases := []struct {
		name      string
		input     string
		wantErr   bool
		dangerous bool
	}{
		{"empty", "", false, false},
		{"clinical prose", "Fever 39.5°C, productive cough; dyspnea (2 days)", false, false},
		{"medication", "Warfarin 5 mg daily", false, false},
		{"accented", "Amoxicilline/acide clavulanique", false, false},
		{"comparison", "CrCl < 30", false, false},
		{"script tag", "<script>alert(1)</script>", true, true},
		{"sql", "x'; DROP TABLE patients", true, true},
		{"path traversal", "../../etc/passwd", true, true},
		{"template", "${jndi:ldap}", true, true},
		{"bad characters", "cough!!", true, false},
		{"repetition", "aaaaaaaaaaaaaaa", true, false},
		{"too long", strings.Repeat("ab", 300), true, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := v.ValidateInput(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("Expected error %v, got %v", tc.wantErr, err)
			}
			if errors.Is(err, ErrDangerousInput) != tc.dangerous {
				t.Errorf("Expected dangerous %v, got %v", tc.dangerous, err)
			}
		})
	}
}

func TestValidateRegion(t *testing.T) {
	v := NewDataValidator()
	testCases := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"", "", false},
		{"North America", "north_america", false},
		{"Asia-Pacific", "asia_pacific", false},
		{"  europe ", "europe", false},
		{"europe1", "", true},
		{"??", "", true},
		{strings.Repeat("a", 65), "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := v.ValidateRegion(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidRegion) {
					t.Errorf("Expected ErrInvalidRegion, got %v", err)
				}
				return
			}
			if err != nil || got != tc.expected {
				t.Errorf("Expected %q, got %q (%v)", tc.expected, got, err)
			}
		})
	}
}

func TestValidatePatientInput(t *testing.T) {
	v := NewDataValidator()
	valid := func() *patient.Input {
		return &patient.Input{
			Gender:             "female",
			InfectionSites:     []string{"urinary tract"},
			Symptoms:           "dysuria, frequency",
			CurrentMedications: []string{"levothyroxine 50 mcg"},
			Allergies:          patient.AllergyInput{Other: []string{"latex"}},
			Region:             "Europe",
		}
	}

	if err := v.ValidatePatientInput(valid()); err != nil {
		t.Fatalf("Expected valid input, got %v", err)
	}
	if err := v.ValidatePatientInput(nil); err == nil {
		t.Error("Expected error for nil input")
	}

	testCases := []struct {
		name     string
		mutate   func(*patient.Input)
		expected string
	}{
		{"dangerous symptoms", func(in *patient.Input) { in.Symptoms = "<script>" }, "symptoms"},
		{"dangerous medication", func(in *patient.Input) { in.CurrentMedications = []string{"ok", "$(rm -rf)"} }, "currentMedications[1]"},
		{"too many sites", func(in *patient.Input) { in.InfectionSites = make([]string, 51) }, "infectionSites"},
		{"bad region", func(in *patient.Input) { in.Region = "region#5" }, "region"},
		{"bad allergy", func(in *patient.Input) { in.Allergies.Other = []string{"../x"} }, "allergies.other[0]"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid()
			tc.mutate(in)
			err := v.ValidatePatientInput(in)
			if err == nil || !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error mentioning %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestReportSnapshotQualityBuiltin(t *testing.T) {
	report := NewDataValidator().ReportSnapshotQuality(resistance.DefaultSnapshot())

	if report.HasIssues() {
		t.Errorf("Built-in snapshot should be clean, got %+v", report)
	}
	if report.Regions != len(resistance.DefaultSnapshot().Regions) {
		t.Errorf("Expected %d regions, got %d", len(resistance.DefaultSnapshot().Regions), report.Regions)
	}
}

func TestReportSnapshotQualityIssues(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	v := &DataValidatorImpl{now: func() time.Time { return now }}

	report := v.ReportSnapshotQuality(resistance.Snapshot{
		Regions: map[string]resistance.RegionalData{
			"atlantis": {MRSA: 120, Urinary: resistance.UrinaryResistance{TMPSMX: -1}},
			"europe":   {},
		},
		AsOf:   now.Add(-400 * 24 * time.Hour),
		Source: "feed",
	})

	if !reflect.DeepEqual(report.OutOfRange, []string{"atlantis.mrsa", "atlantis.urinary.tmp_smx"}) {
		t.Errorf("Unexpected out of range values %v", report.OutOfRange)
	}
	if !reflect.DeepEqual(report.EmptyRegions, []string{"global", "europe"}) {
		t.Errorf("Unexpected empty regions %v", report.EmptyRegions)
	}
	if !reflect.DeepEqual(report.UnknownRegions, []string{"atlantis"}) {
		t.Errorf("Unexpected unknown regions %v", report.UnknownRegions)
	}
	if report.StaleDays != 400 || !IsStale(report) {
		t.Errorf("Expected a stale snapshot, got %d days", report.StaleDays)
	}

	undated := v.ReportSnapshotQuality(resistance.Snapshot{Default: resistance.RegionalData{MRSA: 10}, Source: "feed"})
	if !undated.MissingAsOf {
		t.Error("Expected missing date to be reported")
	}
}
