package resistance

import (
	"strings"
	"testing"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
)

func TestLevelFromScore(t *testing.T) {
	testCases := []struct {
		score    int
		expected clinical.RiskLevel
	}{
		{0, clinical.RiskLow},
		{3, clinical.RiskLow},
		{4, clinical.RiskMedium},
		{6, clinical.RiskMedium},
		{7, clinical.RiskHigh},
		{9, clinical.RiskHigh},
		{10, clinical.RiskCritical},
	}
	for _, tc := range testCases {
		if got := LevelFromScore(tc.score); got != tc.expected {
			t.Errorf("Score %d: expected %s, got %s", tc.score, tc.expected, got)
		}
	}
}

func TestRiskScoreWeights(t *testing.T) {
	p := patient.Normalize(patient.Input{
		Age:                 patient.M(50),
		InfectionSites:      []string{"bloodstream"},
		HospitalAcquired:    true,
		RecentAntibiotics:   true,
		SymptomDurationDays: patient.M(10),
		Comorbidities:       patient.Comorbidities{Immunosuppression: true},
		Resistances:         patient.ResistanceFlags{CRE: true, ESBL: true, VRE: true, MRSA: true, Pseudomonas: true},
	})

	// 5+4+4+3+3 organisms, 2 hospital, 2 antibiotics, 2 immunosuppression, 1 duration
	if got := RiskScore(&p); got != 26 {
		t.Errorf("Expected 26, got %d", got)
	}
}

func TestAnalyzeConfirmedMRSA(t *testing.T) {
	p := patient.Normalize(patient.Input{
		Age:            patient.M(45),
		InfectionSites: []string{"skin"},
		Resistances:    patient.ResistanceFlags{MRSA: true},
		Region:         "Europe",
	})

	result := Analyze(&p, DefaultSnapshot())

	if result.RiskScore != 3 || result.RiskLevel != clinical.RiskLow {
		t.Errorf("Expected score 3 / low, got %d / %s", result.RiskScore, result.RiskLevel)
	}
	if !result.RegionFound || result.Region != "europe" {
		t.Errorf("Expected europe to be found, got %q (%v)", result.Region, result.RegionFound)
	}

	entry, ok := result.AvoidEntryFor(clinical.Cefazolin)
	if !ok || !entry.Confirmed {
		t.Errorf("Expected confirmed avoid entry for cefazolin, got %+v", entry)
	}
	if !result.IsPreferred(clinical.Vancomycin) {
		t.Error("Expected vancomycin to be preferred")
	}
	if len(result.Reasons) == 0 || !strings.Contains(result.Reasons[0], "MRSA-confirmed") {
		t.Errorf("Expected MRSA-confirmed reason, got %v", result.Reasons)
	}
}

func TestAnalyzeRegionalThresholds(t *testing.T) {
	p := patient.Normalize(patient.Input{
		Age:            patient.M(45),
		InfectionSites: []string{"uti"},
		Region:         "latin america",
	})

	result := Analyze(&p, DefaultSnapshot())

	if result.RiskScore != 0 {
		t.Errorf("Regional data must not change the risk score, got %d", result.RiskScore)
	}

	suspected := strings.Join(result.Suspected, ",")
	for _, label := range []string{"CRE", "ESBL", "MRSA", "Pseudomonas"} {
		if !strings.Contains(suspected, label) {
			t.Errorf("Expected %s to be suspected, got %v", label, result.Suspected)
		}
	}

	entry, ok := result.AvoidEntryFor(clinical.TrimethoprimSulfa)
	if !ok || entry.Confirmed {
		t.Errorf("Expected regional avoid entry for TMP-SMX, got %+v", entry)
	}
}

func TestAnalyzeConfirmedOverridesRegional(t *testing.T) {
	p := patient.Normalize(patient.Input{
		InfectionSites: []string{"uti"},
		Region:         "asia_pacific",
		Resistances:    patient.ResistanceFlags{ESBL: true},
	})

	result := Analyze(&p, DefaultSnapshot())
	entry, ok := result.AvoidEntryFor(clinical.Ceftriaxone)
	if !ok || !entry.Confirmed {
		t.Errorf("Expected confirmed entry to win for ceftriaxone, got %+v", entry)
	}

	seen := make(map[clinical.Drug]bool)
	for _, d := range result.AvoidDrugs() {
		if seen[d] {
			t.Errorf("Duplicate avoid entry %s", d)
		}
		seen[d] = true
	}
}

func TestAnalyzeUnknownRegionFallsBack(t *testing.T) {
	p := patient.Normalize(patient.Input{InfectionSites: []string{"respiratory"}, Region: "atlantis"})

	result := Analyze(&p, DefaultSnapshot())
	if result.RegionFound {
		t.Error("Expected unknown region to fall back")
	}
	if result.Region != GlobalRegion {
		t.Errorf("Expected global region, got %s", result.Region)
	}
	if len(result.Notes) != 1 || !strings.Contains(result.Notes[0], "global average") {
		t.Errorf("Expected a global average note, got %v", result.Notes)
	}
	if len(result.Avoid) != 0 {
		t.Errorf("Global averages sit below every threshold, got %v", result.Avoid)
	}
}

func TestSnapshotLookup(t *testing.T) {
	snap := DefaultSnapshot()

	if _, ok := snap.Lookup("North-America"); !ok {
		t.Error("Expected North-America to resolve")
	}
	if data, ok := snap.Lookup(""); ok || data != snap.Default {
		t.Error("Expected empty region to use default")
	}
	keys := snap.RegionKeys()
	if len(keys) != 7 || keys[0] != "africa" {
		t.Errorf("Expected 7 sorted keys, got %v", keys)
	}
}

func TestDefaultSnapshotIsNotShared(t *testing.T) {
	first := DefaultSnapshot()
	first.Regions["europe"] = RegionalData{MRSA: 99}
	delete(first.Regions, "africa")
	first.Regions["atlantis"] = RegionalData{ESBL: 50}

	again := DefaultSnapshot()
	if again.Regions["europe"].MRSA != 12 {
		t.Errorf("Expected europe MRSA 12, got %.0f", again.Regions["europe"].MRSA)
	}
	if _, ok := again.Regions["africa"]; !ok {
		t.Error("Expected africa to survive a caller's delete")
	}
	if _, ok := again.Regions["atlantis"]; ok {
		t.Error("Expected a caller's insert not to leak into the built-in table")
	}
}
