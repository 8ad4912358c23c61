package patient

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/giygas/antibiotic-advisor/clinical"
)

func TestCreatinineClearance(t *testing.T) {
	testCases := []struct {
		name       string
		age        float64
		weight     float64
		creatinine float64
		gender     Gender
		expected   float64
	}{
		{"female reference", 70, 70, 1.0, GenderFemale, 57.85},
		{"male reference", 70, 70, 1.0, GenderMale, 68.06},
		{"severe impairment", 70, 70, 3.0, GenderUnknown, 22.69},
		{"missing creatinine", 70, 70, 0, GenderMale, 60},
		{"negative creatinine", 30, 80, -1, GenderFemale, 60},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CreatinineClearance(tc.age, tc.weight, tc.creatinine, tc.gender)
			if math.Abs(got-tc.expected) > 0.05 {
				t.Errorf("Expected %.2f, got %.2f", tc.expected, got)
			}
		})
	}
}

func TestBodyWeights(t *testing.T) {
	ibw := IdealBodyWeight(170, GenderMale)
	if math.Abs(ibw-65.94) > 0.1 {
		t.Errorf("Expected male IBW around 65.9, got %.2f", ibw)
	}
	if female := IdealBodyWeight(170, GenderFemale); math.Abs(ibw-female-4.5) > 0.001 {
		t.Errorf("Expected female IBW 4.5 kg lower, got %.2f", female)
	}

	abw := AdjustedBodyWeight(120, 70)
	if math.Abs(abw-90) > 0.001 {
		t.Errorf("Expected ABW 90, got %.2f", abw)
	}

	lean := computeBodyMetrics(40, 70, 175, GenderMale)
	if lean.WeightBasis != WeightActual || lean.Obese {
		t.Errorf("Expected actual basis and not obese, got %+v", lean)
	}

	heavy := computeBodyMetrics(40, 130, 175, GenderMale)
	if heavy.WeightBasis != WeightAdjusted || !heavy.Obese {
		t.Errorf("Expected adjusted basis for obese adult, got %+v", heavy)
	}

	child := computeBodyMetrics(6, 20, 115, GenderFemale)
	if child.WeightBasis != WeightActual || child.IdealBodyWeight != 20 {
		t.Errorf("Expected children to keep actual weight, got %+v", child)
	}
}

func TestSeverityThresholds(t *testing.T) {
	testCases := map[int]clinical.Severity{
		0:  clinical.SeverityMild,
		5:  clinical.SeverityMild,
		6:  clinical.SeverityModerate,
		11: clinical.SeverityModerate,
		12: clinical.SeveritySevere,
		30: clinical.SeveritySevere,
	}
	for score, expected := range testCases {
		if got := SeverityFromScore(score); got != expected {
			t.Errorf("Score %d: expected %s, got %s", score, expected, got)
		}
	}
}

func TestNormalizeDerivesSevereSepsis(t *testing.T) {
	p := Normalize(Input{
		Age:              M(82),
		Gender:           "female",
		Weight:           M(60),
		Height:           M(160),
		InfectionSites:   []string{"bloodstream"},
		Symptoms:         "Septic SHOCK with confusion",
		HospitalAcquired: true,
	})

	// 3 (age) + 4 (shock) + 3 (confusion) + 3 (hospital) + 4 (high-risk site)
	if p.Severity.Score != 17 {
		t.Errorf("Expected score 17, got %d (%+v)", p.Severity.Score, p.Severity.Contributions)
	}
	if p.SeverityLevel() != clinical.SeveritySevere {
		t.Errorf("Expected severe, got %s", p.SeverityLevel())
	}
}

func TestNormalizeProvidedSeverityMismatch(t *testing.T) {
	p := Normalize(Input{
		Age:            M(30),
		Weight:         M(70),
		InfectionSites: []string{"uti"},
		Severity:       "Severe",
	})

	if p.SeverityLevel() != clinical.SeveritySevere {
		t.Errorf("Expected provided severity to win, got %s", p.SeverityLevel())
	}
	if p.Severity.Derived != clinical.SeverityMild {
		t.Errorf("Expected derived mild, got %s", p.Severity.Derived)
	}

	found := false
	for _, f := range p.Findings {
		if f.Field == "severity" {
			found = true
		}
	}
	if !found {
		t.Error("Expected a severity consistency finding")
	}
}

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize(Input{})

	if p.Age != DefaultAge || p.Weight != DefaultWeightKg || p.Height != DefaultHeightCm {
		t.Errorf("Expected defaults, got age=%v weight=%v height=%v", p.Age, p.Weight, p.Height)
	}
	if p.CrCl() != clinical.DefaultCreatinineClearance || !p.Renal.Estimated {
		t.Errorf("Expected default clearance, got %+v", p.Renal)
	}
	if len(p.Sites) != 1 || p.Sites[0] != clinical.SiteUnspecified {
		t.Errorf("Expected unspecified site, got %v", p.Sites)
	}
	if p.Completeness != 0 {
		t.Errorf("Expected zero completeness, got %v", p.Completeness)
	}

	majors := 0
	for _, f := range p.Findings {
		if f.Level == FindingMajor {
			majors++
		}
	}
	if majors < 3 {
		t.Errorf("Expected at least 3 major findings, got %d", majors)
	}
}

func TestNormalizeImplausibleWeight(t *testing.T) {
	p := Normalize(Input{Age: M(40), Weight: M(12), Height: M(180), InfectionSites: []string{"skin"}})

	found := false
	for _, f := range p.Findings {
		if f.Field == "weight" && f.Level == FindingMajor {
			found = true
		}
	}
	if !found {
		t.Error("Expected a major weight finding")
	}
}

func TestAllergyFlagsAreMonotonic(t *testing.T) {
	p := Normalize(Input{
		Allergies: AllergyInput{
			Penicillin: true,
			Other:      []string{"Bactrim (hives)", "Zithromax", "latex"},
		},
	})

	if !p.Allergies.Penicillin || !p.Allergies.Sulfa || !p.Allergies.Macrolide {
		t.Errorf("Expected penicillin, sulfa and macrolide flags, got %+v", p.Allergies)
	}
	if len(p.Allergies.Unrecognized) != 1 || p.Allergies.Unrecognized[0] != "latex" {
		t.Errorf("Expected latex to be unrecognized, got %v", p.Allergies.Unrecognized)
	}

	// an entry that names no class must not clear anything
	again := p.Allergies.With(clinical.AllergyPenicillin)
	if !again.Penicillin || !again.Sulfa {
		t.Error("Setting a flag must not clear others")
	}
}

func TestPregnancyTrimester(t *testing.T) {
	unknown := parsePregnancy("yes", Measure{})
	if !unknown.FirstTrimesterPossible() || !unknown.NearTermPossible() {
		t.Error("Unknown trimester must keep both restrictions")
	}

	second := parsePregnancy("Pregnant", M(2))
	if second.FirstTrimesterPossible() || second.NearTermPossible() {
		t.Error("Second trimester must clear both restrictions")
	}

	if parsePregnancy("unknown", Measure{}).Pregnant {
		t.Error("Unknown status must not count as pregnant")
	}
}

func TestMeasureUnmarshal(t *testing.T) {
	var in Input
	payload := `{"age":"70","weight":70.5,"height":"","creatinine":null,"trimester":"abc"}`
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !in.Age.Present || in.Age.Value != 70 {
		t.Errorf("Expected age 70, got %+v", in.Age)
	}
	if !in.Weight.Usable() || in.Weight.Value != 70.5 {
		t.Errorf("Expected weight 70.5, got %+v", in.Weight)
	}
	if in.Height.Present || in.Creatinine.Present {
		t.Error("Expected blank height and null creatinine to be absent")
	}
	if !in.Trimester.Unparseable() {
		t.Errorf("Expected unparseable trimester, got %+v", in.Trimester)
	}

	out, err := json.Marshal(in.Height)
	if err != nil || string(out) != "null" {
		t.Errorf("Expected absent measure to marshal as null, got %s (%v)", out, err)
	}
}

func TestMeasureRejectsNonFinite(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		raw     string
	}{
		{"inf string", `{"age":"inf"}`, "inf"},
		{"infinity string", `{"age":"-Infinity"}`, "-Infinity"},
		{"nan string", `{"age":"NaN"}`, "NaN"},
		{"overflowing number", `{"age":1e400}`, "1e400"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var in Input
			if err := json.Unmarshal([]byte(tc.payload), &in); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if in.Age.Present || in.Age.Raw != tc.raw {
				t.Errorf("Expected unparseable age %q, got %+v", tc.raw, in.Age)
			}

			p := Normalize(in)
			if p.Age != DefaultAge {
				t.Errorf("Expected default age %.0f, got %v", DefaultAge, p.Age)
			}

			out, err := json.Marshal(in.Age)
			if err != nil {
				t.Fatalf("Expected marshal to succeed, got %v", err)
			}
			var back Measure
			if err := json.Unmarshal(out, &back); err != nil || back.Raw != tc.raw {
				t.Errorf("Expected raw text to round-trip, got %s -> %+v (%v)", out, back, err)
			}
		})
	}
}

func TestNormalizeText(t *testing.T) {
	if got := NormalizeText("  Ｓｅｐｔｉｃ   SHOCK "); got != "septic shock" {
		t.Errorf("Expected 'septic shock', got %q", got)
	}
}
