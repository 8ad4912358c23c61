package safety

import (
	"strings"
	"testing"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/dosing"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/population"
	"github.com/giygas/antibiotic-advisor/resistance"
)

func validate(t *testing.T, in patient.Input, drugs ...clinical.Drug) Report {
	t.Helper()
	p := patient.Normalize(in)
	r := clinical.Of(drugs...)
	return NewValidator(nil, nil).Validate(Request{
		Regimen:     r,
		Profile:     &p,
		Populations: population.Adjust(&p),
		Resistance:  resistance.Analyze(&p, resistance.DefaultSnapshot()),
		Dose:        dosing.NewCalculator(nil).CalculateRegimen(r, &p),
	})
}

func find(r Report, category Category, severity clinical.AlertSeverity) (Alert, bool) {
	for _, a := range r.Alerts {
		if a.Category == category && a.Severity == severity {
			return a, true
		}
	}
	return Alert{}, false
}

func TestScore(t *testing.T) {
	alert := func(s clinical.AlertSeverity) Alert { return Alert{Severity: s} }
	testCases := []struct {
		name   string
		alerts []Alert
		score  int
		level  clinical.AlertSeverity
	}{
		{"no alerts", nil, 0, clinical.AlertLow},
		{"two critical", []Alert{alert(clinical.AlertCritical), alert(clinical.AlertCritical)}, 40, clinical.AlertCritical},
		{"high lifts level", []Alert{alert(clinical.AlertHigh), alert(clinical.AlertModerate)}, 18, clinical.AlertHigh},
		{"moderates add up", []Alert{alert(clinical.AlertModerate), alert(clinical.AlertModerate), alert(clinical.AlertModerate)}, 18, clinical.AlertModerate},
		{"lows reach moderate", []Alert{alert(clinical.AlertLow), alert(clinical.AlertLow), alert(clinical.AlertLow), alert(clinical.AlertLow), alert(clinical.AlertLow)}, 10, clinical.AlertModerate},
		{"high score", []Alert{alert(clinical.AlertHigh), alert(clinical.AlertHigh), alert(clinical.AlertLow)}, 26, clinical.AlertHigh},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			score, level := Score(tc.alerts)
			if score != tc.score || level != tc.level {
				t.Errorf("Expected %d/%s, got %d/%s", tc.score, tc.level, score, level)
			}
		})
	}
}

func TestInteractionTableIsSymmetric(t *testing.T) {
	table := NewInteractionTable()
	for key, e := range table.entries {
		ab, ok1 := table.Lookup(e.A, e.B)
		ba, ok2 := table.Lookup(e.B, e.A)
		if !ok1 || !ok2 || ab != ba {
			t.Errorf("Interaction %v not symmetric", key)
		}
	}
}

func TestMedicationAgents(t *testing.T) {
	table := NewInteractionTable()
	testCases := []struct {
		medication string
		expected   string
	}{
		{"Warfarin 5mg daily", "warfarin"},
		{"simvastatin", "cyp3a4 statin"},
		{"citalopram", "qt-prolonging,ssri"},
		{"rifampicin", "rifampin,class:rifamycin"},
		{"paracetamol", ""},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.medication, func(t *testing.T) {
			got := strings.Join(table.MedicationAgents(tc.medication), ",")
			if got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestValidateAllergyIsCriticalAndBlocking(t *testing.T) {
	r := validate(t, patient.Input{Age: patient.M(40), Allergies: patient.AllergyInput{Penicillin: true}}, clinical.Amoxicillin)

	a, ok := find(r, CategoryAllergy, clinical.AlertCritical)
	if !ok || !a.RequiresOverride {
		t.Fatalf("Expected a blocking critical allergy alert, got %+v", r.Alerts)
	}
	if !r.CriticalAllergy() || !r.Blocking() {
		t.Error("Expected report to be blocking")
	}
	if r.RiskLevel != clinical.AlertCritical {
		t.Errorf("Expected critical risk level, got %s", r.RiskLevel)
	}
	if r.Alerts[0].Severity != clinical.AlertCritical {
		t.Errorf("Expected alerts ranked by severity, got %s first", r.Alerts[0].Severity)
	}
}

func TestValidateCrossReactivityIsNotBlocking(t *testing.T) {
	r := validate(t, patient.Input{Age: patient.M(40), Allergies: patient.AllergyInput{Penicillin: true}}, clinical.Cephalexin)

	if _, ok := find(r, CategoryAllergy, clinical.AlertModerate); !ok {
		t.Errorf("Expected moderate cross-reactivity alert, got %+v", r.Alerts)
	}
	if r.Blocking() {
		t.Error("Cross-reactivity alone must not block")
	}
}

func TestValidatePregnancyContraindication(t *testing.T) {
	r := validate(t, patient.Input{Age: patient.M(30), Gender: "female", Pregnancy: "yes"}, clinical.Ciprofloxacin)

	a, ok := find(r, CategoryContraindication, clinical.AlertHigh)
	if !ok || !a.RequiresOverride || !strings.Contains(a.Message, population.Pregnancy) {
		t.Errorf("Expected blocking pregnancy alert, got %+v", r.Alerts)
	}
}

func TestValidateInteractions(t *testing.T) {
	testCases := []struct {
		name        string
		medications []string
		regimen     []clinical.Drug
		severity    clinical.AlertSeverity
		blocking    bool
	}{
		{"statin and clarithromycin", []string{"Simvastatin 40 mg"}, []clinical.Drug{clinical.Clarithromycin}, clinical.AlertCritical, true},
		{"warfarin and TMP-SMX", []string{"warfarin"}, []clinical.Drug{clinical.TrimethoprimSulfa}, clinical.AlertHigh, false},
		{"regimen components", nil, []clinical.Drug{clinical.Vancomycin, clinical.PiperacillinTazobactam}, clinical.AlertModerate, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := validate(t, patient.Input{Age: patient.M(50), CurrentMedications: tc.medications}, tc.regimen...)
			a, ok := find(r, CategoryInteraction, tc.severity)
			if !ok {
				t.Fatalf("Expected %s interaction, got %+v", tc.severity, r.Alerts)
			}
			if a.RequiresOverride != tc.blocking {
				t.Errorf("Expected override %v, got %v", tc.blocking, a.RequiresOverride)
			}
		})
	}
}

func TestValidateRenalDosingAndMonitoring(t *testing.T) {
	r := validate(t, patient.Input{Age: patient.M(70), Weight: patient.M(70), Creatinine: patient.M(3.0), Gender: "male"}, clinical.Vancomycin)

	a, ok := find(r, CategoryDosing, clinical.AlertModerate)
	if !ok || !strings.Contains(a.Message, "renal dose adjustment") {
		t.Errorf("Expected renal dosing alert, got %+v", r.Alerts)
	}
	if _, ok := find(r, CategoryMonitoring, clinical.AlertLow); !ok {
		t.Error("Expected vancomycin monitoring alert")
	}
	found := false
	for _, m := range r.Monitoring {
		if strings.Contains(m, "trough") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected trough monitoring, got %v", r.Monitoring)
	}
}

func TestValidateConfirmedResistance(t *testing.T) {
	r := validate(t, patient.Input{Age: patient.M(50), Resistances: patient.ResistanceFlags{MRSA: true}}, clinical.Cefazolin)

	a, ok := find(r, CategoryContraindication, clinical.AlertHigh)
	if !ok || !a.RequiresOverride {
		t.Errorf("Expected blocking resistance alert, got %+v", r.Alerts)
	}
}
