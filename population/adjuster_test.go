package population

import (
	"strings"
	"testing"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
)

func profile(in patient.Input) *patient.Profile {
	p := patient.Normalize(in)
	return &p
}

func TestAdjustHealthyAdult(t *testing.T) {
	adj := Adjust(profile(patient.Input{Age: patient.M(35), Weight: patient.M(75), Creatinine: patient.M(0.9), Gender: "male"}))

	if len(adj.Records) != 0 {
		t.Errorf("Expected no populations, got %v", adj.Populations)
	}
	if adj.RiskCategory != clinical.CategoryLow {
		t.Errorf("Expected low risk category, got %s", adj.RiskCategory)
	}
}

func TestAdjustPregnancyUnknownTrimester(t *testing.T) {
	adj := Adjust(profile(patient.Input{Age: patient.M(28), Gender: "female", Pregnancy: "yes"}))

	if !adj.Applies(Pregnancy) {
		t.Fatal("Expected pregnancy record")
	}
	for _, d := range []clinical.Drug{clinical.Doxycycline, clinical.Ciprofloxacin, clinical.Nitrofurantoin, clinical.Metronidazole, clinical.TrimethoprimSulfa} {
		if !adj.IsContraindicated(d) {
			t.Errorf("Expected %s to be contraindicated", d)
		}
	}
	if adj.IsContraindicated(clinical.Cephalexin) {
		t.Error("Cephalexin must stay available in pregnancy")
	}

	found := false
	for _, p := range adj.Precautions {
		if strings.Contains(p, "pregnancy-safe") {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected pregnancy-safe precaution, got %v", adj.Precautions)
	}
}

func TestAdjustPregnancySecondTrimester(t *testing.T) {
	adj := Adjust(profile(patient.Input{Age: patient.M(28), Gender: "female", Pregnancy: "yes", Trimester: patient.M(2)}))

	if adj.IsContraindicated(clinical.Nitrofurantoin) || adj.IsContraindicated(clinical.Metronidazole) {
		t.Error("Second trimester must not restrict nitrofurantoin or metronidazole")
	}
	if !adj.IsContraindicated(clinical.Levofloxacin) {
		t.Error("Fluoroquinolones stay contraindicated in every trimester")
	}
}

func TestAdjustPediatricTiers(t *testing.T) {
	testCases := []struct {
		name         string
		age          float64
		doxycycline  bool
		ceftriaxone  bool
		riskCategory clinical.RiskCategory
	}{
		{"neonate", 0.05, true, true, clinical.CategoryCritical},
		{"young child", 5, true, false, clinical.CategoryHigh},
		{"adolescent", 14, false, false, clinical.CategoryModerate},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			adj := Adjust(profile(patient.Input{Age: patient.M(tc.age), Weight: patient.M(4 + tc.age*3)}))
			if adj.IsContraindicated(clinical.Doxycycline) != tc.doxycycline {
				t.Errorf("Doxycycline contraindicated: expected %v", tc.doxycycline)
			}
			if adj.IsContraindicated(clinical.Ceftriaxone) != tc.ceftriaxone {
				t.Errorf("Ceftriaxone contraindicated: expected %v", tc.ceftriaxone)
			}
			if adj.RiskCategory != tc.riskCategory {
				t.Errorf("Expected %s, got %s", tc.riskCategory, adj.RiskCategory)
			}
		})
	}
}

func TestAdjustRenalTiers(t *testing.T) {
	testCases := []struct {
		name       string
		creatinine float64
		category   clinical.RiskCategory
		severity   clinical.AlertSeverity
		gentamicin bool
	}{
		{"moderate", 1.6, clinical.CategoryModerate, clinical.AlertHigh, false},
		{"severe", 3.0, clinical.CategoryHigh, clinical.AlertHigh, true},
		{"failure", 6.0, clinical.CategoryCritical, clinical.AlertCritical, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := profile(patient.Input{Age: patient.M(50), Weight: patient.M(70), Creatinine: patient.M(tc.creatinine), Gender: "male"})
			adj := Adjust(p)
			if !adj.Applies(Renal) {
				t.Fatalf("Expected renal record for CrCl %.1f", p.CrCl())
			}
			r := adj.Records[0]
			if r.RiskCategory != tc.category || r.Severity != tc.severity {
				t.Errorf("Expected %s/%s, got %s/%s", tc.category, tc.severity, r.RiskCategory, r.Severity)
			}
			if !adj.IsContraindicated(clinical.Nitrofurantoin) {
				t.Error("Nitrofurantoin must be contraindicated in every renal tier")
			}
			if adj.IsContraindicated(clinical.Gentamicin) != tc.gentamicin {
				t.Errorf("Gentamicin contraindicated: expected %v", tc.gentamicin)
			}
		})
	}
}

func TestAdjustGeriatric(t *testing.T) {
	testCases := []struct {
		name       string
		creatinine float64
		tmpSmx     bool
		category   clinical.RiskCategory
	}{
		{"preserved renal function", 0.8, false, clinical.CategoryModerate},
		{"CrCl below 60", 1.2, true, clinical.CategoryHigh},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := profile(patient.Input{Age: patient.M(80), Weight: patient.M(70), Creatinine: patient.M(tc.creatinine), Gender: "male"})
			adj := Adjust(p)
			if len(adj.Records) == 0 || adj.Records[0].Population != Geriatric {
				t.Fatalf("Expected geriatric record first, got %v", adj.Populations)
			}
			r := adj.Records[0]
			if r.RiskCategory != tc.category {
				t.Errorf("Expected %s, got %s", tc.category, r.RiskCategory)
			}

			restricted := make(map[clinical.Drug]bool)
			for _, c := range r.Contraindicated {
				restricted[c.Drug] = true
			}
			if restricted[clinical.TrimethoprimSulfa] != tc.tmpSmx || restricted[clinical.Nitrofurantoin] != tc.tmpSmx {
				t.Errorf("Expected TMP-SMX and nitrofurantoin restricted=%v at CrCl %.1f, got %v", tc.tmpSmx, p.CrCl(), r.Contraindicated)
			}
			if adj.IsContraindicated(clinical.TrimethoprimSulfa) != tc.tmpSmx {
				t.Errorf("Expected merged TMP-SMX contraindication %v", tc.tmpSmx)
			}
		})
	}
}

func TestMergeKeepsMostSevereAndDeduplicates(t *testing.T) {
	p := profile(patient.Input{
		Age:           patient.M(78),
		Weight:        patient.M(60),
		Creatinine:    patient.M(8),
		Gender:        "female",
		Comorbidities: patient.Comorbidities{HepaticDisease: true},
	})
	adj := Adjust(p)

	if adj.RiskCategory != clinical.CategoryCritical {
		t.Errorf("Expected critical, got %s", adj.RiskCategory)
	}
	expected := []string{Geriatric, Renal, Hepatic}
	if strings.Join(adj.Populations, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected populations %v, got %v", expected, adj.Populations)
	}

	seen := make(map[clinical.Drug]bool)
	for _, d := range adj.Preferred {
		if seen[d] {
			t.Errorf("Duplicate preferred drug %s", d)
		}
		seen[d] = true
	}
}
