// Package population derives restrictions, dose guidance and monitoring for special
// populations: pregnancy, children, older adults, renal and hepatic impairment.
package population

import (
	"fmt"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
)

// Population names.
const (
	Pregnancy = "pregnancy"
	Pediatric = "pediatric"
	Geriatric = "geriatric"
	Renal     = "renal"
	Hepatic   = "hepatic"
)

// Restriction is a drug restricted for a population.
type Restriction struct {
	Drug   clinical.Drug `json:"drug"`
	Reason string        `json:"reason"`
}

// Adjustment is the record of one applicable population. Contraindicated drugs raise
// blocking alerts of Severity; cautions raise non-blocking moderate alerts.
type Adjustment struct {
	Population      string                 `json:"population"`
	RiskCategory    clinical.RiskCategory  `json:"riskCategory"`
	Severity        clinical.AlertSeverity `json:"severity"`
	Contraindicated []Restriction          `json:"contraindicated,omitempty"`
	Cautions        []Restriction          `json:"cautions,omitempty"`
	DoseAdjustments []string               `json:"doseAdjustments,omitempty"`
	Monitoring      []string               `json:"monitoring,omitempty"`
	Preferred       []clinical.Drug        `json:"preferred,omitempty"`
	Precautions     []string               `json:"precautions,omitempty"`
}

// Adjustments is the merge of every applicable record.
type Adjustments struct {
	Records         []Adjustment          `json:"records,omitempty"`
	Populations     []string              `json:"populations,omitempty"`
	RiskCategory    clinical.RiskCategory `json:"riskCategory"`
	Contraindicated []clinical.Drug       `json:"contraindicated,omitempty"`
	DoseAdjustments []string              `json:"doseAdjustments,omitempty"`
	Monitoring      []string              `json:"monitoring,omitempty"`
	Preferred       []clinical.Drug       `json:"preferred,omitempty"`
	Precautions     []string              `json:"precautions,omitempty"`
}

// Applies reports whether the population was applicable.
func (a Adjustments) Applies(population string) bool {
	for _, p := range a.Populations {
		if p == population {
			return true
		}
	}
	return false
}

// IsContraindicated reports whether any record contraindicates the drug.
func (a Adjustments) IsContraindicated(d clinical.Drug) bool {
	for _, c := range a.Contraindicated {
		if c == d {
			return true
		}
	}
	return false
}

// Adjust evaluates every population rule against the profile.
func Adjust(p *patient.Profile) Adjustments {
	var records []Adjustment
	for _, rule := range []func(*patient.Profile) (Adjustment, bool){
		pregnancyRule, pediatricRule, geriatricRule, renalRule, hepaticRule,
	} {
		if adj, ok := rule(p); ok {
			records = append(records, adj)
		}
	}
	return Merge(records...)
}

// Merge concatenates and de-duplicates the records and keeps the most severe category.
func Merge(records ...Adjustment) Adjustments {
	merged := Adjustments{RiskCategory: clinical.CategoryLow}
	drugSeen := make(map[clinical.Drug]bool)
	preferredSeen := make(map[clinical.Drug]bool)
	textSeen := make(map[string]bool)

	appendText := func(dst []string, items []string) []string {
		for _, s := range items {
			if !textSeen[s] {
				textSeen[s] = true
				dst = append(dst, s)
			}
		}
		return dst
	}

	for _, r := range records {
		merged.Records = append(merged.Records, r)
		merged.Populations = append(merged.Populations, r.Population)
		merged.RiskCategory = clinical.MaxCategory(merged.RiskCategory, r.RiskCategory)
		for _, c := range r.Contraindicated {
			if !drugSeen[c.Drug] {
				drugSeen[c.Drug] = true
				merged.Contraindicated = append(merged.Contraindicated, c.Drug)
			}
		}
		for _, d := range r.Preferred {
			if !preferredSeen[d] {
				preferredSeen[d] = true
				merged.Preferred = append(merged.Preferred, d)
			}
		}
		merged.DoseAdjustments = appendText(merged.DoseAdjustments, r.DoseAdjustments)
		merged.Monitoring = appendText(merged.Monitoring, r.Monitoring)
		merged.Precautions = appendText(merged.Precautions, r.Precautions)
	}
	return merged
}

func restrict(reason string, drugs ...clinical.Drug) []Restriction {
	out := make([]Restriction, len(drugs))
	for i, d := range drugs {
		out[i] = Restriction{Drug: d, Reason: reason}
	}
	return out
}

func pregnancyRule(p *patient.Profile) (Adjustment, bool) {
	if !p.Pregnancy.Pregnant {
		return Adjustment{}, false
	}

	adj := Adjustment{
		Population:   Pregnancy,
		RiskCategory: clinical.CategoryHigh,
		Severity:     clinical.AlertHigh,
		Preferred: []clinical.Drug{
			clinical.Amoxicillin, clinical.Cephalexin, clinical.Ceftriaxone,
			clinical.AmoxicillinClavulanate, clinical.Azithromycin, clinical.Fosfomycin,
		},
		DoseAdjustments: []string{"Pregnancy: use full standard doses; volume of distribution and renal clearance are increased"},
		Monitoring:      []string{"Pregnancy: obstetric follow-up and fetal monitoring in moderate or severe infection"},
		Precautions: []string{
			"Pregnancy: pregnancy-safe antibiotic selection applied; tetracyclines and fluoroquinolones excluded",
		},
	}
	adj.Contraindicated = append(adj.Contraindicated,
		restrict("tetracyclines affect fetal bone and tooth development", clinical.DrugsInClass(clinical.ClassTetracycline)...)...)
	adj.Contraindicated = append(adj.Contraindicated,
		restrict("fluoroquinolones carry fetal cartilage toxicity", clinical.DrugsInClass(clinical.ClassFluoroquinolone)...)...)
	if p.Pregnancy.FirstTrimesterPossible() {
		adj.Contraindicated = append(adj.Contraindicated,
			restrict("avoid in the first trimester", clinical.Metronidazole, clinical.TrimethoprimSulfa)...)
	}
	if p.Pregnancy.NearTermPossible() {
		adj.Contraindicated = append(adj.Contraindicated,
			restrict("avoid near term: neonatal kernicterus and hemolysis risk", clinical.TrimethoprimSulfa, clinical.Nitrofurantoin)...)
		if p.Pregnancy.Trimester == 0 {
			adj.Precautions = append(adj.Precautions, "Pregnancy: trimester unknown; first-trimester and near-term restrictions both applied")
		}
	}
	adj.Cautions = restrict("aminoglycosides carry fetal ototoxicity risk",
		clinical.DrugsInClass(clinical.ClassAminoglycoside)...)
	adj.Cautions = append(adj.Cautions, restrict("clarithromycin has shown fetal toxicity in animal studies", clinical.Clarithromycin)...)
	return adj, true
}

func pediatricRule(p *patient.Profile) (Adjustment, bool) {
	if !p.IsPediatric() {
		return Adjustment{}, false
	}

	adj := Adjustment{
		Population:      Pediatric,
		RiskCategory:    clinical.CategoryModerate,
		Severity:        clinical.AlertHigh,
		Preferred:       []clinical.Drug{clinical.Amoxicillin, clinical.Cephalexin, clinical.AmoxicillinClavulanate, clinical.Azithromycin},
		DoseAdjustments: []string{fmt.Sprintf("Pediatric: weight-based dosing scaled to %.1f kg", p.Weight)},
		Monitoring:      []string{"Pediatric: verify weight-based dose and hydration status"},
		Precautions:     []string{fmt.Sprintf("Pediatric patient (%.1f years): age-restricted antibiotic classes excluded", p.Age)},
	}

	if p.Age < clinical.YoungChildAgeBelow {
		adj.RiskCategory = clinical.CategoryHigh
		adj.Contraindicated = append(adj.Contraindicated,
			restrict("tetracyclines cause permanent tooth discoloration under age 8", clinical.DrugsInClass(clinical.ClassTetracycline)...)...)
		adj.Contraindicated = append(adj.Contraindicated,
			restrict("fluoroquinolones affect cartilage development in young children", clinical.DrugsInClass(clinical.ClassFluoroquinolone)...)...)
	} else {
		adj.Cautions = restrict("fluoroquinolones only when no alternative exists in adolescents",
			clinical.DrugsInClass(clinical.ClassFluoroquinolone)...)
	}

	if p.Age < clinical.NeonateAgeBelow {
		adj.RiskCategory = clinical.CategoryCritical
		adj.Contraindicated = append(adj.Contraindicated,
			restrict("displaces bilirubin in neonates", clinical.Ceftriaxone, clinical.TrimethoprimSulfa)...)
	}
	return adj, true
}

func geriatricRule(p *patient.Profile) (Adjustment, bool) {
	if !p.IsGeriatric() {
		return Adjustment{}, false
	}

	adj := Adjustment{
		Population:   Geriatric,
		RiskCategory: clinical.CategoryModerate,
		Severity:     clinical.AlertModerate,
		Preferred:    []clinical.Drug{clinical.Cephalexin, clinical.Ceftriaxone, clinical.Amoxicillin, clinical.AmoxicillinClavulanate},
		DoseAdjustments: []string{
			"Geriatric: reduced-intensity dosing above age 65; reassess renal function before each dose change",
		},
		Monitoring: []string{
			"Geriatric: renal function",
			"Geriatric: C. difficile symptoms",
			"Geriatric: delirium and falls",
		},
		Precautions: []string{fmt.Sprintf("Older adult (%.0f years): prefer agents with low interaction burden", p.Age)},
	}
	adj.Cautions = restrict("tendinopathy, QT prolongation and delirium risk in older adults",
		clinical.DrugsInClass(clinical.ClassFluoroquinolone)...)

	if p.CrCl() < clinical.RenalModerateBelow {
		adj.RiskCategory = clinical.CategoryHigh
		adj.Severity = clinical.AlertHigh
		adj.Contraindicated = restrict("hyperkalemia and toxicity risk with CrCl below 60 mL/min in older adults",
			clinical.TrimethoprimSulfa, clinical.Nitrofurantoin)
		adj.Precautions = append(adj.Precautions,
			fmt.Sprintf("Older adult with CrCl %.0f mL/min: avoid nitrofurantoin and trimethoprim-sulfamethoxazole", p.CrCl()))
		return adj, true
	}
	adj.Cautions = append(adj.Cautions, restrict("hyperkalemia risk in older adults", clinical.TrimethoprimSulfa)...)
	return adj, true
}

func renalRule(p *patient.Profile) (Adjustment, bool) {
	crcl := p.CrCl()
	aminoglycosides := clinical.DrugsInClass(clinical.ClassAminoglycoside)
	monitoring := []string{
		"Renal: serum creatinine every 48-72 hours",
		"Renal: trough levels for vancomycin and aminoglycosides",
	}

	switch {
	case crcl < clinical.RenalFailureBelow:
		adj := renalAdjustment(crcl, clinical.CategoryCritical, clinical.AlertCritical, monitoring)
		adj.Contraindicated = restrict("contraindicated with CrCl below 15 mL/min", clinical.Nitrofurantoin, clinical.TrimethoprimSulfa)
		adj.Contraindicated = append(adj.Contraindicated, restrict("nephrotoxic in kidney failure", aminoglycosides...)...)
		adj.Contraindicated = append(adj.Contraindicated, restrict("nephrotoxic in kidney failure", clinical.Colistin)...)
		adj.Contraindicated = append(adj.Contraindicated, restrict("seizure risk in kidney failure", clinical.Imipenem)...)
		return adj, true
	case crcl < clinical.RenalSevereBelow:
		adj := renalAdjustment(crcl, clinical.CategoryHigh, clinical.AlertHigh, monitoring)
		adj.Contraindicated = restrict("ineffective or toxic with CrCl below 30 mL/min", clinical.Nitrofurantoin, clinical.TrimethoprimSulfa)
		adj.Contraindicated = append(adj.Contraindicated, restrict("nephrotoxic with severe renal impairment", aminoglycosides...)...)
		adj.Cautions = restrict("nephrotoxic with severe renal impairment", clinical.Colistin, clinical.Vancomycin)
		return adj, true
	case crcl < clinical.RenalModerateBelow:
		adj := renalAdjustment(crcl, clinical.CategoryModerate, clinical.AlertHigh, monitoring)
		adj.Contraindicated = restrict("reduced urinary concentration with CrCl below 60 mL/min", clinical.Nitrofurantoin)
		adj.Cautions = restrict("nephrotoxic with renal impairment", aminoglycosides...)
		return adj, true
	case p.Comorbidities.RenalDisease:
		return Adjustment{
			Population:   Renal,
			RiskCategory: clinical.CategoryLow,
			Severity:     clinical.AlertModerate,
			Monitoring:   monitoring[:1],
			Precautions:  []string{"Renal disease with preserved clearance: monitor renal function"},
		}, true
	}
	return Adjustment{}, false
}

func renalAdjustment(crcl float64, category clinical.RiskCategory, severity clinical.AlertSeverity, monitoring []string) Adjustment {
	return Adjustment{
		Population:   Renal,
		RiskCategory: category,
		Severity:     severity,
		Preferred: []clinical.Drug{
			clinical.Ceftriaxone, clinical.Linezolid, clinical.Doxycycline, clinical.Azithromycin, clinical.Clindamycin,
		},
		DoseAdjustments: []string{
			fmt.Sprintf("Renal: CrCl %.1f mL/min; renally cleared antibiotics need interval extension or dose reduction", crcl),
		},
		Monitoring: monitoring,
		Precautions: []string{
			fmt.Sprintf("Renal impairment (CrCl %.1f mL/min): renal dose adjustment required; avoid nephrotoxic agents", crcl),
		},
	}
}

func hepaticRule(p *patient.Profile) (Adjustment, bool) {
	if !p.Comorbidities.HepaticDisease {
		return Adjustment{}, false
	}

	return Adjustment{
		Population:      Hepatic,
		RiskCategory:    clinical.CategoryHigh,
		Severity:        clinical.AlertHigh,
		Contraindicated: restrict("hepatotoxic", clinical.Rifampin, clinical.Erythromycin),
		Cautions:        restrict("cholestatic hepatitis risk", clinical.AmoxicillinClavulanate),
		DoseAdjustments: []string{"Hepatic: hepatically cleared agents (metronidazole, clindamycin, tigecycline) reduced by 30%"},
		Monitoring:      []string{"Hepatic: liver function tests weekly"},
		Preferred:       []clinical.Drug{clinical.Ceftriaxone, clinical.Cefepime, clinical.Vancomycin},
		Precautions:     []string{"Hepatic impairment: hepatotoxic antibiotics excluded and hepatic dose reduction applied"},
	}, true
}
