package dosing

import (
	"fmt"
	"math"
	"strings"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
)

// Dose is the calculated dose of one drug.
type Dose struct {
	Drug              clinical.Drug       `json:"drug"`
	DoseMg            float64             `json:"doseMg"`
	Dose              string              `json:"dose"`
	Frequency         string              `json:"frequency"`
	Route             string              `json:"route"`
	WeightBasis       patient.WeightBasis `json:"weightBasis,omitempty"`
	DosingWeight      float64             `json:"dosingWeight,omitempty"`
	Adjustments       []string            `json:"adjustments,omitempty"`
	AgeAdjustment     string              `json:"ageAdjustment,omitempty"`
	WeightAdjustment  string              `json:"weightAdjustment,omitempty"`
	RenalAdjustment   string              `json:"renalAdjustment,omitempty"`
	HepaticAdjustment string              `json:"hepaticAdjustment,omitempty"`
	TableEntryFound   bool                `json:"tableEntryFound"`
}

// RegimenDose is the calculated dose of a combination regimen.
type RegimenDose struct {
	Regimen           string   `json:"regimen"`
	Dose              string   `json:"dose"`
	Frequency         string   `json:"frequency"`
	Route             string   `json:"route"`
	Components        []Dose   `json:"components"`
	Adjustments       []string `json:"adjustments,omitempty"`
	RenalAdjustment   string   `json:"renalAdjustment,omitempty"`
	HepaticAdjustment string   `json:"hepaticAdjustment,omitempty"`
}

// Calculator applies patient adjustments to a dosing table.
type Calculator struct {
	table Table
}

// NewCalculator returns a calculator over table, or the default table when nil.
func NewCalculator(table Table) *Calculator {
	if table == nil {
		table = DefaultTable()
	}
	return &Calculator{table: table}
}

// Calculate applies age, weight, renal and hepatic adjustments in that order and rounds to
// the nearest 10 units. A drug without a table entry gets its class base dose unmodified.
func (c *Calculator) Calculate(d clinical.Drug, p *patient.Profile) Dose {
	entry, ok := c.table[d]
	if !ok {
		return baseDose(d)
	}

	dose := Dose{
		Drug:            d,
		Frequency:       entry.Frequency,
		Route:           entry.Route,
		TableEntryFound: true,
	}

	amount := entry.BaseDose
	if entry.WeightSensitive() {
		weight, basis := dosingWeight(entry, p)
		dose.WeightBasis = basis
		dose.DosingWeight = weight
		amount = entry.PerKg * weight
		dose.Adjustments = append(dose.Adjustments, fmt.Sprintf("%.0f %s/kg on %s body weight %.1f kg", entry.PerKg, entry.Unit, basis, weight))
		if basis != patient.WeightActual {
			dose.WeightAdjustment = fmt.Sprintf("%s body weight %.1f kg used instead of actual %.1f kg", basis, weight, p.Weight)
		}
	}

	switch {
	case p.Age > clinical.DoseReductionAgeAbove:
		amount *= clinical.GeriatricDoseFactor
		dose.AgeAdjustment = fmt.Sprintf("age over %.0f: dose x%.1f", clinical.DoseReductionAgeAbove, clinical.GeriatricDoseFactor)
		dose.Adjustments = append(dose.Adjustments, dose.AgeAdjustment)
	case p.IsPediatric() && !entry.WeightSensitive():
		factor := math.Min(p.Weight/clinical.ReferenceAdultWeightKg, 1)
		amount *= factor
		dose.AgeAdjustment = fmt.Sprintf("pediatric: dose x%.2f (weight %.1f kg / %.0f kg)", factor, p.Weight, clinical.ReferenceAdultWeightKg)
		dose.Adjustments = append(dose.Adjustments, dose.AgeAdjustment)
	}

	if p.Body.Obese && !p.IsPediatric() && entry.Weight == FixedDose {
		amount *= clinical.ObesityDoseFactor
		dose.WeightAdjustment = fmt.Sprintf("obesity (BMI %.1f): dose x%.1f", p.Body.BMI, clinical.ObesityDoseFactor)
		dose.Adjustments = append(dose.Adjustments, dose.WeightAdjustment)
	}

	if entry.MaxDose > 0 && amount > entry.MaxDose {
		amount = entry.MaxDose
		dose.Adjustments = append(dose.Adjustments, fmt.Sprintf("capped at %.0f %s per dose", entry.MaxDose, entry.Unit))
	}

	if tier, ok := entry.tier(p.CrCl()); ok {
		parts := []string{fmt.Sprintf("CrCl %.1f mL/min (< %.0f)", p.CrCl(), tier.Below)}
		if tier.Frequency != "" && tier.Frequency != dose.Frequency {
			dose.Frequency = tier.Frequency
			parts = append(parts, "interval "+tier.Frequency)
		}
		if tier.DoseFactor > 0 && tier.DoseFactor != 1 {
			amount *= tier.DoseFactor
			parts = append(parts, fmt.Sprintf("dose x%.2f", tier.DoseFactor))
		}
		if tier.Note != "" {
			parts = append(parts, tier.Note)
		}
		dose.RenalAdjustment = strings.Join(parts, ", ")
		dose.Adjustments = append(dose.Adjustments, "renal: "+dose.RenalAdjustment)
	}

	if entry.HepaticallyCleared && p.Comorbidities.HepaticDisease {
		amount *= clinical.HepaticDoseFactor
		dose.HepaticAdjustment = fmt.Sprintf("hepatic impairment: dose x%.1f", clinical.HepaticDoseFactor)
		dose.Adjustments = append(dose.Adjustments, dose.HepaticAdjustment)
	}

	dose.DoseMg = roundDose(amount)
	dose.Dose = fmt.Sprintf("%.0f %s", dose.DoseMg, entry.Unit)
	return dose
}

// CalculateRegimen doses every component and joins the results.
func (c *Calculator) CalculateRegimen(r clinical.Regimen, p *patient.Profile) RegimenDose {
	out := RegimenDose{Regimen: r.Name()}
	var doses, freqs, routes, renal, hepatic []string
	for _, d := range r {
		dose := c.Calculate(d, p)
		out.Components = append(out.Components, dose)
		doses = append(doses, dose.Dose)
		freqs = append(freqs, dose.Frequency)
		routes = append(routes, dose.Route)
		for _, a := range dose.Adjustments {
			out.Adjustments = append(out.Adjustments, clinical.DisplayName(d)+": "+a)
		}
		if dose.RenalAdjustment != "" {
			renal = append(renal, clinical.DisplayName(d)+": "+dose.RenalAdjustment)
		}
		if dose.HepaticAdjustment != "" {
			hepatic = append(hepatic, clinical.DisplayName(d)+": "+dose.HepaticAdjustment)
		}
	}
	out.Dose = strings.Join(doses, " + ")
	out.Frequency = strings.Join(freqs, " + ")
	out.Route = joinDistinct(routes)
	out.RenalAdjustment = strings.Join(renal, "; ")
	out.HepaticAdjustment = strings.Join(hepatic, "; ")
	return out
}

func dosingWeight(entry Entry, p *patient.Profile) (float64, patient.WeightBasis) {
	actual := p.Weight
	if entry.Weight != Aminoglycoside || p.IsPediatric() {
		return actual, patient.WeightActual
	}
	ibw := p.Body.IdealBodyWeight
	switch {
	case actual <= ibw:
		return actual, patient.WeightActual
	case actual <= clinical.ObesityIdealWeightRatio*ibw:
		return ibw, patient.WeightIdeal
	default:
		return patient.AdjustedBodyWeight(actual, ibw), patient.WeightAdjusted
	}
}

func baseDose(d clinical.Drug) Dose {
	entry, ok := classDefaults[clinical.ClassOf(d)]
	if !ok {
		return Dose{
			Drug:        d,
			Dose:        "standard dose",
			Frequency:   "per product labeling",
			Route:       "per product labeling",
			Adjustments: []string{fmt.Sprintf("no dosing entry for %s; standard labeled dose applies", clinical.DisplayName(d))},
		}
	}
	return Dose{
		Drug:        d,
		DoseMg:      entry.BaseDose,
		Dose:        fmt.Sprintf("%.0f %s", entry.BaseDose, entry.Unit),
		Frequency:   entry.Frequency,
		Route:       entry.Route,
		Adjustments: []string{fmt.Sprintf("no dosing entry for %s; %s class base dose used unmodified", clinical.DisplayName(d), clinical.ClassOf(d))},
	}
}

func roundDose(v float64) float64 {
	return math.Round(v/clinical.DoseRoundingStep) * clinical.DoseRoundingStep
}

func joinDistinct(items []string) string {
	var out []string
	seen := make(map[string]bool)
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return strings.Join(out, " + ")
}
