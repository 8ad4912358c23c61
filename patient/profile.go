package patient

import (
	"github.com/giygas/antibiotic-advisor/clinical"
)

// Gender as used by the body-weight and clearance formulas.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// PregnancyStatus is the normalized pregnancy state. Trimester 0 means unknown.
type PregnancyStatus struct {
	Pregnant  bool `json:"pregnant"`
	Trimester int  `json:"trimester,omitempty"`
}

// FirstTrimesterPossible is true in the first trimester or when the trimester is unknown.
func (p PregnancyStatus) FirstTrimesterPossible() bool {
	return p.Pregnant && (p.Trimester == 0 || p.Trimester == 1)
}

// NearTermPossible is true in the third trimester or when the trimester is unknown.
func (p PregnancyStatus) NearTermPossible() bool {
	return p.Pregnant && (p.Trimester == 0 || p.Trimester == 3)
}

// AllergyProfile holds the allergy flags. Flags are only ever set, never cleared.
type AllergyProfile struct {
	Penicillin      bool     `json:"penicillin"`
	Cephalosporin   bool     `json:"cephalosporin"`
	Sulfa           bool     `json:"sulfa"`
	Macrolide       bool     `json:"macrolide"`
	Fluoroquinolone bool     `json:"fluoroquinolone"`
	Vancomycin      bool     `json:"vancomycin"`
	Unrecognized    []string `json:"unrecognized,omitempty"`
}

// Has reports whether the allergy class is flagged.
func (a AllergyProfile) Has(class clinical.AllergyClass) bool {
	switch class {
	case clinical.AllergyPenicillin:
		return a.Penicillin
	case clinical.AllergyCephalosporin:
		return a.Cephalosporin
	case clinical.AllergySulfa:
		return a.Sulfa
	case clinical.AllergyMacrolide:
		return a.Macrolide
	case clinical.AllergyFluoroquinolone:
		return a.Fluoroquinolone
	case clinical.AllergyVancomycin:
		return a.Vancomycin
	}
	return false
}

// With returns a copy with the class flagged.
func (a AllergyProfile) With(class clinical.AllergyClass) AllergyProfile {
	switch class {
	case clinical.AllergyPenicillin:
		a.Penicillin = true
	case clinical.AllergyCephalosporin:
		a.Cephalosporin = true
	case clinical.AllergySulfa:
		a.Sulfa = true
	case clinical.AllergyMacrolide:
		a.Macrolide = true
	case clinical.AllergyFluoroquinolone:
		a.Fluoroquinolone = true
	case clinical.AllergyVancomycin:
		a.Vancomycin = true
	}
	return a
}

// Active returns the flagged classes in evaluation order.
func (a AllergyProfile) Active() []clinical.AllergyClass {
	var active []clinical.AllergyClass
	for _, class := range clinical.AllergyClasses {
		if a.Has(class) {
			active = append(active, class)
		}
	}
	return active
}

// WeightBasis names the body weight used for weight-based dosing.
type WeightBasis string

const (
	WeightActual   WeightBasis = "actual"
	WeightIdeal    WeightBasis = "ideal"
	WeightAdjusted WeightBasis = "adjusted"
)

// BodyMetrics are the derived weight measures.
type BodyMetrics struct {
	IdealBodyWeight    float64     `json:"idealBodyWeight"`
	AdjustedBodyWeight float64     `json:"adjustedBodyWeight"`
	BMI                float64     `json:"bmi"`
	WeightBasis        WeightBasis `json:"weightBasis"`
	Obese              bool        `json:"obese"`
}

// RenalFunction is the estimated creatinine clearance in mL/min.
type RenalFunction struct {
	CreatinineClearance    float64 `json:"creatinineClearance"`
	Estimated              bool    `json:"estimated"`
	RequiresDoseAdjustment bool    `json:"requiresDoseAdjustment"`
}

// FindingLevel grades a data-quality finding.
type FindingLevel string

const (
	FindingMinor FindingLevel = "minor"
	FindingMajor FindingLevel = "major"
)

// DataQualityFinding is a non-fatal problem found in the input.
type DataQualityFinding struct {
	Field   string       `json:"field"`
	Level   FindingLevel `json:"level"`
	Message string       `json:"message"`
}

// Profile is the normalized patient.
type Profile struct {
	Age                 float64                  `json:"age"`
	Gender              Gender                   `json:"gender"`
	Weight              float64                  `json:"weight"`
	Height              float64                  `json:"height"`
	Pregnancy           PregnancyStatus          `json:"pregnancy"`
	Sites               []clinical.InfectionSite `json:"infectionSites"`
	Symptoms            string                   `json:"symptoms,omitempty"`
	SymptomDurationDays float64                  `json:"symptomDurationDays"`
	Creatinine          float64                  `json:"creatinine,omitempty"`
	RecentAntibiotics   bool                     `json:"recentAntibiotics"`
	HospitalAcquired    bool                     `json:"hospitalAcquired"`
	Comorbidities       Comorbidities            `json:"comorbidities"`
	Allergies           AllergyProfile           `json:"allergies"`
	Resistances         ResistanceFlags          `json:"resistances"`
	Region              string                   `json:"region,omitempty"`
	Medications         []string                 `json:"currentMedications,omitempty"`
	Body                BodyMetrics              `json:"body"`
	Renal               RenalFunction            `json:"renal"`
	Severity            SeverityAssessment       `json:"severity"`
	Findings            []DataQualityFinding     `json:"dataQuality,omitempty"`
	Completeness        float64                  `json:"completeness"`
}

// IsPediatric reports an age below 18 years.
func (p *Profile) IsPediatric() bool {
	return p.Age < clinical.PediatricAgeBelow
}

// IsGeriatric reports an age of 65 years or more.
func (p *Profile) IsGeriatric() bool {
	return p.Age >= clinical.GeriatricAgeFrom
}

// HasSite reports whether the infection involves the site.
func (p *Profile) HasSite(site clinical.InfectionSite) bool {
	for _, s := range p.Sites {
		if s == site {
			return true
		}
	}
	return false
}

// CrCl is shorthand for the estimated creatinine clearance.
func (p *Profile) CrCl() float64 {
	return p.Renal.CreatinineClearance
}

// SeverityLevel is the effective severity used downstream.
func (p *Profile) SeverityLevel() clinical.Severity {
	return p.Severity.Effective
}

// SiteLabel joins the readable labels of the infection sites.
func (p *Profile) SiteLabel() string {
	label := ""
	for i, s := range p.Sites {
		if i > 0 {
			label += ", "
		}
		label += s.Label()
	}
	return label
}

func (p *Profile) addFinding(field string, level FindingLevel, message string) {
	p.Findings = append(p.Findings, DataQualityFinding{Field: field, Level: level, Message: message})
}
