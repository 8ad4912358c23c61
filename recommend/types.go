package recommend

import (
	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/dosing"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/safety"
	"github.com/giygas/antibiotic-advisor/scenario"
)

// Therapy is one dosed and safety-checked regimen.
type Therapy struct {
	Drug       string                 `json:"drug"`
	Regimen    clinical.Regimen       `json:"regimen"`
	Dosage     string                 `json:"dosage"`
	Frequency  string                 `json:"frequency"`
	Duration   string                 `json:"duration"`
	Route      string                 `json:"route"`
	Reason     string                 `json:"reason"`
	RiskLevel  clinical.AlertSeverity `json:"riskLevel"`
	RiskScore  int                    `json:"riskScore"`
	Alerts     []safety.Alert         `json:"alerts,omitempty"`
	DoseDetail dosing.RegimenDose     `json:"doseDetail"`
}

// Rationale kinds.
const (
	KindScenario     = "scenario"
	KindSeverity     = "severity"
	KindResistance   = "resistance"
	KindRegion       = "region"
	KindAllergy      = "allergy"
	KindPopulation   = "population"
	KindRenal        = "renal"
	KindHepatic      = "hepatic"
	KindDose         = "dose"
	KindSubstitution = "substitution"
	KindDataQuality  = "data-quality"
)

// RationaleEntry is one rule that contributed to the recommendation.
type RationaleEntry struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Rationale explains the recommendation.
type Rationale struct {
	InfectionType      string            `json:"infectionType"`
	Severity           clinical.Severity `json:"severity"`
	Reasons            []RationaleEntry  `json:"reasons"`
	AllergyNote        string            `json:"allergyNote,omitempty"`
	DoseAdjustmentNote string            `json:"doseAdjustmentNote,omitempty"`
}

// Calculations are the derived numbers behind the recommendation.
type Calculations struct {
	CreatinineClearance          float64             `json:"creatinineClearance"`
	CreatinineClearanceEstimated bool                `json:"creatinineClearanceEstimated"`
	IdealBodyWeight              float64             `json:"idealBodyWeight"`
	AdjustedBodyWeight           float64             `json:"adjustedBodyWeight"`
	DosingWeight                 float64             `json:"dosingWeight"`
	WeightBasis                  patient.WeightBasis `json:"weightBasis"`
	BMI                          float64             `json:"bmi"`
	SeverityScore                int                 `json:"severityScore"`
	ResistanceRiskScore          int                 `json:"resistanceRiskScore"`
	ResistanceRiskLevel          clinical.RiskLevel  `json:"resistanceRiskLevel"`
	SafetyRiskScore              int                 `json:"safetyRiskScore"`
	RenalAdjustment              string              `json:"renalAdjustment,omitempty"`
	HepaticAdjustment            string              `json:"hepaticAdjustment,omitempty"`
}

// Substitution records a blocked primary that was replaced.
type Substitution struct {
	Original string   `json:"original"`
	Reasons  []string `json:"reasons"`
	Source   string   `json:"source"`
}

// Recommendation is the output of the pipeline. It is never nil.
type Recommendation struct {
	ID           string                       `json:"id"`
	Scenario     scenario.Descriptor          `json:"scenario"`
	Primary      Therapy                      `json:"primary"`
	Alternatives []Therapy                    `json:"alternatives"`
	Precautions  []string                     `json:"precautions"`
	Rationale    Rationale                    `json:"rationale"`
	Confidence   int                          `json:"confidence"`
	Calculations Calculations                 `json:"calculations"`
	Substitution *Substitution                `json:"substitution,omitempty"`
	Populations  []string                     `json:"populations,omitempty"`
	Monitoring   []string                     `json:"monitoring,omitempty"`
	DataQuality  []patient.DataQualityFinding `json:"dataQuality,omitempty"`
	Notes        []string                     `json:"notes,omitempty"`
}

// Blocking reports whether the primary still carries an alert requiring override.
func (r Recommendation) Blocking() bool {
	for _, a := range r.Primary.Alerts {
		if a.Blocking() {
			return true
		}
	}
	return false
}
