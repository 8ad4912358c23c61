// Package safety re-checks a candidate regimen against allergies, special populations,
// resistance, drug interactions and dosing, and grades the result.
package safety

import (
	"sort"

	"github.com/giygas/antibiotic-advisor/clinical"
)

// Category of a safety alert.
type Category string

const (
	CategoryAllergy          Category = "allergy"
	CategoryContraindication Category = "contraindication"
	CategoryInteraction      Category = "interaction"
	CategoryDosing           Category = "dosing"
	CategoryMonitoring       Category = "monitoring"
)

// Alert is one finding of a validation pass.
type Alert struct {
	Severity         clinical.AlertSeverity `json:"severity"`
	Category         Category               `json:"category"`
	Drug             clinical.Drug          `json:"drug,omitempty"`
	Message          string                 `json:"message"`
	Action           string                 `json:"action"`
	RequiresOverride bool                   `json:"requiresOverride"`
}

// Blocking reports whether the alert must be surfaced as a blocking precaution.
func (a Alert) Blocking() bool {
	return a.RequiresOverride
}

// Report is the outcome of validating one regimen.
type Report struct {
	Regimen    string                 `json:"regimen"`
	Alerts     []Alert                `json:"alerts"`
	RiskScore  int                    `json:"riskScore"`
	RiskLevel  clinical.AlertSeverity `json:"riskLevel"`
	Monitoring []string               `json:"monitoring,omitempty"`
}

// Blocking reports whether any alert requires an override.
func (r Report) Blocking() bool {
	for _, a := range r.Alerts {
		if a.Blocking() {
			return true
		}
	}
	return false
}

// BlockingAlerts returns the alerts that require an override.
func (r Report) BlockingAlerts() []Alert {
	var out []Alert
	for _, a := range r.Alerts {
		if a.Blocking() {
			out = append(out, a)
		}
	}
	return out
}

// CriticalAllergy reports whether the regimen violates an allergy contraindication.
func (r Report) CriticalAllergy() bool {
	for _, a := range r.Alerts {
		if a.Category == CategoryAllergy && a.Severity == clinical.AlertCritical {
			return true
		}
	}
	return false
}

// Count returns the number of alerts at the given severity.
func (r Report) Count(severity clinical.AlertSeverity) int {
	n := 0
	for _, a := range r.Alerts {
		if a.Severity == severity {
			n++
		}
	}
	return n
}

// Score sums the alert weights and derives the risk level. The level is never below the
// most severe alert.
func Score(alerts []Alert) (int, clinical.AlertSeverity) {
	score := 0
	highest := clinical.AlertLow
	for _, a := range alerts {
		score += clinical.AlertWeight(a.Severity)
		highest = clinical.MaxAlertSeverity(highest, a.Severity)
	}

	level := clinical.AlertLow
	switch {
	case score >= clinical.AlertRiskCriticalThreshold:
		level = clinical.AlertCritical
	case score >= clinical.AlertRiskHighThreshold:
		level = clinical.AlertHigh
	case score >= clinical.AlertRiskModerateThreshold:
		level = clinical.AlertModerate
	}
	return score, clinical.MaxAlertSeverity(level, highest)
}

// rank orders alerts by severity, keeping check order within a severity.
func rank(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
	})
}
