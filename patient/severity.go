package patient

import (
	"strings"

	"github.com/giygas/antibiotic-advisor/clinical"
)

// Contribution is one factor of the severity score.
type Contribution struct {
	Factor string `json:"factor"`
	Points int    `json:"points"`
}

// SeverityAssessment records how the effective severity was reached.
type SeverityAssessment struct {
	Score         int               `json:"score"`
	Derived       clinical.Severity `json:"derived"`
	Provided      clinical.Severity `json:"provided,omitempty"`
	Effective     clinical.Severity `json:"effective"`
	Contributions []Contribution    `json:"contributions,omitempty"`
}

// SeverityFromScore maps a severity score onto mild, moderate or severe.
// This is the only place the thresholds are applied.
func SeverityFromScore(score int) clinical.Severity {
	switch {
	case score >= clinical.SeveritySevereThreshold:
		return clinical.SeveritySevere
	case score >= clinical.SeverityModerateThreshold:
		return clinical.SeverityModerate
	default:
		return clinical.SeverityMild
	}
}

// AssessSeverity scores the profile and resolves the effective severity. An explicitly
// provided severity wins over the derived one.
func AssessSeverity(p *Profile, provided clinical.Severity) SeverityAssessment {
	var contributions []Contribution
	add := func(factor string, points int) {
		contributions = append(contributions, Contribution{Factor: factor, Points: points})
	}

	switch {
	case p.Age >= 80:
		add("age >= 80", clinical.WeightAgeVeryOld)
	case p.Age >= 65:
		add("age >= 65", clinical.WeightAgeOld)
	case p.Age < 2:
		add("age < 2", clinical.WeightAgeInfant)
	case p.Age < 5:
		add("age < 5", clinical.WeightAgeYoungChild)
	}

	for _, kw := range clinical.SymptomKeywords {
		for _, term := range kw.Terms {
			if strings.Contains(p.Symptoms, term) {
				add(kw.Label, kw.Weight)
				break
			}
		}
	}

	if p.SymptomDurationDays > clinical.ProlongedSymptomDays {
		add("symptoms > 7 days", clinical.WeightProlongedSymptoms)
	}
	if p.HospitalAcquired {
		add("hospital-acquired", clinical.WeightHospitalAcquired)
	}

	if p.Comorbidities.RenalDisease {
		add("renal disease", clinical.WeightComorbidity)
	}
	if p.Comorbidities.HepaticDisease {
		add("hepatic disease", clinical.WeightComorbidity)
	}
	if p.Comorbidities.Diabetes {
		add("diabetes", clinical.WeightComorbidity)
	}
	if p.Comorbidities.Immunosuppression {
		add("immunosuppression", clinical.WeightImmunosuppression)
	}

	for _, marker := range p.Resistances.Labels() {
		add(marker, clinical.WeightResistanceMarker)
	}

	if len(p.Sites) > 1 {
		add("multiple sites", clinical.WeightMultiSite)
	}
	for _, s := range p.Sites {
		if s.HighRisk() {
			add("high-risk site", clinical.WeightHighRiskSite)
			break
		}
	}

	score := 0
	for _, c := range contributions {
		score += c.Points
	}

	assessment := SeverityAssessment{
		Score:         score,
		Derived:       SeverityFromScore(score),
		Provided:      provided,
		Contributions: contributions,
	}
	assessment.Effective = assessment.Derived
	if provided != "" {
		assessment.Effective = provided
	}
	return assessment
}
