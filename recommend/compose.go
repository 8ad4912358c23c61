package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/safety"
	"github.com/giygas/antibiotic-advisor/scenario"
)

// BlockingPrefix starts every precaution raised by an alert that requires override.
const BlockingPrefix = "BLOCKING: "

// Candidate sources.
const (
	sourceScenario    = "scenario"
	sourceAlternative = "scenario alternative"
	sourceMatrix      = "allergy matrix"
	sourceLastResort  = "last resort"
)

func (e *Engine) compose(pl *pipeline) Recommendation {
	plan := pl.match.Plan
	original := e.evaluate(pl, plan.Primary, sourceScenario)

	var alternatives []candidate
	for _, opt := range plan.Alternatives {
		alternatives = append(alternatives, e.evaluate(pl, opt, sourceAlternative))
	}

	primary := original
	var sub *Substitution
	if original.report.Blocking() {
		primary = e.substitute(pl, original, alternatives)
		if primary.option.Regimen.Name() != original.option.Regimen.Name() {
			sub = &Substitution{
				Original: original.option.Regimen.Name(),
				Reasons:  alertMessages(original.report.BlockingAlerts()),
				Source:   primary.source,
			}
		}
	}

	var kept []candidate
	for _, alt := range alternatives {
		if alt.option.Regimen.Name() == primary.option.Regimen.Name() {
			continue
		}
		if alt.report.CriticalAllergy() {
			pl.notes = append(pl.notes, fmt.Sprintf("alternative %s removed: allergy contraindication", alt.option.Regimen.Name()))
			continue
		}
		kept = append(kept, alt)
	}
	if len(kept) == 0 {
		kept = e.matrixAlternatives(pl, primary.option.Regimen, 2)
	}

	rec := Recommendation{
		Scenario:     pl.match.Descriptor,
		Primary:      therapy(primary, plan.Duration),
		Alternatives: make([]Therapy, 0, len(kept)),
		Populations:  pl.populations.Populations,
		Monitoring:   primary.report.Monitoring,
		DataQuality:  pl.profile.Findings,
	}
	for _, alt := range kept {
		rec.Alternatives = append(rec.Alternatives, therapy(alt, plan.Duration))
	}
	rec.Substitution = sub
	rec.Precautions = precautions(pl, primary, kept, sub)
	rec.Rationale = rationale(pl, primary, sub)
	rec.Calculations = calculations(pl, primary)
	rec.Confidence = confidence(pl, primary, sub != nil)
	rec.Notes = append(pl.notes, pl.resistance.Notes...)
	return rec
}

// substitute replaces a blocked primary: scenario alternatives first, then drugs the allergy
// matrix considers safe, then the last-resort list. The result never violates an allergy
// contraindication.
func (e *Engine) substitute(pl *pipeline, original candidate, alternatives []candidate) candidate {
	pool := append([]candidate(nil), alternatives...)
	pool = append(pool, e.matrixCandidates(pl, original.option.Regimen)...)
	for _, d := range e.lastResort {
		pool = append(pool, e.evaluate(pl, scenario.Option{
			Regimen: clinical.Of(d),
			Reason:  fmt.Sprintf("last-resort agent replacing %s", original.option.Regimen.Name()),
		}, sourceLastResort))
	}

	for _, c := range pool {
		if !c.report.Blocking() {
			return c
		}
	}

	// Every candidate needs an override: keep the lowest-risk one without an allergy violation.
	best := -1
	for i, c := range pool {
		if c.report.CriticalAllergy() {
			continue
		}
		if best < 0 || c.report.RiskScore < pool[best].report.RiskScore {
			best = i
		}
	}
	if best >= 0 {
		return pool[best]
	}
	if !original.report.CriticalAllergy() {
		return original
	}
	return pool[len(pool)-1]
}

// matrixCandidates proposes single-drug replacements for the blocked components of a regimen.
func (e *Engine) matrixCandidates(pl *pipeline, r clinical.Regimen) []candidate {
	var out []candidate
	seen := make(map[clinical.Drug]bool)
	for _, blocked := range r {
		for _, d := range pl.allergies.FindSafeAlternatives(blocked) {
			if seen[d] || r.Contains(d) || !e.admissible(pl, d) {
				continue
			}
			seen[d] = true
			out = append(out, e.evaluate(pl, scenario.Option{
				Regimen: clinical.Of(d),
				Reason:  fmt.Sprintf("allergy-safe alternative to %s", clinical.DisplayName(blocked)),
			}, sourceMatrix))
		}
	}
	return out
}

// matrixAlternatives returns up to n unblocked matrix-derived alternatives.
func (e *Engine) matrixAlternatives(pl *pipeline, r clinical.Regimen, n int) []candidate {
	var out []candidate
	for _, c := range e.matrixCandidates(pl, r) {
		if len(out) == n {
			break
		}
		if !c.report.Blocking() {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) admissible(pl *pipeline, d clinical.Drug) bool {
	if pl.populations.IsContraindicated(d) {
		return false
	}
	if entry, ok := pl.resistance.AvoidEntryFor(d); ok && entry.Confirmed {
		return false
	}
	return true
}

func therapy(c candidate, duration string) Therapy {
	return Therapy{
		Drug:       c.option.Regimen.Name(),
		Regimen:    c.option.Regimen,
		Dosage:     c.dose.Dose,
		Frequency:  c.dose.Frequency,
		Duration:   duration,
		Route:      c.dose.Route,
		Reason:     c.option.Reason,
		RiskLevel:  c.report.RiskLevel,
		RiskScore:  c.report.RiskScore,
		Alerts:     c.report.Alerts,
		DoseDetail: c.dose,
	}
}

func alertMessages(alerts []safety.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Message
	}
	return out
}

type textSet struct {
	items []string
	seen  map[string]bool
}

func (s *textSet) add(items ...string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	for _, item := range items {
		if item == "" || s.seen[item] {
			continue
		}
		s.seen[item] = true
		s.items = append(s.items, item)
	}
}

// precautions lists blocking alerts first, then population guidance, then the rest.
func precautions(pl *pipeline, primary candidate, alternatives []candidate, sub *Substitution) []string {
	var blocking, rest textSet

	for _, a := range primary.report.BlockingAlerts() {
		blocking.add(fmt.Sprintf("%s%s; %s", BlockingPrefix, a.Message, a.Action))
	}
	for _, alt := range alternatives {
		for _, a := range alt.report.BlockingAlerts() {
			blocking.add(fmt.Sprintf("%salternative %s: %s; %s", BlockingPrefix, alt.option.Regimen.Name(), a.Message, a.Action))
		}
	}

	if sub != nil {
		rest.add(fmt.Sprintf("%s was replaced by %s (%s): %s", sub.Original, primary.option.Regimen.Name(), sub.Source, strings.Join(sub.Reasons, "; ")))
	}
	rest.add(pl.populations.Precautions...)
	rest.add(pl.populations.DoseAdjustments...)
	for _, a := range primary.report.Alerts {
		if a.Blocking() || a.Category == safety.CategoryMonitoring {
			continue
		}
		if a.Severity.Rank() >= clinical.AlertModerate.Rank() {
			rest.add(fmt.Sprintf("%s; %s", a.Message, a.Action))
		}
	}
	if pl.allergies.HasAllergies() {
		rest.add("Allergy review: " + pl.allergies.Notes())
	}
	if len(primary.report.Monitoring) > 0 {
		rest.add("Monitor: " + strings.Join(primary.report.Monitoring, "; "))
	}
	for _, f := range pl.profile.Findings {
		if f.Level == patient.FindingMajor {
			rest.add("Data quality: " + f.Message)
		}
	}

	out := append([]string{}, blocking.items...)
	return append(out, rest.items...)
}

func rationale(pl *pipeline, primary candidate, sub *Substitution) Rationale {
	p := pl.profile
	r := Rationale{
		InfectionType: p.SiteLabel(),
		Severity:      p.SeverityLevel(),
	}
	add := func(kind, text string) {
		r.Reasons = append(r.Reasons, RationaleEntry{Kind: kind, Text: text})
	}

	m := pl.match
	add(KindScenario, fmt.Sprintf("scenario %s (priority %d): %s", m.ID, m.Priority, m.Description))
	add(KindScenario, m.Plan.Primary.Reason)

	sev := p.Severity
	var factors []string
	for _, c := range sev.Contributions {
		factors = append(factors, fmt.Sprintf("%s +%d", c.Factor, c.Points))
	}
	text := fmt.Sprintf("severity %s (score %d", sev.Effective, sev.Score)
	if len(factors) > 0 {
		text += ": " + strings.Join(factors, ", ")
	}
	text += ")"
	if sev.Provided != "" {
		text += fmt.Sprintf("; provided %s, derived %s", sev.Provided, sev.Derived)
	}
	add(KindSeverity, text)

	add(KindResistance, fmt.Sprintf("resistance risk %s (score %d)", pl.resistance.RiskLevel, pl.resistance.RiskScore))
	for _, reason := range pl.resistance.Reasons {
		add(KindResistance, reason)
	}
	for _, note := range pl.resistance.Notes {
		add(KindRegion, note)
	}

	if pl.allergies.HasAllergies() {
		var classes []string
		for _, c := range p.Allergies.Active() {
			classes = append(classes, string(c))
		}
		r.AllergyNote = pl.allergies.Notes()
		add(KindAllergy, fmt.Sprintf("allergy avoidance: %s; contraindicated and cross-reactive agents excluded", strings.Join(classes, ", ")))
	}

	for _, rec := range pl.populations.Records {
		text := fmt.Sprintf("%s population (%s risk)", rec.Population, rec.RiskCategory)
		if len(rec.Precautions) > 0 {
			text += ": " + strings.Join(rec.Precautions, "; ")
		}
		add(KindPopulation, text)
	}

	if p.Renal.RequiresDoseAdjustment || primary.dose.RenalAdjustment != "" {
		add(KindRenal, renalSummary(p, primary))
	}
	if primary.dose.HepaticAdjustment != "" {
		add(KindHepatic, primary.dose.HepaticAdjustment)
	}
	if len(primary.dose.Adjustments) > 0 {
		r.DoseAdjustmentNote = strings.Join(primary.dose.Adjustments, "; ")
		add(KindDose, "dose adjustments: "+r.DoseAdjustmentNote)
	}

	if sub != nil {
		add(KindSubstitution, fmt.Sprintf("%s replaced by %s from %s", sub.Original, primary.option.Regimen.Name(), sub.Source))
		add(KindSubstitution, primary.option.Reason)
	}
	if n := len(p.Findings); n > 0 {
		add(KindDataQuality, fmt.Sprintf("%d data-quality finding(s); completeness %.0f%%", n, p.Completeness*100))
	}
	return r
}

func renalSummary(p *patient.Profile, primary candidate) string {
	text := fmt.Sprintf("CrCl %.1f mL/min", p.CrCl())
	if p.Renal.Estimated {
		text += " (assumed, creatinine not provided)"
	}
	if p.Renal.RequiresDoseAdjustment {
		text += fmt.Sprintf(": renal dose adjustment required below %.0f mL/min", clinical.RenalDoseAdjustmentBelow)
	}
	if primary.dose.RenalAdjustment != "" {
		return text + "; " + primary.dose.RenalAdjustment
	}
	return text + fmt.Sprintf("; no change required for %s", primary.option.Regimen.Name())
}

func calculations(pl *pipeline, primary candidate) Calculations {
	p := pl.profile
	c := Calculations{
		CreatinineClearance:          p.CrCl(),
		CreatinineClearanceEstimated: p.Renal.Estimated,
		IdealBodyWeight:              p.Body.IdealBodyWeight,
		AdjustedBodyWeight:           p.Body.AdjustedBodyWeight,
		DosingWeight:                 p.Weight,
		WeightBasis:                  patient.WeightActual,
		BMI:                          p.Body.BMI,
		SeverityScore:                p.Severity.Score,
		ResistanceRiskScore:          pl.resistance.RiskScore,
		ResistanceRiskLevel:          pl.resistance.RiskLevel,
		SafetyRiskScore:              primary.report.RiskScore,
		HepaticAdjustment:            primary.dose.HepaticAdjustment,
	}
	for _, d := range primary.dose.Components {
		if d.WeightBasis != "" {
			c.DosingWeight = math.Round(d.DosingWeight*10) / 10
			c.WeightBasis = d.WeightBasis
			break
		}
	}
	if p.Renal.RequiresDoseAdjustment || primary.dose.RenalAdjustment != "" {
		c.RenalAdjustment = renalSummary(p, primary)
	}
	return c
}

// confidence is 50 + 50*completeness minus alert, complexity and substitution penalties.
func confidence(pl *pipeline, primary candidate, substituted bool) int {
	p := pl.profile
	score := float64(clinical.ConfidenceBase) + float64(clinical.ConfidenceCompletenessSpan)*p.Completeness

	penalty := 0
	for _, a := range primary.report.Alerts {
		switch a.Severity {
		case clinical.AlertCritical:
			penalty += clinical.ConfidencePenaltyCritical
		case clinical.AlertHigh:
			penalty += clinical.ConfidencePenaltyHigh
		case clinical.AlertModerate:
			penalty += clinical.ConfidencePenaltyModerate
		case clinical.AlertLow:
			penalty += clinical.ConfidencePenaltyLow
		}
	}
	score -= float64(min(penalty, clinical.ConfidenceAlertPenaltyCap))

	complexity := p.Comorbidities.Count() + len(p.Allergies.Active()) + p.Resistances.Count()
	score -= float64(clinical.ConfidenceComplexityPenalty * min(complexity, clinical.ConfidenceComplexityCap))

	if substituted {
		score -= clinical.ConfidenceSubstitutionPenalty
	}
	return int(math.Round(math.Max(0, math.Min(100, score))))
}
