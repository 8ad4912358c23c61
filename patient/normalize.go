package patient

import (
	"fmt"
	"strings"

	"github.com/giygas/antibiotic-advisor/clinical"
)

// Defaults applied when a field is missing.
const (
	DefaultAge      = 40.0
	DefaultWeightKg = 70.0
	DefaultHeightCm = 170.0
)

// completenessFields is the number of fields counted by Profile.Completeness.
const completenessFields = 9

// Normalize converts raw input into a profile. It never fails: missing or implausible
// values are replaced by defaults and reported as data-quality findings.
func Normalize(in Input) Profile {
	p := Profile{}
	present := 0

	switch {
	case in.Age.Present && in.Age.Value >= 0 && finite(in.Age.Value):
		p.Age = in.Age.Value
		present++
		if p.Age > 120 {
			p.addFinding("age", FindingMajor, fmt.Sprintf("age %.0f years is implausible", p.Age))
		}
	default:
		p.Age = DefaultAge
		p.addFinding("age", FindingMajor, missingMessage(in.Age, "age", fmt.Sprintf("%.0f years", DefaultAge)))
	}

	p.Gender = parseGender(in.Gender)
	if p.Gender == GenderUnknown {
		p.addFinding("gender", FindingMinor, "gender not provided; clearance computed without female correction")
	} else {
		present++
	}

	if in.Weight.Usable() {
		p.Weight = in.Weight.Value
		present++
	} else {
		p.Weight = DefaultWeightKg
		p.addFinding("weight", FindingMajor, missingMessage(in.Weight, "weight", fmt.Sprintf("%.0f kg", DefaultWeightKg)))
	}

	if in.Height.Usable() {
		p.Height = in.Height.Value
		present++
	} else {
		p.Height = DefaultHeightCm
		p.addFinding("height", FindingMinor, missingMessage(in.Height, "height", fmt.Sprintf("%.0f cm", DefaultHeightCm)))
	}

	p.Pregnancy = parsePregnancy(in.Pregnancy, in.Trimester)
	if p.Pregnancy.Pregnant && p.Gender == GenderMale {
		p.addFinding("pregnancy", FindingMajor, "pregnancy reported for a male patient; pregnancy restrictions kept")
	}

	p.Sites = parseSites(in.InfectionSites, &p)
	if len(in.InfectionSites) > 0 && len(p.Sites) > 0 && p.Sites[0] != clinical.SiteUnspecified {
		present++
	}

	p.Symptoms = NormalizeText(in.Symptoms)
	if p.Symptoms != "" {
		present++
	}

	if in.SymptomDurationDays.Present && in.SymptomDurationDays.Value >= 0 && finite(in.SymptomDurationDays.Value) {
		p.SymptomDurationDays = in.SymptomDurationDays.Value
		present++
	}

	if in.Creatinine.Usable() {
		p.Creatinine = in.Creatinine.Value
		present++
	} else {
		p.addFinding("creatinine", FindingMinor, missingMessage(in.Creatinine, "creatinine",
			fmt.Sprintf("clearance %.0f mL/min", clinical.DefaultCreatinineClearance)))
	}

	p.RecentAntibiotics = in.RecentAntibiotics
	p.HospitalAcquired = in.HospitalAcquired
	p.Comorbidities = in.Comorbidities
	p.Resistances = in.Resistances
	p.Allergies = buildAllergyProfile(in.Allergies)
	for _, entry := range p.Allergies.Unrecognized {
		p.addFinding("allergies", FindingMinor, fmt.Sprintf("allergy %q not mapped to a tracked class", entry))
	}

	p.Region = strings.ToLower(strings.TrimSpace(in.Region))
	for _, med := range in.CurrentMedications {
		if m := NormalizeText(med); m != "" {
			p.Medications = append(p.Medications, m)
		}
	}

	p.Body = computeBodyMetrics(p.Age, p.Weight, p.Height, p.Gender)
	p.Renal = RenalFunction{
		CreatinineClearance: round1(CreatinineClearance(p.Age, p.Weight, p.Creatinine, p.Gender)),
		Estimated:           p.Creatinine <= 0,
	}
	p.Renal.RequiresDoseAdjustment = p.Renal.CreatinineClearance < clinical.RenalDoseAdjustmentBelow

	checkPlausibility(&p)

	provided, hasProvided := clinical.ParseSeverity(in.Severity)
	if strings.TrimSpace(in.Severity) != "" && !hasProvided {
		p.addFinding("severity", FindingMinor, fmt.Sprintf("severity %q not recognized; derived severity used", in.Severity))
	}
	if hasProvided {
		present++
	}
	p.Severity = AssessSeverity(&p, provided)
	if hasProvided && p.Severity.Derived != provided {
		p.addFinding("severity", FindingMinor, fmt.Sprintf(
			"provided severity %s differs from derived severity %s (score %d)", provided, p.Severity.Derived, p.Severity.Score))
	}

	p.Completeness = float64(present) / completenessFields
	return p
}

func missingMessage(m Measure, field, fallback string) string {
	if m.Unparseable() {
		return fmt.Sprintf("%s %q could not be parsed; defaulted to %s", field, m.Raw, fallback)
	}
	if m.Present {
		return fmt.Sprintf("%s %v is not usable; defaulted to %s", field, m.Value, fallback)
	}
	return fmt.Sprintf("%s not provided; defaulted to %s", field, fallback)
}

func parseGender(s string) Gender {
	switch NormalizeText(s) {
	case "male", "m", "man":
		return GenderMale
	case "female", "f", "woman":
		return GenderFemale
	}
	return GenderUnknown
}

func parsePregnancy(status string, trimester Measure) PregnancyStatus {
	switch NormalizeText(status) {
	case "yes", "true", "pregnant", "y":
	default:
		return PregnancyStatus{}
	}

	ps := PregnancyStatus{Pregnant: true}
	if trimester.Present {
		if t := int(trimester.Value); t >= 1 && t <= 3 {
			ps.Trimester = t
		}
	}
	return ps
}

func parseSites(raw []string, p *Profile) []clinical.InfectionSite {
	var sites []clinical.InfectionSite
	seen := make(map[clinical.InfectionSite]bool)
	for _, entry := range raw {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		site, ok := clinical.ParseSite(NormalizeText(entry))
		if !ok {
			p.addFinding("infectionSites", FindingMinor, fmt.Sprintf("infection site %q not recognized", entry))
			continue
		}
		if site == clinical.SiteUnspecified || seen[site] {
			continue
		}
		seen[site] = true
		sites = append(sites, site)
	}

	if len(sites) == 0 {
		p.addFinding("infectionSites", FindingMajor, "no recognized infection site; treated as unspecified")
		return []clinical.InfectionSite{clinical.SiteUnspecified}
	}
	return sites
}

func checkPlausibility(p *Profile) {
	switch {
	case p.Age >= clinical.PediatricAgeBelow && (p.Weight < 30 || p.Weight > 300):
		p.addFinding("weight", FindingMajor, fmt.Sprintf("weight %.1f kg is implausible for an adult", p.Weight))
	case p.Age < 2 && p.Weight > 30:
		p.addFinding("weight", FindingMajor, fmt.Sprintf("weight %.1f kg is implausible for age %.1f years", p.Weight, p.Age))
	}
	if p.Body.BMI > 0 && (p.Body.BMI < 12 || p.Body.BMI > 80) && p.Age >= clinical.PediatricAgeBelow {
		p.addFinding("height", FindingMajor, fmt.Sprintf("weight/height ratio gives an implausible BMI of %.1f", p.Body.BMI))
	}
}
