package resistance

import (
	"fmt"
	"strings"

	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
)

// AvoidEntry is a drug to avoid and why. Confirmed entries come from the patient's own
// resistance markers, the others from regional prevalence.
type AvoidEntry struct {
	Drug      clinical.Drug `json:"drug"`
	Reason    string        `json:"reason"`
	Confirmed bool          `json:"confirmed"`
}

// Profile is the resistance assessment of one patient.
type Profile struct {
	Flags       patient.ResistanceFlags `json:"flags"`
	Suspected   []string                `json:"suspected,omitempty"`
	RiskScore   int                     `json:"riskScore"`
	RiskLevel   clinical.RiskLevel      `json:"riskLevel"`
	Avoid       []AvoidEntry            `json:"avoid,omitempty"`
	Preferred   []clinical.Drug         `json:"preferred,omitempty"`
	Reasons     []string                `json:"reasons,omitempty"`
	Notes       []string                `json:"notes,omitempty"`
	Region      string                  `json:"region"`
	RegionFound bool                    `json:"regionFound"`
	Regional    RegionalData            `json:"regional"`
}

// AvoidEntryFor returns the avoid entry of a drug, if any.
func (p Profile) AvoidEntryFor(d clinical.Drug) (AvoidEntry, bool) {
	for _, e := range p.Avoid {
		if e.Drug == d {
			return e, true
		}
	}
	return AvoidEntry{}, false
}

// AvoidDrugs returns the drugs to avoid in insertion order.
func (p Profile) AvoidDrugs() []clinical.Drug {
	drugs := make([]clinical.Drug, len(p.Avoid))
	for i, e := range p.Avoid {
		drugs[i] = e.Drug
	}
	return drugs
}

// IsPreferred reports whether the drug is on the preferred list.
func (p Profile) IsPreferred(d clinical.Drug) bool {
	for _, pref := range p.Preferred {
		if pref == d {
			return true
		}
	}
	return false
}

type organism struct {
	label      string
	weight     int
	flagged    func(patient.ResistanceFlags) bool
	prevalence func(RegionalData) float64
	threshold  float64
	avoid      []clinical.Drug
	preferred  []clinical.Drug
}

// organisms is evaluated in this order, which fixes the order of the output lists.
var organisms = []organism{
	{
		label:      "CRE",
		weight:     clinical.ResistanceWeightCRE,
		flagged:    func(f patient.ResistanceFlags) bool { return f.CRE },
		prevalence: func(r RegionalData) float64 { return r.CRE },
		threshold:  clinical.RegionalCREThreshold,
		avoid:      []clinical.Drug{clinical.Meropenem, clinical.Ertapenem, clinical.Imipenem, clinical.Ceftriaxone, clinical.Cefepime},
		preferred:  []clinical.Drug{clinical.CeftazidimeAvibactam, clinical.Colistin, clinical.Tigecycline},
	},
	{
		label:      "ESBL",
		weight:     clinical.ResistanceWeightESBL,
		flagged:    func(f patient.ResistanceFlags) bool { return f.ESBL },
		prevalence: func(r RegionalData) float64 { return r.ESBL },
		threshold:  clinical.RegionalESBLThreshold,
		avoid: []clinical.Drug{
			clinical.Ceftriaxone, clinical.Cefepime, clinical.Ceftazidime, clinical.Cefuroxime, clinical.Cephalexin,
			clinical.PiperacillinTazobactam, clinical.AmoxicillinClavulanate, clinical.Amoxicillin, clinical.Ampicillin,
		},
		preferred: []clinical.Drug{clinical.Meropenem, clinical.Ertapenem, clinical.Fosfomycin, clinical.Nitrofurantoin},
	},
	{
		label:      "VRE",
		weight:     clinical.ResistanceWeightVRE,
		flagged:    func(f patient.ResistanceFlags) bool { return f.VRE },
		prevalence: func(r RegionalData) float64 { return r.VRE },
		threshold:  clinical.RegionalVREThreshold,
		avoid:      []clinical.Drug{clinical.Vancomycin, clinical.Ampicillin},
		preferred:  []clinical.Drug{clinical.Linezolid, clinical.Daptomycin},
	},
	{
		label:      "MRSA",
		weight:     clinical.ResistanceWeightMRSA,
		flagged:    func(f patient.ResistanceFlags) bool { return f.MRSA },
		prevalence: func(r RegionalData) float64 { return r.MRSA },
		threshold:  clinical.RegionalMRSAThreshold,
		avoid:      []clinical.Drug{clinical.Dicloxacillin, clinical.Nafcillin, clinical.Cefazolin, clinical.Cephalexin},
		preferred:  []clinical.Drug{clinical.Vancomycin, clinical.Linezolid, clinical.Daptomycin, clinical.Doxycycline, clinical.TrimethoprimSulfa},
	},
	{
		label:      "Pseudomonas",
		weight:     clinical.ResistanceWeightPseudomonas,
		flagged:    func(f patient.ResistanceFlags) bool { return f.Pseudomonas },
		prevalence: func(r RegionalData) float64 { return r.Pseudomonas },
		threshold:  clinical.RegionalPseudomonasThreshold,
		avoid:      []clinical.Drug{clinical.Ceftriaxone, clinical.Ertapenem, clinical.Tigecycline, clinical.AmoxicillinClavulanate, clinical.Cefazolin},
		preferred:  []clinical.Drug{clinical.Cefepime, clinical.PiperacillinTazobactam, clinical.Meropenem, clinical.Ciprofloxacin, clinical.Ceftazidime},
	},
}

// LevelFromScore maps a resistance risk score to a level.
func LevelFromScore(score int) clinical.RiskLevel {
	switch {
	case score >= clinical.ResistanceCriticalThreshold:
		return clinical.RiskCritical
	case score >= clinical.ResistanceHighThreshold:
		return clinical.RiskHigh
	case score >= clinical.ResistanceMediumThreshold:
		return clinical.RiskMedium
	default:
		return clinical.RiskLow
	}
}

// RiskScore is a pure function of the resistance flags and the exposure history.
func RiskScore(p *patient.Profile) int {
	score := 0
	for _, o := range organisms {
		if o.flagged(p.Resistances) {
			score += o.weight
		}
	}
	if p.HospitalAcquired {
		score += clinical.ResistanceWeightHospitalAcquired
	}
	if p.RecentAntibiotics {
		score += clinical.ResistanceWeightRecentAntibiotics
	}
	if p.Comorbidities.Immunosuppression {
		score += clinical.ResistanceWeightImmunosuppression
	}
	if p.SymptomDurationDays > clinical.ProlongedSymptomDays {
		score += clinical.ResistanceWeightProlonged
	}
	return score
}

// Analyze combines the patient's markers with the regional entry for the patient's region.
func Analyze(p *patient.Profile, snapshot Snapshot) Profile {
	regional, found := snapshot.Lookup(p.Region)
	out := Profile{
		Flags:       p.Resistances,
		RiskScore:   RiskScore(p),
		Region:      NormalizeRegion(p.Region),
		RegionFound: found,
		Regional:    regional,
	}
	out.RiskLevel = LevelFromScore(out.RiskScore)

	if !found {
		region := out.Region
		if region == "" {
			region = "not provided"
		}
		out.Region = GlobalRegion
		out.Notes = append(out.Notes, fmt.Sprintf("region %s unknown; global average resistance rates used", region))
	}

	avoidIndex := make(map[clinical.Drug]int)
	addAvoid := func(d clinical.Drug, reason string, confirmed bool) {
		if i, ok := avoidIndex[d]; ok {
			if confirmed && !out.Avoid[i].Confirmed {
				out.Avoid[i] = AvoidEntry{Drug: d, Reason: reason, Confirmed: true}
			}
			return
		}
		avoidIndex[d] = len(out.Avoid)
		out.Avoid = append(out.Avoid, AvoidEntry{Drug: d, Reason: reason, Confirmed: confirmed})
	}
	preferredSeen := make(map[clinical.Drug]bool)
	addPreferred := func(drugs []clinical.Drug) {
		for _, d := range drugs {
			if !preferredSeen[d] {
				preferredSeen[d] = true
				out.Preferred = append(out.Preferred, d)
			}
		}
	}

	for _, o := range organisms {
		switch {
		case o.flagged(p.Resistances):
			reason := fmt.Sprintf("%s-confirmed", o.label)
			for _, d := range o.avoid {
				addAvoid(d, reason, true)
			}
			addPreferred(o.preferred)
			out.Reasons = append(out.Reasons, fmt.Sprintf("%s: avoid %s; prefer %s", reason, names(o.avoid), names(o.preferred)))
		case o.prevalence(regional) > o.threshold:
			reason := fmt.Sprintf("regional %s prevalence %.0f%% exceeds %.0f%%", o.label, o.prevalence(regional), o.threshold)
			for _, d := range o.avoid {
				addAvoid(d, reason, false)
			}
			addPreferred(o.preferred)
			out.Suspected = append(out.Suspected, o.label)
			out.Reasons = append(out.Reasons, reason)
		}
	}

	if p.HasSite(clinical.SiteRespiratory) && regional.Respiratory.Macrolide > clinical.RegionalMacrolideThreshold {
		reason := fmt.Sprintf("regional pneumococcal macrolide resistance %.0f%% exceeds %.0f%%",
			regional.Respiratory.Macrolide, clinical.RegionalMacrolideThreshold)
		for _, d := range clinical.DrugsInClass(clinical.ClassMacrolide) {
			addAvoid(d, reason, false)
		}
		out.Reasons = append(out.Reasons, reason)
	}
	if p.HasSite(clinical.SiteUrinary) {
		if regional.Urinary.TMPSMX > clinical.RegionalUrinaryTMPSMXThreshold {
			reason := fmt.Sprintf("regional urinary TMP-SMX resistance %.0f%% exceeds %.0f%%",
				regional.Urinary.TMPSMX, clinical.RegionalUrinaryTMPSMXThreshold)
			addAvoid(clinical.TrimethoprimSulfa, reason, false)
			out.Reasons = append(out.Reasons, reason)
		}
		if regional.Urinary.Fluoroquinolone > clinical.RegionalUrinaryFluoroquinoloneThreshold {
			reason := fmt.Sprintf("regional urinary fluoroquinolone resistance %.0f%% exceeds %.0f%%",
				regional.Urinary.Fluoroquinolone, clinical.RegionalUrinaryFluoroquinoloneThreshold)
			addAvoid(clinical.Ciprofloxacin, reason, false)
			addAvoid(clinical.Levofloxacin, reason, false)
			out.Reasons = append(out.Reasons, reason)
		}
	}

	return out
}

func names(drugs []clinical.Drug) string {
	parts := make([]string, len(drugs))
	for i, d := range drugs {
		parts[i] = clinical.DisplayName(d)
	}
	return strings.Join(parts, ", ")
}
