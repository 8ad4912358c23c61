package allergy

import (
	"strings"

	"github.com/giygas/antibiotic-advisor/clinical"
)

// Assessment is the conjunction of every active allergy record.
type Assessment struct {
	Active []Record

	contraindicated map[clinical.Drug]clinical.AllergyClass
	crossReactive   map[clinical.Drug]clinical.AllergyClass
}

// HasAllergies reports whether any allergy is active.
func (a Assessment) HasAllergies() bool {
	return len(a.Active) > 0
}

// ContraindicatedBy returns the allergy that contraindicates the drug, if any.
func (a Assessment) ContraindicatedBy(d clinical.Drug) (clinical.AllergyClass, bool) {
	class, ok := a.contraindicated[d]
	return class, ok
}

// CrossReactiveWith returns the allergy the drug cross-reacts with. Contraindicated
// drugs are not reported here.
func (a Assessment) CrossReactiveWith(d clinical.Drug) (clinical.AllergyClass, bool) {
	if _, ok := a.contraindicated[d]; ok {
		return "", false
	}
	class, ok := a.crossReactive[d]
	return class, ok
}

// IsUsable is true unless an active allergy contraindicates the drug.
func (a Assessment) IsUsable(d clinical.Drug) bool {
	_, blocked := a.contraindicated[d]
	return !blocked
}

// IsSafe is true when the drug is in the safe set of every active record.
func (a Assessment) IsSafe(d clinical.Drug) bool {
	for _, r := range a.Active {
		if !contains(r.SafeDrugs, d) {
			return false
		}
	}
	return true
}

// FindSafeAlternatives returns drugs safe under every active allergy, excluding the drug
// itself. Alternatives named by the records that block the drug come first, then the
// other records' alternatives, then the rest of the catalog.
func (a Assessment) FindSafeAlternatives(d clinical.Drug) []clinical.Drug {
	var ordered []clinical.Drug
	for _, r := range a.Active {
		if contains(r.Contraindicated, d) || contains(r.CrossReactive, d) {
			ordered = append(ordered, r.Alternatives...)
		}
	}
	for _, r := range a.Active {
		ordered = append(ordered, r.Alternatives...)
	}
	ordered = append(ordered, clinical.Catalog()...)

	seen := map[clinical.Drug]bool{d: true}
	var out []clinical.Drug
	for _, candidate := range ordered {
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		if a.IsUsable(candidate) && a.IsSafe(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// Notes returns the notes of the active records.
func (a Assessment) Notes() string {
	notes := make([]string, len(a.Active))
	for i, r := range a.Active {
		notes[i] = r.Note
	}
	return strings.Join(notes, "; ")
}

func contains(drugs []clinical.Drug, d clinical.Drug) bool {
	for _, x := range drugs {
		if x == d {
			return true
		}
	}
	return false
}
