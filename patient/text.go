package patient

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/giygas/antibiotic-advisor/clinical"
)

var folder = cases.Fold()

// NormalizeText applies NFKC, case folding and whitespace collapsing.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = folder.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// allergyTerms maps free-text fragments to allergy classes.
var allergyTerms = []struct {
	class clinical.AllergyClass
	terms []string
}{
	{clinical.AllergyPenicillin, []string{"penicillin", "amoxicillin", "ampicillin", "augmentin", "pcn", "beta-lactam", "beta lactam"}},
	{clinical.AllergyCephalosporin, []string{"cephalosporin", "ceph", "cef", "keflex", "rocephin", "beta-lactam", "beta lactam"}},
	{clinical.AllergySulfa, []string{"sulfa", "sulfonamide", "sulfamethoxazole", "bactrim", "septra", "tmp-smx", "co-trimoxazole"}},
	{clinical.AllergyMacrolide, []string{"macrolide", "azithromycin", "clarithromycin", "erythromycin", "zithromax", "z-pak"}},
	{clinical.AllergyFluoroquinolone, []string{"quinolone", "floxacin", "cipro", "levaquin"}},
	{clinical.AllergyVancomycin, []string{"vancomycin", "vanco", "red man"}},
}

var classToAllergy = map[clinical.DrugClass]clinical.AllergyClass{
	clinical.ClassPenicillin:      clinical.AllergyPenicillin,
	clinical.ClassCephalosporin:   clinical.AllergyCephalosporin,
	clinical.ClassSulfonamide:     clinical.AllergySulfa,
	clinical.ClassMacrolide:       clinical.AllergyMacrolide,
	clinical.ClassFluoroquinolone: clinical.AllergyFluoroquinolone,
	clinical.ClassGlycopeptide:    clinical.AllergyVancomycin,
}

// ParseAllergyText returns the allergy classes mentioned in a free-text entry.
func ParseAllergyText(entry string) []clinical.AllergyClass {
	text := NormalizeText(entry)
	if text == "" {
		return nil
	}

	seen := make(map[clinical.AllergyClass]bool)
	var classes []clinical.AllergyClass
	mark := func(c clinical.AllergyClass) {
		if !seen[c] {
			seen[c] = true
			classes = append(classes, c)
		}
	}

	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == ';' || r == '(' || r == ')' }) {
		if d, ok := clinical.ParseDrug(word); ok {
			if c, ok := classToAllergy[clinical.ClassOf(d)]; ok {
				mark(c)
			}
		}
	}
	for _, group := range allergyTerms {
		for _, term := range group.terms {
			if strings.Contains(text, term) {
				mark(group.class)
				break
			}
		}
	}
	return classes
}

func buildAllergyProfile(in AllergyInput) AllergyProfile {
	profile := AllergyProfile{
		Penicillin:      in.Penicillin,
		Cephalosporin:   in.Cephalosporin,
		Sulfa:           in.Sulfa,
		Macrolide:       in.Macrolide,
		Fluoroquinolone: in.Fluoroquinolone,
		Vancomycin:      in.Vancomycin,
	}
	for _, entry := range in.Other {
		classes := ParseAllergyText(entry)
		if len(classes) == 0 {
			if trimmed := strings.TrimSpace(entry); trimmed != "" {
				profile.Unrecognized = append(profile.Unrecognized, trimmed)
			}
			continue
		}
		for _, c := range classes {
			profile = profile.With(c)
		}
	}
	return profile
}
