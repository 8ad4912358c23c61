// Package clinical holds the shared vocabulary of the advisor: the antibiotic catalog,
// drug classes, ordered enumerations and every scoring weight used by the pipeline.
package clinical

import (
	"strings"
)

// Drug is a canonical lowercase antibiotic identifier.
type Drug string

// DrugClass groups antibiotics sharing allergy and interaction behaviour.
type DrugClass string

const (
	ClassPenicillin      DrugClass = "penicillin"
	ClassCephalosporin   DrugClass = "cephalosporin"
	ClassCarbapenem      DrugClass = "carbapenem"
	ClassMonobactam      DrugClass = "monobactam"
	ClassMacrolide       DrugClass = "macrolide"
	ClassFluoroquinolone DrugClass = "fluoroquinolone"
	ClassTetracycline    DrugClass = "tetracycline"
	ClassSulfonamide     DrugClass = "sulfonamide"
	ClassGlycopeptide    DrugClass = "glycopeptide"
	ClassOxazolidinone   DrugClass = "oxazolidinone"
	ClassLipopeptide     DrugClass = "lipopeptide"
	ClassAminoglycoside  DrugClass = "aminoglycoside"
	ClassNitroimidazole  DrugClass = "nitroimidazole"
	ClassLincosamide     DrugClass = "lincosamide"
	ClassNitrofuran      DrugClass = "nitrofuran"
	ClassPhosphonic      DrugClass = "phosphonic"
	ClassPolymyxin       DrugClass = "polymyxin"
	ClassRifamycin       DrugClass = "rifamycin"
	ClassUnknown         DrugClass = "unknown"
)

const (
	Amoxicillin            Drug = "amoxicillin"
	AmoxicillinClavulanate Drug = "amoxicillin-clavulanate"
	Ampicillin             Drug = "ampicillin"
	AmpicillinSulbactam    Drug = "ampicillin-sulbactam"
	Penicillin             Drug = "penicillin"
	Dicloxacillin          Drug = "dicloxacillin"
	Nafcillin              Drug = "nafcillin"
	PiperacillinTazobactam Drug = "piperacillin-tazobactam"
	Cephalexin             Drug = "cephalexin"
	Cefazolin              Drug = "cefazolin"
	Cefuroxime             Drug = "cefuroxime"
	Ceftriaxone            Drug = "ceftriaxone"
	Ceftazidime            Drug = "ceftazidime"
	Cefepime               Drug = "cefepime"
	CeftazidimeAvibactam   Drug = "ceftazidime-avibactam"
	Meropenem              Drug = "meropenem"
	Ertapenem              Drug = "ertapenem"
	Imipenem               Drug = "imipenem"
	Aztreonam              Drug = "aztreonam"
	Azithromycin           Drug = "azithromycin"
	Clarithromycin         Drug = "clarithromycin"
	Erythromycin           Drug = "erythromycin"
	Ciprofloxacin          Drug = "ciprofloxacin"
	Levofloxacin           Drug = "levofloxacin"
	Moxifloxacin           Drug = "moxifloxacin"
	Doxycycline            Drug = "doxycycline"
	Minocycline            Drug = "minocycline"
	Tigecycline            Drug = "tigecycline"
	TrimethoprimSulfa      Drug = "trimethoprim-sulfamethoxazole"
	Vancomycin             Drug = "vancomycin"
	Linezolid              Drug = "linezolid"
	Daptomycin             Drug = "daptomycin"
	Gentamicin             Drug = "gentamicin"
	Tobramycin             Drug = "tobramycin"
	Amikacin               Drug = "amikacin"
	Metronidazole          Drug = "metronidazole"
	Clindamycin            Drug = "clindamycin"
	Nitrofurantoin         Drug = "nitrofurantoin"
	Fosfomycin             Drug = "fosfomycin"
	Colistin               Drug = "colistin"
	Rifampin               Drug = "rifampin"
)

type catalogEntry struct {
	drug    Drug
	class   DrugClass
	display string
}

// catalog order is the tie-breaking order used wherever drug lists are sorted.
var catalog = []catalogEntry{
	{Amoxicillin, ClassPenicillin, "Amoxicillin"},
	{AmoxicillinClavulanate, ClassPenicillin, "Amoxicillin-Clavulanate"},
	{Ampicillin, ClassPenicillin, "Ampicillin"},
	{AmpicillinSulbactam, ClassPenicillin, "Ampicillin-Sulbactam"},
	{Penicillin, ClassPenicillin, "Penicillin"},
	{Dicloxacillin, ClassPenicillin, "Dicloxacillin"},
	{Nafcillin, ClassPenicillin, "Nafcillin"},
	{PiperacillinTazobactam, ClassPenicillin, "Piperacillin-Tazobactam"},
	{Cephalexin, ClassCephalosporin, "Cephalexin"},
	{Cefazolin, ClassCephalosporin, "Cefazolin"},
	{Cefuroxime, ClassCephalosporin, "Cefuroxime"},
	{Ceftriaxone, ClassCephalosporin, "Ceftriaxone"},
	{Ceftazidime, ClassCephalosporin, "Ceftazidime"},
	{Cefepime, ClassCephalosporin, "Cefepime"},
	{CeftazidimeAvibactam, ClassCephalosporin, "Ceftazidime-Avibactam"},
	{Meropenem, ClassCarbapenem, "Meropenem"},
	{Ertapenem, ClassCarbapenem, "Ertapenem"},
	{Imipenem, ClassCarbapenem, "Imipenem"},
	{Aztreonam, ClassMonobactam, "Aztreonam"},
	{Azithromycin, ClassMacrolide, "Azithromycin"},
	{Clarithromycin, ClassMacrolide, "Clarithromycin"},
	{Erythromycin, ClassMacrolide, "Erythromycin"},
	{Ciprofloxacin, ClassFluoroquinolone, "Ciprofloxacin"},
	{Levofloxacin, ClassFluoroquinolone, "Levofloxacin"},
	{Moxifloxacin, ClassFluoroquinolone, "Moxifloxacin"},
	{Doxycycline, ClassTetracycline, "Doxycycline"},
	{Minocycline, ClassTetracycline, "Minocycline"},
	{Tigecycline, ClassTetracycline, "Tigecycline"},
	{TrimethoprimSulfa, ClassSulfonamide, "Trimethoprim-Sulfamethoxazole"},
	{Vancomycin, ClassGlycopeptide, "Vancomycin"},
	{Linezolid, ClassOxazolidinone, "Linezolid"},
	{Daptomycin, ClassLipopeptide, "Daptomycin"},
	{Gentamicin, ClassAminoglycoside, "Gentamicin"},
	{Tobramycin, ClassAminoglycoside, "Tobramycin"},
	{Amikacin, ClassAminoglycoside, "Amikacin"},
	{Metronidazole, ClassNitroimidazole, "Metronidazole"},
	{Clindamycin, ClassLincosamide, "Clindamycin"},
	{Nitrofurantoin, ClassNitrofuran, "Nitrofurantoin"},
	{Fosfomycin, ClassPhosphonic, "Fosfomycin"},
	{Colistin, ClassPolymyxin, "Colistin"},
	{Rifampin, ClassRifamycin, "Rifampin"},
}

var (
	catalogIndex = make(map[Drug]int, len(catalog))

	// Common spellings accepted by ParseDrug in addition to the canonical identifiers.
	drugAliases = map[string]Drug{
		"amoxicillin/clavulanate":       AmoxicillinClavulanate,
		"augmentin":                     AmoxicillinClavulanate,
		"co-amoxiclav":                  AmoxicillinClavulanate,
		"ampicillin/sulbactam":          AmpicillinSulbactam,
		"unasyn":                        AmpicillinSulbactam,
		"penicillin v":                  Penicillin,
		"penicillin g":                  Penicillin,
		"piperacillin/tazobactam":       PiperacillinTazobactam,
		"pip-tazo":                      PiperacillinTazobactam,
		"zosyn":                         PiperacillinTazobactam,
		"keflex":                        Cephalexin,
		"rocephin":                      Ceftriaxone,
		"ceftazidime/avibactam":         CeftazidimeAvibactam,
		"avycaz":                        CeftazidimeAvibactam,
		"zithromax":                     Azithromycin,
		"cipro":                         Ciprofloxacin,
		"levaquin":                      Levofloxacin,
		"trimethoprim/sulfamethoxazole": TrimethoprimSulfa,
		"tmp-smx":                       TrimethoprimSulfa,
		"tmp/smx":                       TrimethoprimSulfa,
		"co-trimoxazole":                TrimethoprimSulfa,
		"bactrim":                       TrimethoprimSulfa,
		"macrobid":                      Nitrofurantoin,
		"flagyl":                        Metronidazole,
		"rifampicin":                    Rifampin,
		"zyvox":                         Linezolid,
	}
)

func init() {
	for i, entry := range catalog {
		catalogIndex[entry.drug] = i
	}
}

// ClassOf returns the drug class, or ClassUnknown for drugs outside the catalog.
func ClassOf(d Drug) DrugClass {
	if i, ok := catalogIndex[d]; ok {
		return catalog[i].class
	}
	return ClassUnknown
}

// DisplayName returns the human readable drug name.
func DisplayName(d Drug) string {
	if i, ok := catalogIndex[d]; ok {
		return catalog[i].display
	}
	return string(d)
}

// Known reports whether the drug is part of the catalog.
func Known(d Drug) bool {
	_, ok := catalogIndex[d]
	return ok
}

// CatalogOrder returns the position of the drug in the catalog; unknown drugs sort last.
func CatalogOrder(d Drug) int {
	if i, ok := catalogIndex[d]; ok {
		return i
	}
	return len(catalog)
}

// Catalog returns every known drug in catalog order.
func Catalog() []Drug {
	drugs := make([]Drug, len(catalog))
	for i, entry := range catalog {
		drugs[i] = entry.drug
	}
	return drugs
}

// DrugsInClass returns the catalog members of a class in catalog order.
func DrugsInClass(classes ...DrugClass) []Drug {
	var drugs []Drug
	for _, entry := range catalog {
		for _, c := range classes {
			if entry.class == c {
				drugs = append(drugs, entry.drug)
				break
			}
		}
	}
	return drugs
}

// ParseDrug resolves a free-text drug name to a catalog identifier.
func ParseDrug(name string) (Drug, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if _, ok := catalogIndex[Drug(key)]; ok {
		return Drug(key), true
	}
	if d, ok := drugAliases[key]; ok {
		return d, true
	}
	dashed := strings.Join(strings.Fields(strings.ReplaceAll(key, "/", " ")), "-")
	if _, ok := catalogIndex[Drug(dashed)]; ok {
		return Drug(dashed), true
	}
	return "", false
}

// Regimen is an ordered list of drugs given together.
type Regimen []Drug

// Name joins the display names with " + ".
func (r Regimen) Name() string {
	names := make([]string, len(r))
	for i, d := range r {
		names[i] = DisplayName(d)
	}
	return strings.Join(names, " + ")
}

// Contains reports whether the regimen includes the drug.
func (r Regimen) Contains(d Drug) bool {
	for _, member := range r {
		if member == d {
			return true
		}
	}
	return false
}

// ParseRegimen splits a "Drug A + Drug B" string into a regimen; unknown names are skipped.
func ParseRegimen(s string) Regimen {
	var regimen Regimen
	for _, part := range strings.Split(s, "+") {
		if d, ok := ParseDrug(part); ok {
			regimen = append(regimen, d)
		}
	}
	return regimen
}

// Of builds a regimen from drugs.
func Of(drugs ...Drug) Regimen {
	return Regimen(drugs)
}
