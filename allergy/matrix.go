// Package allergy maps allergy classes to contraindicated drugs, cross-reactive drugs
// and safe alternatives. Multiple allergies compose conjunctively.
package allergy

import (
	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/patient"
)

// Record is the fixed allergy entry for one class.
type Record struct {
	Allergy         clinical.AllergyClass `json:"allergy"`
	Contraindicated []clinical.Drug       `json:"contraindicated"`
	CrossReactive   []clinical.Drug       `json:"crossReactive,omitempty"`
	Alternatives    []clinical.Drug       `json:"alternatives"`
	SafeDrugs       []clinical.Drug       `json:"safeDrugs"`
	Note            string                `json:"note"`
}

type classPair struct {
	a, b clinical.DrugClass
}

func pairOf(a, b clinical.DrugClass) classPair {
	if b < a {
		a, b = b, a
	}
	return classPair{a, b}
}

// Matrix is the read-only allergy table.
type Matrix struct {
	records    map[clinical.AllergyClass]Record
	crossPairs map[classPair]bool
}

// NewMatrix builds the allergy table.
func NewMatrix() *Matrix {
	cephalosporins := clinical.DrugsInClass(clinical.ClassCephalosporin)
	penicillins := clinical.DrugsInClass(clinical.ClassPenicillin)
	carbapenems := clinical.DrugsInClass(clinical.ClassCarbapenem)

	records := []Record{
		{
			Allergy:         clinical.AllergyPenicillin,
			Contraindicated: penicillins,
			CrossReactive:   append(append([]clinical.Drug{}, cephalosporins...), carbapenems...),
			Alternatives: []clinical.Drug{
				clinical.Azithromycin, clinical.Doxycycline, clinical.Levofloxacin, clinical.Vancomycin,
				clinical.Clindamycin, clinical.TrimethoprimSulfa, clinical.Aztreonam, clinical.Linezolid,
			},
			Note: "penicillin allergy: avoid all penicillins; cephalosporins and carbapenems carry cross-reactivity",
		},
		{
			Allergy:         clinical.AllergyCephalosporin,
			Contraindicated: cephalosporins,
			CrossReactive:   append(append([]clinical.Drug{}, penicillins...), carbapenems...),
			Alternatives: []clinical.Drug{
				clinical.Azithromycin, clinical.Levofloxacin, clinical.Vancomycin, clinical.Doxycycline,
				clinical.Clindamycin, clinical.Aztreonam, clinical.Linezolid,
			},
			Note: "cephalosporin allergy: avoid all cephalosporins; penicillins and carbapenems carry cross-reactivity",
		},
		{
			Allergy:         clinical.AllergySulfa,
			Contraindicated: []clinical.Drug{clinical.TrimethoprimSulfa},
			Alternatives: []clinical.Drug{
				clinical.Nitrofurantoin, clinical.Fosfomycin, clinical.Cephalexin, clinical.Doxycycline, clinical.Ciprofloxacin,
			},
			Note: "sulfa allergy: avoid trimethoprim-sulfamethoxazole",
		},
		{
			Allergy:         clinical.AllergyMacrolide,
			Contraindicated: clinical.DrugsInClass(clinical.ClassMacrolide),
			Alternatives: []clinical.Drug{
				clinical.Doxycycline, clinical.Levofloxacin, clinical.Amoxicillin, clinical.Ceftriaxone,
			},
			Note: "macrolide allergy: avoid azithromycin, clarithromycin and erythromycin",
		},
		{
			Allergy:         clinical.AllergyFluoroquinolone,
			Contraindicated: clinical.DrugsInClass(clinical.ClassFluoroquinolone),
			Alternatives: []clinical.Drug{
				clinical.Ceftriaxone, clinical.TrimethoprimSulfa, clinical.Doxycycline,
				clinical.AmoxicillinClavulanate, clinical.Azithromycin,
			},
			Note: "fluoroquinolone allergy: avoid ciprofloxacin, levofloxacin and moxifloxacin",
		},
		{
			Allergy:         clinical.AllergyVancomycin,
			Contraindicated: []clinical.Drug{clinical.Vancomycin},
			Alternatives: []clinical.Drug{
				clinical.Linezolid, clinical.Daptomycin, clinical.Doxycycline, clinical.TrimethoprimSulfa, clinical.Clindamycin,
			},
			Note: "vancomycin intolerance: use linezolid or daptomycin for gram-positive coverage",
		},
	}

	m := &Matrix{
		records: make(map[clinical.AllergyClass]Record, len(records)),
		crossPairs: map[classPair]bool{
			pairOf(clinical.ClassPenicillin, clinical.ClassCephalosporin): true,
			pairOf(clinical.ClassPenicillin, clinical.ClassCarbapenem):    true,
			pairOf(clinical.ClassCephalosporin, clinical.ClassCarbapenem): true,
		},
	}
	for _, r := range records {
		excluded := make(map[clinical.Drug]bool)
		for _, d := range r.Contraindicated {
			excluded[d] = true
		}
		for _, d := range r.CrossReactive {
			excluded[d] = true
		}
		for _, d := range clinical.Catalog() {
			if !excluded[d] {
				r.SafeDrugs = append(r.SafeDrugs, d)
			}
		}
		m.records[r.Allergy] = r
	}
	return m
}

// Record returns the entry of an allergy class.
func (m *Matrix) Record(class clinical.AllergyClass) (Record, bool) {
	r, ok := m.records[class]
	return r, ok
}

// HasCrossReactivity is symmetric: drugs of the same known class, or of a cross-reactive
// class pair, cross-react.
func (m *Matrix) HasCrossReactivity(a, b clinical.Drug) bool {
	ca, cb := clinical.ClassOf(a), clinical.ClassOf(b)
	if ca == clinical.ClassUnknown || cb == clinical.ClassUnknown {
		return false
	}
	if ca == cb {
		return true
	}
	return m.crossPairs[pairOf(ca, cb)]
}

// Evaluate composes the records of every active allergy.
func (m *Matrix) Evaluate(profile patient.AllergyProfile) Assessment {
	a := Assessment{
		contraindicated: make(map[clinical.Drug]clinical.AllergyClass),
		crossReactive:   make(map[clinical.Drug]clinical.AllergyClass),
	}
	for _, class := range profile.Active() {
		r, ok := m.records[class]
		if !ok {
			continue
		}
		a.Active = append(a.Active, r)
		for _, d := range r.Contraindicated {
			if _, seen := a.contraindicated[d]; !seen {
				a.contraindicated[d] = class
			}
		}
		for _, d := range r.CrossReactive {
			if _, seen := a.crossReactive[d]; !seen {
				a.crossReactive[d] = class
			}
		}
	}
	return a
}
