// Package dosing computes per-patient dose strings from a base dose table.
package dosing

import (
	"sort"
	"sync"

	"github.com/giygas/antibiotic-advisor/clinical"
)

// WeightRule selects how body weight enters the dose.
type WeightRule int

const (
	// FixedDose drugs are scaled by 1.2 in obesity.
	FixedDose WeightRule = iota
	// Aminoglycoside drugs use actual weight up to IBW, IBW up to 120% of IBW, ABW above.
	Aminoglycoside
	// ActualWeightCapped drugs use actual weight, capped at MaxDose.
	ActualWeightCapped
)

// RenalTier replaces the frequency and/or scales the dose below a clearance.
type RenalTier struct {
	Below      float64
	Frequency  string
	DoseFactor float64
	Note       string
}

// Entry is the base dose of one drug.
type Entry struct {
	BaseDose           float64
	PerKg              float64
	MaxDose            float64
	Unit               string
	Frequency          string
	Route              string
	Weight             WeightRule
	HepaticallyCleared bool
	RenalTiers         []RenalTier
}

// WeightSensitive reports whether the dose is computed per kilogram.
func (e Entry) WeightSensitive() bool {
	return e.PerKg > 0
}

// tier returns the most severe tier below which the clearance falls.
func (e Entry) tier(crcl float64) (RenalTier, bool) {
	for _, t := range e.RenalTiers {
		if crcl < t.Below {
			return t, true
		}
	}
	return RenalTier{}, false
}

// Table maps drugs to their base dose.
type Table map[clinical.Drug]Entry

// classDefaults are used when a drug has no entry of its own.
var classDefaults = map[clinical.DrugClass]Entry{
	clinical.ClassPenicillin:      {BaseDose: 500, Unit: "mg", Frequency: "every 8 hours", Route: "oral"},
	clinical.ClassCephalosporin:   {BaseDose: 1000, Unit: "mg", Frequency: "every 12 hours", Route: "IV"},
	clinical.ClassCarbapenem:      {BaseDose: 1000, Unit: "mg", Frequency: "every 8 hours", Route: "IV"},
	clinical.ClassMacrolide:       {BaseDose: 500, Unit: "mg", Frequency: "every 24 hours", Route: "oral"},
	clinical.ClassFluoroquinolone: {BaseDose: 500, Unit: "mg", Frequency: "every 24 hours", Route: "oral"},
	clinical.ClassTetracycline:    {BaseDose: 100, Unit: "mg", Frequency: "every 12 hours", Route: "oral"},
	clinical.ClassAminoglycoside:  {BaseDose: 350, Unit: "mg", Frequency: "every 24 hours", Route: "IV"},
}

var (
	defaultTable     Table
	defaultTableOnce sync.Once
)

func tiers(t ...RenalTier) []RenalTier {
	sort.SliceStable(t, func(i, j int) bool { return t[i].Below < t[j].Below })
	return t
}

// DefaultTable returns the built-in adult dosing table.
func DefaultTable() Table {
	defaultTableOnce.Do(func() {
		defaultTable = Table{
			clinical.Amoxicillin: {BaseDose: 1000, Unit: "mg", Frequency: "every 8 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 12 hours"}, RenalTier{Below: 10, Frequency: "every 24 hours"})},
			clinical.AmoxicillinClavulanate: {BaseDose: 875, Unit: "mg", Frequency: "every 12 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 12 hours", DoseFactor: 0.57, Note: "use 500 mg tablets"},
					RenalTier{Below: 10, Frequency: "every 24 hours", DoseFactor: 0.57, Note: "use 500 mg tablets"})},
			clinical.Ampicillin: {BaseDose: 2000, Unit: "mg", Frequency: "every 4 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 6 hours"}, RenalTier{Below: 10, Frequency: "every 12 hours"})},
			clinical.AmpicillinSulbactam: {BaseDose: 3000, Unit: "mg", Frequency: "every 6 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 12 hours"}, RenalTier{Below: 15, Frequency: "every 24 hours"})},
			clinical.Penicillin:    {BaseDose: 500, Unit: "mg", Frequency: "every 6 hours", Route: "oral"},
			clinical.Dicloxacillin: {BaseDose: 500, Unit: "mg", Frequency: "every 6 hours", Route: "oral"},
			clinical.Nafcillin:     {BaseDose: 2000, Unit: "mg", Frequency: "every 4 hours", Route: "IV"},
			clinical.PiperacillinTazobactam: {BaseDose: 4500, Unit: "mg", Frequency: "every 6 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 40, Frequency: "every 8 hours", DoseFactor: 0.75},
					RenalTier{Below: 20, Frequency: "every 8 hours", DoseFactor: 0.5})},
			clinical.Cephalexin: {BaseDose: 500, Unit: "mg", Frequency: "every 6 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 12 hours"})},
			clinical.Cefazolin: {BaseDose: 2000, Unit: "mg", Frequency: "every 8 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 35, Frequency: "every 12 hours"}, RenalTier{Below: 10, Frequency: "every 24 hours"})},
			clinical.Cefuroxime: {BaseDose: 500, Unit: "mg", Frequency: "every 12 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 10, Frequency: "every 24 hours"})},
			clinical.Ceftriaxone: {BaseDose: 2000, Unit: "mg", Frequency: "every 24 hours", Route: "IV"},
			clinical.Ceftazidime: {BaseDose: 2000, Unit: "mg", Frequency: "every 8 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 12 hours"}, RenalTier{Below: 30, Frequency: "every 24 hours"})},
			clinical.Cefepime: {BaseDose: 2000, Unit: "mg", Frequency: "every 8 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 12 hours"}, RenalTier{Below: 30, Frequency: "every 24 hours"},
					RenalTier{Below: 10, Frequency: "every 24 hours", DoseFactor: 0.5})},
			clinical.CeftazidimeAvibactam: {BaseDose: 2500, Unit: "mg", Frequency: "every 8 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 8 hours", DoseFactor: 0.5},
					RenalTier{Below: 30, Frequency: "every 12 hours", DoseFactor: 0.375})},
			clinical.Meropenem: {BaseDose: 1000, Unit: "mg", Frequency: "every 8 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 12 hours"}, RenalTier{Below: 25, Frequency: "every 12 hours", DoseFactor: 0.5},
					RenalTier{Below: 10, Frequency: "every 24 hours", DoseFactor: 0.5})},
			clinical.Ertapenem: {BaseDose: 1000, Unit: "mg", Frequency: "every 24 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 24 hours", DoseFactor: 0.5})},
			clinical.Imipenem: {BaseDose: 500, Unit: "mg", Frequency: "every 6 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 60, Frequency: "every 8 hours"}, RenalTier{Below: 30, Frequency: "every 12 hours"})},
			clinical.Aztreonam: {BaseDose: 2000, Unit: "mg", Frequency: "every 8 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 8 hours", DoseFactor: 0.5},
					RenalTier{Below: 10, Frequency: "every 8 hours", DoseFactor: 0.25})},
			clinical.Azithromycin: {BaseDose: 500, Unit: "mg", Frequency: "every 24 hours", Route: "oral"},
			clinical.Clarithromycin: {BaseDose: 500, Unit: "mg", Frequency: "every 12 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 12 hours", DoseFactor: 0.5})},
			clinical.Erythromycin: {BaseDose: 500, Unit: "mg", Frequency: "every 6 hours", Route: "oral", HepaticallyCleared: true},
			clinical.Ciprofloxacin: {BaseDose: 500, Unit: "mg", Frequency: "every 12 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 24 hours"})},
			clinical.Levofloxacin: {BaseDose: 750, Unit: "mg", Frequency: "every 24 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 48 hours"}, RenalTier{Below: 20, Frequency: "every 48 hours", DoseFactor: 0.67})},
			clinical.Moxifloxacin: {BaseDose: 400, Unit: "mg", Frequency: "every 24 hours", Route: "oral"},
			clinical.Doxycycline:  {BaseDose: 100, Unit: "mg", Frequency: "every 12 hours", Route: "oral"},
			clinical.Minocycline:  {BaseDose: 100, Unit: "mg", Frequency: "every 12 hours", Route: "oral"},
			clinical.Tigecycline:  {BaseDose: 50, Unit: "mg", Frequency: "every 12 hours after a 100 mg load", Route: "IV", HepaticallyCleared: true},
			clinical.TrimethoprimSulfa: {BaseDose: 800, Unit: "mg", Frequency: "every 12 hours", Route: "oral",
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 12 hours", DoseFactor: 0.5})},
			clinical.Vancomycin: {PerKg: 15, MaxDose: 2000, Unit: "mg", Frequency: "every 12 hours", Route: "IV", Weight: ActualWeightCapped,
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 24 hours"}, RenalTier{Below: 30, Frequency: "every 48 hours"},
					RenalTier{Below: 10, Frequency: "every 72 hours", Note: "redose by level"})},
			clinical.Linezolid: {BaseDose: 600, Unit: "mg", Frequency: "every 12 hours", Route: "oral or IV"},
			clinical.Daptomycin: {PerKg: 6, MaxDose: 1000, Unit: "mg", Frequency: "every 24 hours", Route: "IV", Weight: ActualWeightCapped,
				RenalTiers: tiers(RenalTier{Below: 30, Frequency: "every 48 hours"})},
			clinical.Gentamicin: {PerKg: 5, Unit: "mg", Frequency: "every 24 hours", Route: "IV", Weight: Aminoglycoside,
				RenalTiers: tiers(RenalTier{Below: 60, Frequency: "every 36 hours"}, RenalTier{Below: 40, Frequency: "every 48 hours"},
					RenalTier{Below: 20, Frequency: "by serum level", Note: "dose by level"})},
			clinical.Tobramycin: {PerKg: 5, Unit: "mg", Frequency: "every 24 hours", Route: "IV", Weight: Aminoglycoside,
				RenalTiers: tiers(RenalTier{Below: 60, Frequency: "every 36 hours"}, RenalTier{Below: 40, Frequency: "every 48 hours"},
					RenalTier{Below: 20, Frequency: "by serum level", Note: "dose by level"})},
			clinical.Amikacin: {PerKg: 15, Unit: "mg", Frequency: "every 24 hours", Route: "IV", Weight: Aminoglycoside,
				RenalTiers: tiers(RenalTier{Below: 60, Frequency: "every 36 hours"}, RenalTier{Below: 40, Frequency: "every 48 hours"},
					RenalTier{Below: 20, Frequency: "by serum level", Note: "dose by level"})},
			clinical.Metronidazole:  {BaseDose: 500, Unit: "mg", Frequency: "every 8 hours", Route: "oral or IV", HepaticallyCleared: true},
			clinical.Clindamycin:    {BaseDose: 600, Unit: "mg", Frequency: "every 8 hours", Route: "oral or IV", HepaticallyCleared: true},
			clinical.Nitrofurantoin: {BaseDose: 100, Unit: "mg", Frequency: "every 12 hours", Route: "oral"},
			clinical.Fosfomycin:     {BaseDose: 3000, Unit: "mg", Frequency: "single dose", Route: "oral"},
			clinical.Colistin: {BaseDose: 150, Unit: "mg", Frequency: "every 12 hours", Route: "IV",
				RenalTiers: tiers(RenalTier{Below: 50, Frequency: "every 12 hours", DoseFactor: 0.75},
					RenalTier{Below: 30, Frequency: "every 24 hours", DoseFactor: 0.75})},
			clinical.Rifampin: {BaseDose: 600, Unit: "mg", Frequency: "every 24 hours", Route: "oral", HepaticallyCleared: true},
		}
	})
	return defaultTable
}
