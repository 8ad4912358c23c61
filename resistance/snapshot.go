// Package resistance scores antimicrobial resistance risk from the patient's resistance
// markers and a point-in-time regional surveillance snapshot.
package resistance

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// GlobalRegion is the key of the fallback entry.
const GlobalRegion = "global"

// RespiratoryResistance holds S. pneumoniae non-susceptibility percentages.
type RespiratoryResistance struct {
	Macrolide   float64 `json:"macrolide" yaml:"macrolide"`
	Doxycycline float64 `json:"doxycycline" yaml:"doxycycline"`
	Penicillin  float64 `json:"penicillin" yaml:"penicillin"`
}

// UrinaryResistance holds E. coli resistance percentages.
type UrinaryResistance struct {
	TMPSMX          float64 `json:"tmpSmx" yaml:"tmpSmx"`
	Fluoroquinolone float64 `json:"fluoroquinolone" yaml:"fluoroquinolone"`
	Nitrofurantoin  float64 `json:"nitrofurantoin" yaml:"nitrofurantoin"`
	Cephalosporin   float64 `json:"cephalosporin" yaml:"cephalosporin"`
}

// RegionalData is the prevalence of resistant organisms in a region, in percent.
type RegionalData struct {
	MRSA        float64               `json:"mrsa" yaml:"mrsa"`
	VRE         float64               `json:"vre" yaml:"vre"`
	ESBL        float64               `json:"esbl" yaml:"esbl"`
	CRE         float64               `json:"cre" yaml:"cre"`
	Pseudomonas float64               `json:"pseudomonas" yaml:"pseudomonas"`
	Respiratory RespiratoryResistance `json:"respiratory" yaml:"respiratory"`
	Urinary     UrinaryResistance     `json:"urinary" yaml:"urinary"`
}

// Snapshot is a read-only view of regional surveillance data.
type Snapshot struct {
	Regions map[string]RegionalData `json:"regions" yaml:"regions"`
	Default RegionalData            `json:"default" yaml:"default"`
	AsOf    time.Time               `json:"asOf" yaml:"asOf"`
	Source  string                  `json:"source" yaml:"source"`
}

// Lookup returns the entry for a region. Unknown or empty regions fall back to the
// default entry with found set to false.
func (s Snapshot) Lookup(region string) (RegionalData, bool) {
	key := NormalizeRegion(region)
	if key == "" || key == GlobalRegion {
		return s.Default, key == GlobalRegion
	}
	if data, ok := s.Regions[key]; ok {
		return data, true
	}
	return s.Default, false
}

// RegionKeys returns the known regions sorted.
func (s Snapshot) RegionKeys() []string {
	keys := make([]string, 0, len(s.Regions))
	for k := range s.Regions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NormalizeRegion lowercases and snake-cases a region name.
func NormalizeRegion(region string) string {
	region = strings.ToLower(strings.TrimSpace(region))
	return strings.Join(strings.FieldsFunc(region, func(r rune) bool { return r == ' ' || r == '-' || r == '_' }), "_")
}

var (
	defaultSnapshot     Snapshot
	defaultSnapshotOnce sync.Once
)

// DefaultSnapshot returns a copy of the built-in surveillance table, which is built once.
func DefaultSnapshot() Snapshot {
	defaultSnapshotOnce.Do(func() {
		defaultSnapshot = Snapshot{
			Default: RegionalData{
				MRSA: 14, VRE: 8, ESBL: 18, CRE: 3, Pseudomonas: 12,
				Respiratory: RespiratoryResistance{Macrolide: 22, Doxycycline: 12, Penicillin: 10},
				Urinary:     UrinaryResistance{TMPSMX: 18, Fluoroquinolone: 17, Nitrofurantoin: 3, Cephalosporin: 12},
			},
			Regions: map[string]RegionalData{
				"north_america": {
					MRSA: 32, VRE: 12, ESBL: 14, CRE: 2, Pseudomonas: 14,
					Respiratory: RespiratoryResistance{Macrolide: 35, Doxycycline: 15, Penicillin: 8},
					Urinary:     UrinaryResistance{TMPSMX: 22, Fluoroquinolone: 21, Nitrofurantoin: 3, Cephalosporin: 9},
				},
				"europe": {
					MRSA: 12, VRE: 9, ESBL: 16, CRE: 4, Pseudomonas: 15,
					Respiratory: RespiratoryResistance{Macrolide: 18, Doxycycline: 10, Penicillin: 9},
					Urinary:     UrinaryResistance{TMPSMX: 27, Fluoroquinolone: 19, Nitrofurantoin: 2, Cephalosporin: 11},
				},
				"latin_america": {
					MRSA: 28, VRE: 10, ESBL: 31, CRE: 7, Pseudomonas: 22,
					Respiratory: RespiratoryResistance{Macrolide: 24, Doxycycline: 14, Penicillin: 16},
					Urinary:     UrinaryResistance{TMPSMX: 41, Fluoroquinolone: 33, Nitrofurantoin: 5, Cephalosporin: 24},
				},
				"asia_pacific": {
					MRSA: 36, VRE: 7, ESBL: 42, CRE: 9, Pseudomonas: 18,
					Respiratory: RespiratoryResistance{Macrolide: 72, Doxycycline: 38, Penicillin: 20},
					Urinary:     UrinaryResistance{TMPSMX: 45, Fluoroquinolone: 48, Nitrofurantoin: 6, Cephalosporin: 35},
				},
				"middle_east": {
					MRSA: 30, VRE: 6, ESBL: 38, CRE: 8, Pseudomonas: 20,
					Respiratory: RespiratoryResistance{Macrolide: 30, Doxycycline: 16, Penicillin: 18},
					Urinary:     UrinaryResistance{TMPSMX: 44, Fluoroquinolone: 38, Nitrofurantoin: 4, Cephalosporin: 30},
				},
				"africa": {
					MRSA: 25, VRE: 5, ESBL: 35, CRE: 6, Pseudomonas: 19,
					Respiratory: RespiratoryResistance{Macrolide: 20, Doxycycline: 18, Penicillin: 22},
					Urinary:     UrinaryResistance{TMPSMX: 60, Fluoroquinolone: 30, Nitrofurantoin: 7, Cephalosporin: 28},
				},
				"oceania": {
					MRSA: 15, VRE: 11, ESBL: 9, CRE: 1, Pseudomonas: 11,
					Respiratory: RespiratoryResistance{Macrolide: 19, Doxycycline: 9, Penicillin: 7},
					Urinary:     UrinaryResistance{TMPSMX: 21, Fluoroquinolone: 9, Nitrofurantoin: 2, Cephalosporin: 7},
				},
			},
			Source: "built-in",
		}
	})
	s := defaultSnapshot
	s.Regions = maps.Clone(defaultSnapshot.Regions)
	return s
}
