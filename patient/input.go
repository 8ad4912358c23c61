// Package patient normalizes raw patient input into a typed clinical profile: body metrics,
// renal function, canonical severity and data-quality findings.
package patient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Measure is a numeric field as entered. It accepts JSON numbers, numeric strings,
// empty strings and null; anything blank or unparseable is absent.
type Measure struct {
	Value   float64
	Present bool
	Raw     string // original text when it could not be parsed
}

// M returns a present measure.
func M(v float64) Measure {
	return Measure{Value: v, Present: true}
}

// Usable reports whether the measure is present, finite and strictly positive.
func (m Measure) Usable() bool {
	return m.Present && m.Value > 0 && finite(m.Value)
}

// Unparseable reports whether a value was sent but could not be read as a number.
func (m Measure) Unparseable() bool {
	return !m.Present && m.Raw != ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Measure) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*m = Measure{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("invalid measure %s: %w", b, err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*m = Measure{}
			return nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil || !finite(v) {
			*m = Measure{Raw: s}
			return nil
		}
		*m = Measure{Value: v, Present: true}
		return nil
	}

	v, err := strconv.ParseFloat(string(b), 64)
	if errors.Is(err, strconv.ErrRange) {
		*m = Measure{Raw: string(b)}
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid measure %s: %w", b, err)
	}
	*m = Measure{Value: v, Present: true}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// MarshalJSON implements json.Marshaler.
func (m Measure) MarshalJSON() ([]byte, error) {
	if !m.Present {
		if m.Raw != "" {
			return json.Marshal(m.Raw)
		}
		return []byte("null"), nil
	}
	if !finite(m.Value) {
		return json.Marshal(strconv.FormatFloat(m.Value, 'g', -1, 64))
	}
	return json.Marshal(m.Value)
}

// Comorbidities are the boolean comorbidity flags.
type Comorbidities struct {
	RenalDisease      bool `json:"renalDisease,omitempty"`
	HepaticDisease    bool `json:"hepaticDisease,omitempty"`
	Diabetes          bool `json:"diabetes,omitempty"`
	Immunosuppression bool `json:"immunosuppression,omitempty"`
}

// Count returns the number of comorbidities set.
func (c Comorbidities) Count() int {
	n := 0
	for _, set := range []bool{c.RenalDisease, c.HepaticDisease, c.Diabetes, c.Immunosuppression} {
		if set {
			n++
		}
	}
	return n
}

// ResistanceFlags are the confirmed or suspected resistant organisms.
type ResistanceFlags struct {
	MRSA        bool `json:"mrsa,omitempty"`
	VRE         bool `json:"vre,omitempty"`
	ESBL        bool `json:"esbl,omitempty"`
	CRE         bool `json:"cre,omitempty"`
	Pseudomonas bool `json:"pseudomonas,omitempty"`
}

// Count returns the number of resistance markers set.
func (r ResistanceFlags) Count() int {
	return len(r.Labels())
}

// Labels returns the set markers in a fixed order.
func (r ResistanceFlags) Labels() []string {
	var labels []string
	if r.CRE {
		labels = append(labels, "CRE")
	}
	if r.ESBL {
		labels = append(labels, "ESBL")
	}
	if r.VRE {
		labels = append(labels, "VRE")
	}
	if r.MRSA {
		labels = append(labels, "MRSA")
	}
	if r.Pseudomonas {
		labels = append(labels, "Pseudomonas")
	}
	return labels
}

// AllergyInput carries the allergy flags plus free-text entries.
type AllergyInput struct {
	Penicillin      bool     `json:"penicillin,omitempty"`
	Cephalosporin   bool     `json:"cephalosporin,omitempty"`
	Sulfa           bool     `json:"sulfa,omitempty"`
	Macrolide       bool     `json:"macrolide,omitempty"`
	Fluoroquinolone bool     `json:"fluoroquinolone,omitempty"`
	Vancomycin      bool     `json:"vancomycin,omitempty"`
	Other           []string `json:"other,omitempty"`
}

// Input is the raw patient record as entered.
type Input struct {
	Age                 Measure         `json:"age"`
	Gender              string          `json:"gender,omitempty"`
	Weight              Measure         `json:"weight"`
	Height              Measure         `json:"height"`
	Pregnancy           string          `json:"pregnancy,omitempty"`
	Trimester           Measure         `json:"trimester"`
	InfectionSites      []string        `json:"infectionSites,omitempty"`
	Symptoms            string          `json:"symptoms,omitempty"`
	SymptomDurationDays Measure         `json:"symptomDurationDays"`
	Severity            string          `json:"severity,omitempty"`
	Creatinine          Measure         `json:"creatinine"`
	RecentAntibiotics   bool            `json:"recentAntibiotics,omitempty"`
	HospitalAcquired    bool            `json:"hospitalAcquired,omitempty"`
	Comorbidities       Comorbidities   `json:"comorbidities"`
	Allergies           AllergyInput    `json:"allergies"`
	Resistances         ResistanceFlags `json:"resistances"`
	Region              string          `json:"region,omitempty"`
	CurrentMedications  []string        `json:"currentMedications,omitempty"`
}
