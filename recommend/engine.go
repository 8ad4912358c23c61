// Package recommend runs the full decision pipeline for one patient and composes the
// final recommendation.
package recommend

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/antibiotic-advisor/allergy"
	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/dosing"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/population"
	"github.com/giygas/antibiotic-advisor/resistance"
	"github.com/giygas/antibiotic-advisor/safety"
	"github.com/giygas/antibiotic-advisor/scenario"
)

// idNamespace scopes the name-based recommendation IDs.
var idNamespace = uuid.MustParse("6f1c7a52-3c1e-4f59-9a0e-2d8b5e4a7c10")

// DefaultLastResort is tried, in order, when neither the scenario nor the allergy matrix
// yields an unblocked primary.
var DefaultLastResort = []clinical.Drug{clinical.Aztreonam, clinical.Doxycycline, clinical.Vancomycin, clinical.Linezolid}

// Options wires the engine. Nil fields get the built-in tables.
type Options struct {
	Scenarios    *scenario.Table
	Matrix       *allergy.Matrix
	Interactions *safety.InteractionTable
	Calculator   *dosing.Calculator
	LastResort   []clinical.Drug
}

// Engine is safe for concurrent use; it only holds read-only tables.
type Engine struct {
	scenarios  *scenario.Table
	matrix     *allergy.Matrix
	validator  *safety.Validator
	calculator *dosing.Calculator
	lastResort []clinical.Drug
}

// NewEngine builds an engine from opts.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		scenarios:  opts.Scenarios,
		matrix:     opts.Matrix,
		calculator: opts.Calculator,
		lastResort: opts.LastResort,
	}
	if e.scenarios == nil {
		e.scenarios = scenario.DefaultTable()
	}
	if e.matrix == nil {
		e.matrix = allergy.NewMatrix()
	}
	if e.calculator == nil {
		e.calculator = dosing.NewCalculator(nil)
	}
	if len(e.lastResort) == 0 {
		e.lastResort = DefaultLastResort
	}
	e.validator = safety.NewValidator(e.matrix, opts.Interactions)
	return e
}

// Scenarios returns the scenario table in use.
func (e *Engine) Scenarios() *scenario.Table {
	return e.scenarios
}

// pipeline is the per-request context shared by the composition steps.
type pipeline struct {
	profile     *patient.Profile
	resistance  resistance.Profile
	allergies   allergy.Assessment
	populations population.Adjustments
	match       scenario.Match
	notes       []string
}

type candidate struct {
	option scenario.Option
	source string
	dose   dosing.RegimenDose
	report safety.Report
}

// Recommend runs the pipeline. It is total and deterministic: identical input and snapshot
// give an identical recommendation.
func (e *Engine) Recommend(in patient.Input, snapshot resistance.Snapshot) Recommendation {
	p := patient.Normalize(in)
	pl := &pipeline{profile: &p}
	pl.resistance = resistance.Analyze(&p, snapshot)
	pl.allergies = e.matrix.Evaluate(p.Allergies)
	pl.populations = population.Adjust(&p)

	m, ok := e.scenarios.Match(scenario.Context{Profile: &p, Resistance: pl.resistance})
	if !ok {
		m = scenario.Match{
			Descriptor: scenario.Descriptor{ID: "no_match", Description: "No scenario matched"},
			Plan: scenario.Plan{
				Primary:  scenario.Option{Regimen: clinical.Of(e.lastResort[len(e.lastResort)-1]), Reason: "no scenario matched; last-resort agent"},
				Duration: "reassess at 48-72 hours",
			},
		}
		pl.notes = append(pl.notes, "no scenario matched the patient; last-resort agent proposed")
	}
	pl.match = m

	rec := e.compose(pl)
	rec.ID = recommendationID(in, snapshot)
	return rec
}

func (e *Engine) evaluate(pl *pipeline, opt scenario.Option, source string) candidate {
	dose := e.calculator.CalculateRegimen(opt.Regimen, pl.profile)
	report := e.validator.Validate(safety.Request{
		Regimen:     opt.Regimen,
		Profile:     pl.profile,
		Allergies:   &pl.allergies,
		Populations: pl.populations,
		Resistance:  pl.resistance,
		Dose:        dose,
	})
	return candidate{option: opt, source: source, dose: dose, report: report}
}

func recommendationID(in patient.Input, snapshot resistance.Snapshot) string {
	b, err := json.Marshal(struct {
		Input  patient.Input `json:"input"`
		Source string        `json:"source"`
		AsOf   string        `json:"asOf"`
	}{in, snapshot.Source, snapshot.AsOf.UTC().Format("2006-01-02T15:04:05Z")})
	if err != nil {
		b = fmt.Appendf(nil, "%+v|%s|%s", in, snapshot.Source, snapshot.AsOf.UTC().Format(time.RFC3339))
	}
	return uuid.NewSHA1(idNamespace, b).String()
}
