package safety

import (
	"fmt"
	"strings"

	"github.com/giygas/antibiotic-advisor/allergy"
	"github.com/giygas/antibiotic-advisor/clinical"
	"github.com/giygas/antibiotic-advisor/dosing"
	"github.com/giygas/antibiotic-advisor/patient"
	"github.com/giygas/antibiotic-advisor/population"
	"github.com/giygas/antibiotic-advisor/resistance"
)

// Request is one candidate regimen plus the patient context it is checked against.
type Request struct {
	Regimen     clinical.Regimen
	Profile     *patient.Profile
	Allergies   *allergy.Assessment
	Populations population.Adjustments
	Resistance  resistance.Profile
	Dose        dosing.RegimenDose
}

// Validator runs the safety checks. It holds only read-only reference tables.
type Validator struct {
	matrix       *allergy.Matrix
	interactions *InteractionTable
}

// NewValidator returns a validator over the given tables; nil tables get the defaults.
func NewValidator(matrix *allergy.Matrix, interactions *InteractionTable) *Validator {
	if matrix == nil {
		matrix = allergy.NewMatrix()
	}
	if interactions == nil {
		interactions = NewInteractionTable()
	}
	return &Validator{matrix: matrix, interactions: interactions}
}

// Interactions returns the interaction table in use.
func (v *Validator) Interactions() *InteractionTable {
	return v.interactions
}

// Validate runs every check without short-circuiting and grades the result.
func (v *Validator) Validate(req Request) Report {
	assessment := req.Allergies
	if assessment == nil {
		a := v.matrix.Evaluate(req.Profile.Allergies)
		assessment = &a
	}

	var alerts []Alert
	alerts = append(alerts, checkAllergies(req.Regimen, assessment)...)
	alerts = append(alerts, checkPopulations(req.Regimen, req.Populations)...)
	alerts = append(alerts, checkResistance(req.Regimen, req.Resistance)...)
	alerts = append(alerts, v.checkInteractions(req.Regimen, req.Profile.Medications)...)
	alerts = append(alerts, checkDosing(req.Dose)...)

	monitoring := append([]string(nil), req.Populations.Monitoring...)
	for _, d := range req.Regimen {
		items := MonitoringFor(d)
		if len(items) == 0 {
			continue
		}
		name := clinical.DisplayName(d)
		for _, m := range items {
			monitoring = append(monitoring, name+": "+m)
		}
		alerts = append(alerts, Alert{
			Severity: clinical.AlertLow,
			Category: CategoryMonitoring,
			Drug:     d,
			Message:  fmt.Sprintf("%s requires monitoring: %s", name, strings.Join(items, "; ")),
			Action:   "order the listed monitoring",
		})
	}

	rank(alerts)
	score, level := Score(alerts)
	return Report{
		Regimen:    req.Regimen.Name(),
		Alerts:     alerts,
		RiskScore:  score,
		RiskLevel:  level,
		Monitoring: monitoring,
	}
}

func checkAllergies(r clinical.Regimen, a *allergy.Assessment) []Alert {
	var alerts []Alert
	for _, d := range r {
		name := clinical.DisplayName(d)
		if class, ok := a.ContraindicatedBy(d); ok {
			alerts = append(alerts, Alert{
				Severity:         clinical.AlertCritical,
				Category:         CategoryAllergy,
				Drug:             d,
				Message:          fmt.Sprintf("%s is contraindicated by the documented %s allergy", name, class),
				Action:           "select a non-cross-reactive alternative",
				RequiresOverride: true,
			})
			continue
		}
		if class, ok := a.CrossReactiveWith(d); ok {
			alerts = append(alerts, Alert{
				Severity: clinical.AlertModerate,
				Category: CategoryAllergy,
				Drug:     d,
				Message:  fmt.Sprintf("%s may cross-react with the documented %s allergy", name, class),
				Action:   "confirm the prior reaction was not immediate-type; observe the first dose",
			})
		}
	}
	return alerts
}

func checkPopulations(r clinical.Regimen, adj population.Adjustments) []Alert {
	var alerts []Alert
	seen := make(map[string]bool)
	for _, rec := range adj.Records {
		for _, c := range rec.Contraindicated {
			key := rec.Population + "|" + string(c.Drug)
			if !r.Contains(c.Drug) || seen[key] {
				continue
			}
			seen[key] = true
			alerts = append(alerts, Alert{
				Severity:         rec.Severity,
				Category:         CategoryContraindication,
				Drug:             c.Drug,
				Message:          fmt.Sprintf("%s is contraindicated (%s): %s", clinical.DisplayName(c.Drug), rec.Population, c.Reason),
				Action:           "select an alternative agent",
				RequiresOverride: true,
			})
		}
		for _, c := range rec.Cautions {
			key := rec.Population + "|" + string(c.Drug)
			if !r.Contains(c.Drug) || seen[key] {
				continue
			}
			seen[key] = true
			alerts = append(alerts, Alert{
				Severity: clinical.AlertModerate,
				Category: CategoryContraindication,
				Drug:     c.Drug,
				Message:  fmt.Sprintf("use %s with caution (%s): %s", clinical.DisplayName(c.Drug), rec.Population, c.Reason),
				Action:   "weigh benefit against risk and monitor",
			})
		}
	}
	return alerts
}

func checkResistance(r clinical.Regimen, p resistance.Profile) []Alert {
	var alerts []Alert
	for _, d := range r {
		entry, ok := p.AvoidEntryFor(d)
		if !ok {
			continue
		}
		if entry.Confirmed {
			alerts = append(alerts, Alert{
				Severity:         clinical.AlertHigh,
				Category:         CategoryContraindication,
				Drug:             d,
				Message:          fmt.Sprintf("%s is unlikely to be active: %s", clinical.DisplayName(d), entry.Reason),
				Action:           "select an agent active against the confirmed organism",
				RequiresOverride: true,
			})
			continue
		}
		alerts = append(alerts, Alert{
			Severity: clinical.AlertModerate,
			Category: CategoryContraindication,
			Drug:     d,
			Message:  fmt.Sprintf("%s may be inactive given regional resistance: %s", clinical.DisplayName(d), entry.Reason),
			Action:   "obtain cultures and review susceptibilities",
		})
	}
	return alerts
}

func (v *Validator) checkInteractions(r clinical.Regimen, medications []string) []Alert {
	var alerts []Alert
	for _, d := range r {
		for _, med := range medications {
			for _, in := range v.interactions.WithMedication(d, med) {
				alerts = append(alerts, interactionAlert(d, med, in))
			}
		}
	}
	for i := 0; i < len(r); i++ {
		for j := i + 1; j < len(r); j++ {
			for _, in := range v.interactions.Between(r[i], r[j]) {
				alerts = append(alerts, interactionAlert(r[i], clinical.DisplayName(r[j]), in))
			}
		}
	}
	return alerts
}

func interactionAlert(d clinical.Drug, other string, in Interaction) Alert {
	return Alert{
		Severity:         in.Level.AlertSeverity(),
		Category:         CategoryInteraction,
		Drug:             d,
		Message:          fmt.Sprintf("%s interaction between %s and %s: %s (%s)", in.Level, clinical.DisplayName(d), other, in.Significance, in.Mechanism),
		Action:           in.Management,
		RequiresOverride: in.Level == LevelContraindicated,
	}
}

func checkDosing(dose dosing.RegimenDose) []Alert {
	var alerts []Alert
	for _, c := range dose.Components {
		name := clinical.DisplayName(c.Drug)
		if c.RenalAdjustment != "" {
			alerts = append(alerts, Alert{
				Severity: clinical.AlertModerate,
				Category: CategoryDosing,
				Drug:     c.Drug,
				Message:  fmt.Sprintf("%s renal dose adjustment: %s", name, c.RenalAdjustment),
				Action:   "confirm renal function before each dose change",
			})
		}
		if c.HepaticAdjustment != "" {
			alerts = append(alerts, Alert{
				Severity: clinical.AlertModerate,
				Category: CategoryDosing,
				Drug:     c.Drug,
				Message:  fmt.Sprintf("%s %s", name, c.HepaticAdjustment),
				Action:   "monitor liver function",
			})
		}
		for _, adj := range []string{c.AgeAdjustment, c.WeightAdjustment} {
			if adj == "" {
				continue
			}
			alerts = append(alerts, Alert{
				Severity: clinical.AlertLow,
				Category: CategoryDosing,
				Drug:     c.Drug,
				Message:  fmt.Sprintf("%s dose adjusted: %s", name, adj),
				Action:   "verify the calculated dose",
			})
		}
		if !c.TableEntryFound {
			alerts = append(alerts, Alert{
				Severity: clinical.AlertLow,
				Category: CategoryDosing,
				Drug:     c.Drug,
				Message:  fmt.Sprintf("%s has no dosing table entry; base dose shown unmodified", name),
				Action:   "confirm the dose against product labeling",
			})
		}
	}
	return alerts
}
