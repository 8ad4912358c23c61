package safety

import (
	"sort"
	"strings"
	"unicode"

	"github.com/giygas/antibiotic-advisor/clinical"
)

// InteractionLevel grades a drug interaction.
type InteractionLevel string

const (
	LevelContraindicated InteractionLevel = "contraindicated"
	LevelMajor           InteractionLevel = "major"
	LevelModerate        InteractionLevel = "moderate"
	LevelMinor           InteractionLevel = "minor"
)

// AlertSeverity maps the level onto an alert severity.
func (l InteractionLevel) AlertSeverity() clinical.AlertSeverity {
	switch l {
	case LevelContraindicated:
		return clinical.AlertCritical
	case LevelMajor:
		return clinical.AlertHigh
	case LevelModerate:
		return clinical.AlertModerate
	}
	return clinical.AlertLow
}

// Interaction is one row of the interaction table. Agents are drug identifiers,
// "class:<drug class>" or a concurrent-medication group name.
type Interaction struct {
	A            string           `json:"a"`
	B            string           `json:"b"`
	Level        InteractionLevel `json:"level"`
	Mechanism    string           `json:"mechanism"`
	Significance string           `json:"significance"`
	Management   string           `json:"management"`
}

type agentPair struct{ a, b string }

func pairKey(a, b string) agentPair {
	if b < a {
		a, b = b, a
	}
	return agentPair{a, b}
}

// InteractionTable is a symmetric lookup of interactions.
type InteractionTable struct {
	entries map[agentPair]Interaction
	groups  map[string][]string
}

// medicationGroups maps a group name to the terms identifying its members.
var medicationGroups = map[string][]string{
	"warfarin":               {"warfarin", "coumadin", "acenocoumarol"},
	"methotrexate":           {"methotrexate"},
	"cyp3a4 statin":          {"simvastatin", "lovastatin", "atorvastatin"},
	"ssri":                   {"sertraline", "fluoxetine", "paroxetine", "citalopram", "escitalopram", "venlafaxine", "duloxetine"},
	"maoi":                   {"phenelzine", "tranylcypromine", "selegiline", "isocarboxazid", "moclobemide"},
	"qt-prolonging":          {"amiodarone", "sotalol", "haloperidol", "ondansetron", "methadone", "quetiapine", "citalopram"},
	"theophylline":           {"theophylline", "aminophylline"},
	"polyvalent cation":      {"antacid", "antacids", "aluminum", "aluminium", "magnesium", "calcium", "iron", "ferrous", "sucralfate", "zinc"},
	"digoxin":                {"digoxin"},
	"alcohol":                {"alcohol", "ethanol"},
	"potassium-sparing":      {"lisinopril", "enalapril", "ramipril", "captopril", "losartan", "valsartan", "spironolactone", "eplerenone"},
	"nephrotoxin":            {"ibuprofen", "naproxen", "diclofenac", "ketorolac", "furosemide", "cisplatin", "contrast"},
	"valproate":              {"valproate", "valproic", "divalproex"},
	"colchicine":             {"colchicine"},
	"hypoglycemic":           {"glipizide", "glyburide", "glimepiride", "insulin"},
	"corticosteroid":         {"prednisone", "prednisolone", "dexamethasone", "methylprednisolone", "hydrocortisone"},
	"tizanidine":             {"tizanidine"},
	"hormonal contraceptive": {"contraceptive", "ethinylestradiol", "levonorgestrel", "norethindrone", "desogestrel"},
	"calcineurin inhibitor":  {"tacrolimus", "cyclosporine", "ciclosporin"},
}

func class(c clinical.DrugClass) string { return "class:" + string(c) }

func drug(d clinical.Drug) string { return string(d) }

// NewInteractionTable returns the built-in interaction table.
func NewInteractionTable() *InteractionTable {
	t := &InteractionTable{entries: make(map[agentPair]Interaction), groups: medicationGroups}
	t.add(
		Interaction{A: "warfarin", B: drug(clinical.TrimethoprimSulfa), Level: LevelMajor,
			Mechanism: "CYP2C9 inhibition", Significance: "marked INR rise and bleeding", Management: "avoid or reduce warfarin dose; check INR within 3-5 days"},
		Interaction{A: "warfarin", B: class(clinical.ClassFluoroquinolone), Level: LevelMajor,
			Mechanism: "reduced warfarin clearance and gut flora vitamin K", Significance: "INR rise", Management: "monitor INR closely"},
		Interaction{A: "warfarin", B: drug(clinical.Metronidazole), Level: LevelMajor,
			Mechanism: "CYP2C9 inhibition", Significance: "marked INR rise and bleeding", Management: "reduce warfarin dose by 25-35%; monitor INR"},
		Interaction{A: "warfarin", B: class(clinical.ClassMacrolide), Level: LevelModerate,
			Mechanism: "CYP3A4 inhibition", Significance: "INR rise", Management: "monitor INR"},
		Interaction{A: "warfarin", B: class(clinical.ClassTetracycline), Level: LevelModerate,
			Mechanism: "reduced vitamin K producing flora", Significance: "INR rise", Management: "monitor INR"},
		Interaction{A: "warfarin", B: drug(clinical.Rifampin), Level: LevelMajor,
			Mechanism: "CYP induction", Significance: "loss of anticoagulation", Management: "increase INR monitoring; expect higher warfarin requirement"},
		Interaction{A: "methotrexate", B: drug(clinical.TrimethoprimSulfa), Level: LevelContraindicated,
			Mechanism: "additive antifolate effect and reduced renal clearance", Significance: "bone marrow suppression", Management: "choose another antibiotic"},
		Interaction{A: "methotrexate", B: class(clinical.ClassPenicillin), Level: LevelModerate,
			Mechanism: "reduced tubular secretion", Significance: "methotrexate toxicity", Management: "monitor methotrexate levels and blood counts"},
		Interaction{A: "cyp3a4 statin", B: drug(clinical.Clarithromycin), Level: LevelContraindicated,
			Mechanism: "strong CYP3A4 inhibition", Significance: "rhabdomyolysis", Management: "hold the statin during therapy or use azithromycin"},
		Interaction{A: "cyp3a4 statin", B: drug(clinical.Erythromycin), Level: LevelContraindicated,
			Mechanism: "CYP3A4 inhibition", Significance: "rhabdomyolysis", Management: "hold the statin during therapy or use azithromycin"},
		Interaction{A: "ssri", B: drug(clinical.Linezolid), Level: LevelMajor,
			Mechanism: "MAO inhibition by linezolid", Significance: "serotonin syndrome", Management: "monitor for serotonin toxicity or choose another agent"},
		Interaction{A: "maoi", B: drug(clinical.Linezolid), Level: LevelContraindicated,
			Mechanism: "additive MAO inhibition", Significance: "hypertensive crisis and serotonin syndrome", Management: "do not combine"},
		Interaction{A: "qt-prolonging", B: class(clinical.ClassFluoroquinolone), Level: LevelMajor,
			Mechanism: "additive QT prolongation", Significance: "torsades de pointes", Management: "obtain baseline ECG; prefer a non-QT-prolonging agent"},
		Interaction{A: "qt-prolonging", B: class(clinical.ClassMacrolide), Level: LevelMajor,
			Mechanism: "additive QT prolongation", Significance: "torsades de pointes", Management: "obtain baseline ECG; prefer a non-QT-prolonging agent"},
		Interaction{A: "theophylline", B: drug(clinical.Ciprofloxacin), Level: LevelMajor,
			Mechanism: "CYP1A2 inhibition", Significance: "theophylline toxicity and seizures", Management: "reduce theophylline dose and monitor levels"},
		Interaction{A: "theophylline", B: drug(clinical.Clarithromycin), Level: LevelMajor,
			Mechanism: "CYP3A4 inhibition", Significance: "theophylline toxicity", Management: "monitor theophylline levels"},
		Interaction{A: "theophylline", B: drug(clinical.Erythromycin), Level: LevelMajor,
			Mechanism: "CYP3A4 inhibition", Significance: "theophylline toxicity", Management: "monitor theophylline levels"},
		Interaction{A: "polyvalent cation", B: class(clinical.ClassFluoroquinolone), Level: LevelModerate,
			Mechanism: "chelation in the gut", Significance: "reduced antibiotic absorption", Management: "give the antibiotic 2 hours before or 6 hours after"},
		Interaction{A: "polyvalent cation", B: class(clinical.ClassTetracycline), Level: LevelModerate,
			Mechanism: "chelation in the gut", Significance: "reduced antibiotic absorption", Management: "separate doses by at least 2-3 hours"},
		Interaction{A: "digoxin", B: drug(clinical.Clarithromycin), Level: LevelMajor,
			Mechanism: "P-glycoprotein inhibition", Significance: "digoxin toxicity", Management: "monitor digoxin levels or use azithromycin"},
		Interaction{A: "alcohol", B: drug(clinical.Metronidazole), Level: LevelMajor,
			Mechanism: "aldehyde dehydrogenase inhibition", Significance: "disulfiram-like reaction", Management: "avoid alcohol during and 72 hours after therapy"},
		Interaction{A: "potassium-sparing", B: drug(clinical.TrimethoprimSulfa), Level: LevelMajor,
			Mechanism: "trimethoprim blocks ENaC", Significance: "hyperkalemia", Management: "monitor potassium within 3 days or choose another agent"},
		Interaction{A: "nephrotoxin", B: drug(clinical.Vancomycin), Level: LevelModerate,
			Mechanism: "additive nephrotoxicity", Significance: "acute kidney injury", Management: "monitor serum creatinine every 48 hours"},
		Interaction{A: "nephrotoxin", B: class(clinical.ClassAminoglycoside), Level: LevelMajor,
			Mechanism: "additive nephrotoxicity and ototoxicity", Significance: "acute kidney injury", Management: "avoid combination; monitor levels and creatinine"},
		Interaction{A: "valproate", B: class(clinical.ClassCarbapenem), Level: LevelContraindicated,
			Mechanism: "carbapenems deplete valproate", Significance: "loss of seizure control", Management: "choose a non-carbapenem agent"},
		Interaction{A: "colchicine", B: drug(clinical.Clarithromycin), Level: LevelContraindicated,
			Mechanism: "CYP3A4 and P-glycoprotein inhibition", Significance: "fatal colchicine toxicity", Management: "do not combine"},
		Interaction{A: "hypoglycemic", B: drug(clinical.TrimethoprimSulfa), Level: LevelModerate,
			Mechanism: "CYP2C9 inhibition", Significance: "hypoglycemia", Management: "monitor blood glucose"},
		Interaction{A: "hypoglycemic", B: class(clinical.ClassFluoroquinolone), Level: LevelModerate,
			Mechanism: "dysglycemia", Significance: "hypo- or hyperglycemia", Management: "monitor blood glucose"},
		Interaction{A: "corticosteroid", B: class(clinical.ClassFluoroquinolone), Level: LevelModerate,
			Mechanism: "additive tendon toxicity", Significance: "tendon rupture", Management: "counsel on tendon pain; prefer another agent in older adults"},
		Interaction{A: "tizanidine", B: drug(clinical.Ciprofloxacin), Level: LevelContraindicated,
			Mechanism: "CYP1A2 inhibition", Significance: "severe hypotension and sedation", Management: "do not combine"},
		Interaction{A: "hormonal contraceptive", B: drug(clinical.Rifampin), Level: LevelMajor,
			Mechanism: "CYP3A4 induction", Significance: "contraceptive failure", Management: "use backup contraception"},
		Interaction{A: "calcineurin inhibitor", B: drug(clinical.Clarithromycin), Level: LevelMajor,
			Mechanism: "CYP3A4 inhibition", Significance: "calcineurin inhibitor toxicity", Management: "monitor levels or use azithromycin"},
		Interaction{A: "calcineurin inhibitor", B: drug(clinical.Erythromycin), Level: LevelMajor,
			Mechanism: "CYP3A4 inhibition", Significance: "calcineurin inhibitor toxicity", Management: "monitor levels or use azithromycin"},
		Interaction{A: "calcineurin inhibitor", B: drug(clinical.Rifampin), Level: LevelMajor,
			Mechanism: "CYP3A4 induction", Significance: "rejection from subtherapeutic levels", Management: "avoid; choose another agent"},
		Interaction{A: "calcineurin inhibitor", B: class(clinical.ClassAminoglycoside), Level: LevelMajor,
			Mechanism: "additive nephrotoxicity", Significance: "acute kidney injury", Management: "avoid combination"},
		Interaction{A: drug(clinical.Vancomycin), B: drug(clinical.PiperacillinTazobactam), Level: LevelModerate,
			Mechanism: "unclear; observed additive nephrotoxicity", Significance: "acute kidney injury", Management: "monitor creatinine; de-escalate early"},
		Interaction{A: drug(clinical.Vancomycin), B: class(clinical.ClassAminoglycoside), Level: LevelMajor,
			Mechanism: "additive nephrotoxicity", Significance: "acute kidney injury", Management: "monitor levels and creatinine daily"},
		Interaction{A: drug(clinical.Colistin), B: class(clinical.ClassAminoglycoside), Level: LevelMajor,
			Mechanism: "additive nephrotoxicity and neuromuscular blockade", Significance: "acute kidney injury", Management: "avoid combination"},
	)
	return t
}

func (t *InteractionTable) add(entries ...Interaction) {
	for _, e := range entries {
		t.entries[pairKey(e.A, e.B)] = e
	}
}

// Lookup returns the interaction between two agents in either order.
func (t *InteractionTable) Lookup(a, b string) (Interaction, bool) {
	e, ok := t.entries[pairKey(a, b)]
	return e, ok
}

// drugAgents are the keys an antibiotic is known by.
func drugAgents(d clinical.Drug) []string {
	return []string{drug(d), class(clinical.ClassOf(d))}
}

// MedicationAgents resolves a free-text medication into table agents. A medication that is
// itself an antibiotic resolves to its drug and class.
func (t *InteractionTable) MedicationAgents(medication string) []string {
	m := strings.ToLower(strings.TrimSpace(medication))
	if m == "" {
		return nil
	}
	if d, ok := clinical.ParseDrug(m); ok {
		return drugAgents(d)
	}

	words := strings.FieldsFunc(m, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	var agents []string
	for group, terms := range t.groups {
		if matchesAny(words, terms) {
			agents = append(agents, group)
		}
	}
	// map order is random
	sort.Strings(agents)
	return agents
}

func matchesAny(words, terms []string) bool {
	for _, w := range words {
		for _, term := range terms {
			if w == term {
				return true
			}
		}
	}
	return false
}

// Between returns the interactions of an antibiotic with another antibiotic.
func (t *InteractionTable) Between(a, b clinical.Drug) []Interaction {
	return t.match(drugAgents(a), drugAgents(b))
}

// WithMedication returns the interactions of an antibiotic with a concurrent medication.
func (t *InteractionTable) WithMedication(d clinical.Drug, medication string) []Interaction {
	return t.match(drugAgents(d), t.MedicationAgents(medication))
}

func (t *InteractionTable) match(left, right []string) []Interaction {
	var out []Interaction
	seen := make(map[agentPair]bool)
	for _, l := range left {
		for _, r := range right {
			key := pairKey(l, r)
			if seen[key] {
				continue
			}
			if e, ok := t.entries[key]; ok {
				seen[key] = true
				out = append(out, e)
			}
		}
	}
	return out
}
