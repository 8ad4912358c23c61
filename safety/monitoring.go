package safety

import "github.com/giygas/antibiotic-advisor/clinical"

// drugMonitoring lists monitoring requirements per drug. Class entries apply to every member.
var drugMonitoring = map[clinical.Drug][]string{
	clinical.Vancomycin:        {"trough or AUC-guided vancomycin levels before the fourth dose", "serum creatinine every 48-72 hours"},
	clinical.Linezolid:         {"weekly complete blood count for courses over 14 days", "signs of serotonin toxicity"},
	clinical.Daptomycin:        {"weekly creatine kinase"},
	clinical.Colistin:          {"daily serum creatinine", "neurotoxicity"},
	clinical.TrimethoprimSulfa: {"potassium and serum creatinine after 3 days", "complete blood count for courses over 14 days"},
	clinical.Metronidazole:     {"peripheral neuropathy for courses over 4 weeks"},
	clinical.Clindamycin:       {"diarrhea suggestive of Clostridioides difficile"},
	clinical.Nitrofurantoin:    {"pulmonary and hepatic symptoms with prolonged use"},
	clinical.Cefepime:          {"mental status when clearance is reduced"},
	clinical.Rifampin:          {"liver function tests", "review of interacting medications"},
	clinical.Tigecycline:       {"liver function tests", "amylase and lipase"},
	clinical.Ceftriaxone:       {"biliary symptoms with high doses"},
}

var classMonitoring = map[clinical.DrugClass][]string{
	clinical.ClassAminoglycoside:  {"peak and trough levels", "daily serum creatinine", "audiology for courses over 7 days"},
	clinical.ClassFluoroquinolone: {"QTc when combined with other QT-prolonging drugs", "tendon pain", "blood glucose in diabetes"},
	clinical.ClassCarbapenem:      {"seizure activity with renal impairment"},
}

// MonitoringFor returns the monitoring requirements of a drug.
func MonitoringFor(d clinical.Drug) []string {
	out := append([]string(nil), classMonitoring[clinical.ClassOf(d)]...)
	return append(out, drugMonitoring[d]...)
}
