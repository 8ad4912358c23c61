package clinical

// Severity scoring. Scores below SeverityModerateThreshold are mild, scores at or above
// SeveritySevereThreshold are severe.
const (
	SeverityModerateThreshold = 6
	SeveritySevereThreshold   = 12

	WeightAgeVeryOld        = 3 // >= 80 years
	WeightAgeOld            = 2 // >= 65 years
	WeightAgeInfant         = 3 // < 2 years
	WeightAgeYoungChild     = 2 // < 5 years
	WeightProlongedSymptoms = 2
	WeightHospitalAcquired  = 3
	WeightComorbidity       = 2
	WeightImmunosuppression = 3
	WeightResistanceMarker  = 2
	WeightMultiSite         = 2
	WeightHighRiskSite      = 4

	ProlongedSymptomDays = 7
)

// KeywordWeight scores a symptom group once, whichever of its terms matches first.
type KeywordWeight struct {
	Label  string
	Weight int
	Terms  []string
}

// SymptomKeywords are matched against normalized free-text symptoms.
var SymptomKeywords = []KeywordWeight{
	{Label: "shock", Weight: 4, Terms: []string{"septic shock", "shock"}},
	{Label: "hypotension", Weight: 3, Terms: []string{"hypotension", "hypotensive", "low blood pressure"}},
	{Label: "confusion", Weight: 3, Terms: []string{"confusion", "confused", "altered mental", "delirium"}},
	{Label: "respiratory distress", Weight: 3, Terms: []string{"respiratory distress", "hypoxia", "hypoxic"}},
	{Label: "tachycardia", Weight: 1, Terms: []string{"tachycardia", "tachycardic"}},
	{Label: "rigors", Weight: 1, Terms: []string{"rigors", "chills"}},
}

// Resistance risk scoring.
const (
	ResistanceWeightCRE               = 5
	ResistanceWeightESBL              = 4
	ResistanceWeightVRE               = 4
	ResistanceWeightMRSA              = 3
	ResistanceWeightPseudomonas       = 3
	ResistanceWeightHospitalAcquired  = 2
	ResistanceWeightRecentAntibiotics = 2
	ResistanceWeightImmunosuppression = 2
	ResistanceWeightProlonged         = 1

	ResistanceCriticalThreshold = 10
	ResistanceHighThreshold     = 7
	ResistanceMediumThreshold   = 4
)

// Regional prevalence thresholds in percent; prevalence strictly above the threshold counts.
const (
	RegionalMRSAThreshold                   = 15.0
	RegionalESBLThreshold                   = 20.0
	RegionalVREThreshold                    = 10.0
	RegionalCREThreshold                    = 5.0
	RegionalPseudomonasThreshold            = 15.0
	RegionalMacrolideThreshold              = 25.0
	RegionalUrinaryTMPSMXThreshold          = 20.0
	RegionalUrinaryFluoroquinoloneThreshold = 20.0
)

// Safety alert scoring.
const (
	AlertWeightCritical = 20
	AlertWeightHigh     = 12
	AlertWeightModerate = 6
	AlertWeightLow      = 2

	AlertRiskCriticalThreshold = 40
	AlertRiskHighThreshold     = 25
	AlertRiskModerateThreshold = 10
)

// AlertWeight returns the risk-score contribution of one alert.
func AlertWeight(s AlertSeverity) int {
	switch s {
	case AlertCritical:
		return AlertWeightCritical
	case AlertHigh:
		return AlertWeightHigh
	case AlertModerate:
		return AlertWeightModerate
	case AlertLow:
		return AlertWeightLow
	}
	return 0
}

// Confidence scoring, on a 0-100 scale.
const (
	ConfidenceBase                = 50
	ConfidenceCompletenessSpan    = 50
	ConfidencePenaltyCritical     = 25
	ConfidencePenaltyHigh         = 10
	ConfidencePenaltyModerate     = 4
	ConfidencePenaltyLow          = 1
	ConfidenceAlertPenaltyCap     = 40
	ConfidenceComplexityCap       = 10
	ConfidenceComplexityPenalty   = 2
	ConfidenceSubstitutionPenalty = 10
)

// Renal function.
const (
	DefaultCreatinineClearance = 60.0
	RenalDoseAdjustmentBelow   = 50.0
	RenalModerateBelow         = 60.0
	RenalSevereBelow           = 30.0
	RenalFailureBelow          = 15.0
)

// Population boundaries in years.
const (
	PediatricAgeBelow     = 18.0
	YoungChildAgeBelow    = 8.0
	NeonateAgeBelow       = 2.0 / 12.0
	GeriatricAgeFrom      = 65.0
	DoseReductionAgeAbove = 65.0
)

// Dose calculation.
const (
	ReferenceAdultWeightKg  = 70.0
	GeriatricDoseFactor     = 0.8
	ObesityDoseFactor       = 1.2
	HepaticDoseFactor       = 0.7
	AdjustedWeightFactor    = 0.4
	ObesityIdealWeightRatio = 1.2
	ObesityBMI              = 30.0
	DoseRoundingStep        = 10.0
)
