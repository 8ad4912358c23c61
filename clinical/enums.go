package clinical

import "strings"

// Severity is the clinical severity of the infection.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Rank orders severities; unknown values rank below mild.
func (s Severity) Rank() int {
	switch s {
	case SeverityMild:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	}
	return 0
}

// ParseSeverity accepts mild, moderate or severe in any case.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityMild:
		return SeverityMild, true
	case SeverityModerate:
		return SeverityModerate, true
	case SeveritySevere:
		return SeveritySevere, true
	}
	return "", false
}

// RiskLevel is the resistance risk level.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders risk levels.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	}
	return 0
}

// AlertSeverity grades a safety alert.
type AlertSeverity string

const (
	AlertLow      AlertSeverity = "low"
	AlertModerate AlertSeverity = "moderate"
	AlertHigh     AlertSeverity = "high"
	AlertCritical AlertSeverity = "critical"
)

// Rank orders alert severities.
func (a AlertSeverity) Rank() int {
	switch a {
	case AlertLow:
		return 1
	case AlertModerate:
		return 2
	case AlertHigh:
		return 3
	case AlertCritical:
		return 4
	}
	return 0
}

// MaxAlertSeverity returns the more severe of two alert severities.
func MaxAlertSeverity(a, b AlertSeverity) AlertSeverity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// RiskCategory grades a special-population adjustment.
type RiskCategory string

const (
	CategoryLow      RiskCategory = "low"
	CategoryModerate RiskCategory = "moderate"
	CategoryHigh     RiskCategory = "high"
	CategoryCritical RiskCategory = "critical"
)

// Rank orders risk categories.
func (c RiskCategory) Rank() int {
	switch c {
	case CategoryLow:
		return 1
	case CategoryModerate:
		return 2
	case CategoryHigh:
		return 3
	case CategoryCritical:
		return 4
	}
	return 0
}

// MaxCategory returns the more severe of two categories.
func MaxCategory(a, b RiskCategory) RiskCategory {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// InfectionSite is a normalized anatomical site.
type InfectionSite string

const (
	SiteRespiratory    InfectionSite = "respiratory"
	SiteUrinary        InfectionSite = "urinary_tract"
	SiteSkin           InfectionSite = "skin"
	SiteBloodstream    InfectionSite = "bloodstream"
	SiteCNS            InfectionSite = "cns"
	SiteBoneJoint      InfectionSite = "bone_joint"
	SiteIntraAbdominal InfectionSite = "intra_abdominal"
	SiteENT            InfectionSite = "ent"
	SiteUnspecified    InfectionSite = "unspecified"
)

var siteAliases = map[string]InfectionSite{
	"respiratory":          SiteRespiratory,
	"pneumonia":            SiteRespiratory,
	"lung":                 SiteRespiratory,
	"lower respiratory":    SiteRespiratory,
	"chest":                SiteRespiratory,
	"urinary_tract":        SiteUrinary,
	"urinary tract":        SiteUrinary,
	"urinary":              SiteUrinary,
	"uti":                  SiteUrinary,
	"pyelonephritis":       SiteUrinary,
	"cystitis":             SiteUrinary,
	"skin":                 SiteSkin,
	"skin_soft_tissue":     SiteSkin,
	"skin and soft tissue": SiteSkin,
	"soft tissue":          SiteSkin,
	"cellulitis":           SiteSkin,
	"abscess":              SiteSkin,
	"wound":                SiteSkin,
	"bloodstream":          SiteBloodstream,
	"blood":                SiteBloodstream,
	"bacteremia":           SiteBloodstream,
	"sepsis":               SiteBloodstream,
	"cns":                  SiteCNS,
	"meningitis":           SiteCNS,
	"brain":                SiteCNS,
	"bone_joint":           SiteBoneJoint,
	"bone":                 SiteBoneJoint,
	"joint":                SiteBoneJoint,
	"osteomyelitis":        SiteBoneJoint,
	"septic arthritis":     SiteBoneJoint,
	"intra_abdominal":      SiteIntraAbdominal,
	"intra-abdominal":      SiteIntraAbdominal,
	"abdominal":            SiteIntraAbdominal,
	"abdomen":              SiteIntraAbdominal,
	"peritonitis":          SiteIntraAbdominal,
	"ent":                  SiteENT,
	"ear":                  SiteENT,
	"otitis":               SiteENT,
	"sinus":                SiteENT,
	"sinusitis":            SiteENT,
	"throat":               SiteENT,
	"pharyngitis":          SiteENT,
	"unspecified":          SiteUnspecified,
	"other":                SiteUnspecified,
}

// ParseSite resolves a free-text site name. Unrecognized names return false.
func ParseSite(s string) (InfectionSite, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if site, ok := siteAliases[key]; ok {
		return site, true
	}
	if site, ok := siteAliases[strings.ReplaceAll(key, "_", " ")]; ok {
		return site, true
	}
	return "", false
}

// HighRisk reports whether the site adds the high-risk severity weight.
func (s InfectionSite) HighRisk() bool {
	return s == SiteBloodstream || s == SiteCNS || s == SiteBoneJoint
}

// Label returns a readable form of the site.
func (s InfectionSite) Label() string {
	switch s {
	case SiteRespiratory:
		return "respiratory tract"
	case SiteUrinary:
		return "urinary tract"
	case SiteSkin:
		return "skin and soft tissue"
	case SiteBloodstream:
		return "bloodstream"
	case SiteCNS:
		return "central nervous system"
	case SiteBoneJoint:
		return "bone and joint"
	case SiteIntraAbdominal:
		return "intra-abdominal"
	case SiteENT:
		return "ear, nose and throat"
	}
	return "unspecified"
}

// AllergyClass is an allergy tracked by the allergy matrix.
type AllergyClass string

const (
	AllergyPenicillin      AllergyClass = "penicillin"
	AllergyCephalosporin   AllergyClass = "cephalosporin"
	AllergySulfa           AllergyClass = "sulfa"
	AllergyMacrolide       AllergyClass = "macrolide"
	AllergyFluoroquinolone AllergyClass = "fluoroquinolone"
	AllergyVancomycin      AllergyClass = "vancomycin"
)

// AllergyClasses lists every tracked allergy in evaluation order.
var AllergyClasses = []AllergyClass{
	AllergyPenicillin,
	AllergyCephalosporin,
	AllergySulfa,
	AllergyMacrolide,
	AllergyFluoroquinolone,
	AllergyVancomycin,
}
