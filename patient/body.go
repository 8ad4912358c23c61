package patient

import (
	"math"

	"github.com/giygas/antibiotic-advisor/clinical"
)

const (
	cmPerInch          = 2.54
	ibwBaseMale        = 50.0
	ibwBaseFemale      = 45.5
	ibwKgPerInchOver60 = 2.3
)

// CreatinineClearance estimates CrCl (mL/min) with Cockcroft-Gault:
// ((140 - age) * weight) / (72 * creatinine), times 0.85 for women.
// A missing or non-positive creatinine yields the default of 60 mL/min.
func CreatinineClearance(age, weightKg, creatinine float64, gender Gender) float64 {
	if creatinine <= 0 || math.IsNaN(creatinine) {
		return clinical.DefaultCreatinineClearance
	}

	crcl := ((140 - age) * weightKg) / (72 * creatinine)
	if gender == GenderFemale {
		crcl *= 0.85
	}
	if crcl < 0 {
		return 0
	}
	return crcl
}

// IdealBodyWeight uses the Devine formula. Unknown gender uses the male base.
func IdealBodyWeight(heightCm float64, gender Gender) float64 {
	base := ibwBaseMale
	if gender == GenderFemale {
		base = ibwBaseFemale
	}
	return base + ibwKgPerInchOver60*(heightCm/cmPerInch-60)
}

// AdjustedBodyWeight is ideal + 0.4 * (actual - ideal).
func AdjustedBodyWeight(actualKg, idealKg float64) float64 {
	return idealKg + clinical.AdjustedWeightFactor*(actualKg-idealKg)
}

// BMI returns the body mass index, or 0 when height is unusable.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return weightKg / (m * m)
}

// computeBodyMetrics switches to the adjusted weight basis above 120% of ideal weight.
// Children keep their actual weight.
func computeBodyMetrics(age, weightKg, heightCm float64, gender Gender) BodyMetrics {
	bmi := BMI(weightKg, heightCm)
	ibw := IdealBodyWeight(heightCm, gender)
	if age < clinical.PediatricAgeBelow || ibw <= 0 {
		return BodyMetrics{
			IdealBodyWeight:    weightKg,
			AdjustedBodyWeight: weightKg,
			BMI:                round1(bmi),
			WeightBasis:        WeightActual,
			Obese:              age >= clinical.PediatricAgeBelow && bmi >= clinical.ObesityBMI,
		}
	}

	metrics := BodyMetrics{
		IdealBodyWeight:    round1(ibw),
		AdjustedBodyWeight: round1(AdjustedBodyWeight(weightKg, ibw)),
		BMI:                round1(bmi),
		WeightBasis:        WeightActual,
	}
	if weightKg > clinical.ObesityIdealWeightRatio*ibw {
		metrics.WeightBasis = WeightAdjusted
		metrics.Obese = true
	}
	if bmi >= clinical.ObesityBMI {
		metrics.Obese = true
	}
	return metrics
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
