// Package quality computes the water quality index (ICA) from the
// parameters the station measures.
package quality

import "math"

// Category classifies an index value.
type Category string

const (
	Unpolluted       Category = "unpolluted"
	Acceptable       Category = "acceptable"
	SlightlyPolluted Category = "slightly_polluted"
	Polluted         Category = "polluted"
	HeavilyPolluted  Category = "heavily_polluted"
)

// Parameter weights of the full index. The station measures only three of
// its parameters, so Compute normalizes by the sum of these.
const (
	WeightPH        = 0.1
	WeightTurbidity = 0.2
	WeightTDS       = 0.2
)

// Index is a water quality index in [0, 100]; higher is cleaner.
type Index struct {
	Value    int      `json:"value"`
	Category Category `json:"category"`
}

// Compute returns the partial index for pH, turbidity (NTU) and TDS (ppm).
func Compute(ph, turbidity, tds float64) Index {
	sum := WeightPH*PH(ph) + WeightTurbidity*Turbidity(turbidity) + WeightTDS*TDS(tds)
	v := int(math.Round(sum / (WeightPH + WeightTurbidity + WeightTDS)))
	return Index{Value: v, Category: Classify(v)}
}

// PH is the pH sub-index.
func PH(v float64) float64 {
	return clamp(math.Pow(10, 4.22-0.293*v))
}

// Turbidity is the turbidity sub-index. Clear water scores 100.
func Turbidity(ntu float64) float64 {
	if ntu <= 0 {
		return 100
	}
	return clamp(108 * math.Pow(ntu, -0.178))
}

// TDS is the total dissolved solids sub-index.
func TDS(ppm float64) float64 {
	if ppm < 520 {
		return 100
	}
	return clamp(109.1 - 0.0175*ppm)
}

// Classify maps an index value to its category.
func Classify(v int) Category {
	switch {
	case v >= 85:
		return Unpolluted
	case v >= 70:
		return Acceptable
	case v >= 50:
		return SlightlyPolluted
	case v >= 30:
		return Polluted
	default:
		return HeavilyPolluted
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
