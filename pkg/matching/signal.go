package matching

// Signal is one weighted component of a fuzzy confidence score. A
// signal with Present=false contributes neither value nor weight, so
// the remaining signals are renormalized over the weight that actually
// applied.
type Signal struct {
	Weight  float64
	Value   float64
	Present bool
}

// Combine folds signals into a confidence in [0, 1]. Absent signals are
// excluded from both numerator and denominator; if nothing is present
// the confidence is 0.
func Combine(signals ...Signal) float64 {
	var weighted, weights float64
	for _, sig := range signals {
		if !sig.Present {
			continue
		}
		weighted += sig.Weight * sig.Value
		weights += sig.Weight
	}
	if weights == 0 {
		return 0.0
	}
	return weighted / weights
}
