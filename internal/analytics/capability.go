package analytics

import (
	"math"

	"batchline/pkg/contracts/domain"
)

// Capability computes Cp and Cpk of values against the lower and upper
// specification limits. Mean and sample standard deviation are always
// filled in; Cp and Cpk stay nil when there are fewer than two values, the
// spread is zero, a limit is not finite or usl <= lsl.
func Capability(values []float64, lsl, usl float64) domain.CapabilityResult {
	m := mean(values)
	sd := sampleStdDev(values, m)
	res := domain.CapabilityResult{
		SampleSize: len(values),
		Mean:       m,
		StdDev:     sd,
		LSL:        lsl,
		USL:        usl,
	}

	if len(values) < 2 || sd <= 0 || !isFinite(lsl) || !isFinite(usl) || usl <= lsl {
		return res
	}

	cp := (usl - lsl) / (6 * sd)
	cpk := math.Min((usl-m)/(3*sd), (m-lsl)/(3*sd))
	if !isFinite(cp) || !isFinite(cpk) {
		return res
	}
	res.Cp = &cp
	res.Cpk = &cpk
	return res
}
