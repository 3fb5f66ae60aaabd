package analytics

import "batchline/pkg/contracts/domain"

// ControlChart builds an individuals chart with limits at mean ± 3σ, using
// the same sample standard deviation as Capability. A point is anomalous
// when it lies strictly outside [LCL, UCL].
func ControlChart(values []float64) domain.ControlChart {
	m := mean(values)
	sd := sampleStdDev(values, m)
	chart := domain.ControlChart{
		Mean:   m,
		StdDev: sd,
		UCL:    m + 3*sd,
		LCL:    m - 3*sd,
		Points: make([]domain.ControlPoint, len(values)),
	}

	for i, v := range values {
		out := v > chart.UCL || v < chart.LCL
		chart.Points[i] = domain.ControlPoint{Index: i, Value: v, Anomalous: out}
		if out {
			chart.AnomalyCount++
		}
	}
	return chart
}
