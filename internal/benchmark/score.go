package benchmark

import (
	"fmt"
	"math"
)

// Audit status labels
const (
	StatusCritical = "CRITICAL: Statistical Anomaly Detected"
	StatusWarning  = "Warning: Low Visibility"
	StatusNormal   = "Normal"
)

// Tier cut-points on the percentile rank. Comparisons are strict.
const (
	CriticalThreshold = 5.0
	WarningThreshold  = 15.0
)

// AuditResult is the outcome of scoring one earnings figure
type AuditResult struct {
	Region         string  `json:"region"`
	ModelRegion    string  `json:"model_region"`
	ModelMean      float64 `json:"model_mean"`
	YourEarnings   float64 `json:"your_earnings"`
	ZScore         float64 `json:"z_score"`
	PercentileRank float64 `json:"percentile_rank"`
	IsShadowBanned bool    `json:"is_shadow_banned"`
	AuditStatus    string  `json:"audit_status"`
	Explanation    string  `json:"explanation"`
}

// Score rates earnings against the bundled city models
func Score(earnings float64, region string) AuditResult {
	return builtinRegistry.Score(earnings, region)
}

// Score rates earnings against the region's model.
// An empty region means the default; unknown regions fall back to it silently.
// The explanation names the region whose model was used.
func (r *Registry) Score(earnings float64, region string) AuditResult {
	if region == "" {
		region = r.defaultRegion
	}
	modelRegion, model, _ := r.Resolve(region)

	z := (earnings - model.Mean) / model.StdDev
	percentile := Percentile(z)
	status, banned := Classify(percentile)

	return AuditResult{
		Region:         region,
		ModelRegion:    modelRegion,
		ModelMean:      model.Mean,
		YourEarnings:   earnings,
		ZScore:         z,
		PercentileRank: percentile,
		IsShadowBanned: banned,
		AuditStatus:    status,
		Explanation:    explain(status, earnings, percentile, modelRegion),
	}
}

// Percentile converts a standard score to a 0-100 rank rounded to two decimals
// using the normal CDF.
func Percentile(z float64) float64 {
	cdf := 0.5 * (1 + math.Erf(z/math.Sqrt2))
	return math.Round(cdf*100*100) / 100
}

// Classify maps a percentile rank to its audit status
func Classify(percentile float64) (status string, shadowBanned bool) {
	switch {
	case percentile < CriticalThreshold:
		return StatusCritical, true
	case percentile < WarningThreshold:
		return StatusWarning, false
	default:
		return StatusNormal, false
	}
}

func explain(status string, earnings, percentile float64, region string) string {
	switch status {
	case StatusCritical:
		return fmt.Sprintf(
			"Your earnings (₹%v) are in the bottom %v%% of %s. "+
				"This is 2.5 Sigma deviations below the mean, indicating algorithmic throttling.",
			earnings, percentile, region)
	case StatusWarning:
		return fmt.Sprintf(
			"You are earning less than 85%% of drivers in %s (percentile %v). Monitor closely.",
			region, percentile)
	default:
		return fmt.Sprintf(
			"Your account visibility is healthy in %s (Better than %v%% of drivers).",
			region, percentile)
	}
}
