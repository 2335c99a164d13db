// Package risk computes time-based risk state for active contracts
// relative to their carrier's minimum-retention window.
package risk

import (
	"math"
	"time"

	"github.com/rotisserie/eris"

	"github.com/mnp-lab/mnp-cli/internal/carrier"
	"github.com/mnp-lab/mnp-cli/internal/model"
)

// Assess classifies a contract's position in its retention window as of
// the given instant. This is a derived read model: it is recomputed from
// the clock on every call so the displayed risk always reflects the
// current date, with no scheduler keeping state fresh.
//
// Boundary inputs are clamped rather than rejected: a future start date
// yields danger with the full window remaining, and a non-positive safe
// duration is already satisfied.
func Assess(start time.Time, safeDays, blRiskDays int, asOf time.Time) model.RiskAssessment {
	if safeDays <= 0 {
		return model.RiskAssessment{
			Level:           model.RiskSafe,
			ProgressPercent: 100,
		}
	}

	elapsed := int(math.Floor(asOf.Sub(start).Hours() / 24))
	if elapsed < 0 {
		return model.RiskAssessment{
			Level:         model.RiskDanger,
			DaysRemaining: safeDays,
		}
	}

	remaining := safeDays - elapsed
	if remaining < 0 {
		remaining = 0
	}

	progress := int(math.Round(float64(elapsed) / float64(safeDays) * 100))
	if progress > 100 {
		progress = 100
	}

	var level model.RiskLevel
	switch {
	case elapsed >= safeDays:
		level = model.RiskSafe
	case elapsed >= safeDays-blRiskDays:
		level = model.RiskWarning
	default:
		level = model.RiskDanger
	}

	return model.RiskAssessment{
		Level:           level,
		DaysElapsed:     elapsed,
		DaysRemaining:   remaining,
		ProgressPercent: progress,
	}
}

// AssessLine joins a contract line to its carrier rule and assesses it.
func AssessLine(reg *carrier.Registry, line model.ContractLine, asOf time.Time) (model.RiskAssessment, error) {
	rule, err := reg.RuleFor(line.Carrier)
	if err != nil {
		return model.RiskAssessment{}, eris.Wrapf(err, "assess line %s", line.ID)
	}
	return Assess(line.ContractDate, rule.SafeDurationDays, rule.BLRiskDays, asOf), nil
}
