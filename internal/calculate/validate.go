package calculate

import (
	"fmt"
	"math"

	"github.com/Alias1177/SqueezeAlert/models"
)

// Validate checks the series and parameters before any computation.
// Every failure wraps models.ErrInvalidInput.
func Validate(bars []models.Bar, p models.SqueezeParams) error {
	if err := ValidateParams(p); err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("%w: empty series", models.ErrInvalidInput)
	}

	for i, b := range bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				return fmt.Errorf("%w: bar %d has non-positive or non-finite price", models.ErrInvalidInput, i)
			}
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return fmt.Errorf("%w: bar %d has invalid volume %v", models.ErrInvalidInput, i, b.Volume)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d time %s is not after %s",
				models.ErrInvalidInput, i, b.Time.Format("2006-01-02 15:04"), bars[i-1].Time.Format("2006-01-02 15:04"))
		}
	}
	return nil
}

// ValidateParams rejects non-positive periods, windows and multipliers
func ValidateParams(p models.SqueezeParams) error {
	periods := []struct {
		name string
		v    int
	}{
		{"BB period", p.BBPeriod},
		{"ATR period", p.ATRPeriod},
		{"volume SMA window", p.VolSMAWindow},
		{"MA fast period", p.MAFast},
		{"MA slow period", p.MASlow},
		{"RSI period", p.RSIPeriod},
		{"ADX period", p.ADXPeriod},
	}
	for _, pr := range periods {
		if pr.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", models.ErrInvalidInput, pr.name, pr.v)
		}
	}

	mults := []struct {
		name string
		v    float64
	}{
		{"BB std multiplier", p.BBStdDev},
		{"Keltner ATR multiplier", p.KeltnerATRMult},
		{"volume multiplier", p.VolMinMult},
	}
	for _, m := range mults {
		if math.IsNaN(m.v) || math.IsInf(m.v, 0) || m.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", models.ErrInvalidInput, m.name, m.v)
		}
	}

	if p.MinBars < 0 {
		return fmt.Errorf("%w: min bars cannot be negative", models.ErrInvalidInput)
	}
	return nil
}
