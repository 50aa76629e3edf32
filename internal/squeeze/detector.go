// Package squeeze finds the first volume-confirmed breakout after a
// Bollinger-inside-Keltner squeeze episode.
package squeeze

import (
	"fmt"

	"github.com/Alias1177/SqueezeAlert/internal/calculate"
	"github.com/Alias1177/SqueezeAlert/models"
)

// MinHistory is the shortest series Detect evaluates. It never drops below
// what the indicators need to be defined on the last two bars.
func MinHistory(p models.SqueezeParams) int {
	need := calculate.Warmup(p) + 2
	if p.MinBars > need {
		return p.MinBars
	}
	return need
}

// Detect decides whether the last bar of the series is the first breakout
// of the squeeze run that ends on the bar before it. A nil signal with a nil
// error means no signal.
func Detect(series []models.AnnotatedBar, p models.SqueezeParams) (*models.Signal, error) {
	if err := calculate.ValidateParams(p); err != nil {
		return nil, err
	}
	if len(series) < MinHistory(p) {
		return nil, nil
	}

	last := len(series) - 1
	trigger, prev := series[last], series[last-1]
	if err := checkFields(trigger, p); err != nil {
		return nil, fmt.Errorf("trigger bar: %w", err)
	}
	if err := checkFields(prev, p); err != nil {
		return nil, fmt.Errorf("previous bar: %w", err)
	}

	// up is checked first, a bar passing both is reported as up
	var dir models.Direction
	switch {
	case BreakoutUp(trigger, p) && FiltersPass(trigger, models.Up, p):
		dir = models.Up
	case BreakoutDown(trigger, p) && FiltersPass(trigger, models.Down, p):
		dir = models.Down
	default:
		return nil, nil
	}

	start, ok := squeezeRunStart(series, last-1)
	if !ok {
		return nil, nil
	}

	// the run excludes the trigger and the bar before the run
	for i := start; i < last; i++ {
		if BreakoutUp(series[i], p) || BreakoutDown(series[i], p) {
			return nil, nil
		}
	}

	return &models.Signal{
		Direction: dir,
		Bar:       trigger,
		Prev:      prev,
	}, nil
}

// squeezeRunStart walks back from end while bars stay squeezed and returns
// the first index of that run. ok is false when bar end is not squeezed.
func squeezeRunStart(series []models.AnnotatedBar, end int) (start int, ok bool) {
	if end < 0 || !Squeezed(series[end]) {
		return 0, false
	}
	start = end
	for start > 0 && Squeezed(series[start-1]) {
		start--
	}
	return start, true
}

// checkFields verifies the fields every check reads are present. RSI and ADX
// may be absent on valid data (no directional movement); their filters fail
// instead.
func checkFields(b models.AnnotatedBar, p models.SqueezeParams) error {
	required := []struct {
		name string
		v    models.Value
		on   bool
	}{
		{"bb_upper", b.BBUpper, true},
		{"bb_lower", b.BBLower, true},
		{"keltner_upper", b.KeltnerUpper, true},
		{"keltner_lower", b.KeltnerLower, true},
		{"ma_fast", b.MAFast, p.UseMAFilter},
		{"ma_slow", b.MASlow, p.UseMAFilter},
	}
	for _, r := range required {
		if r.on && !r.v.OK {
			return fmt.Errorf("%w: %s is missing at %s", models.ErrInvalidInput, r.name, b.Time.Format("2006-01-02 15:04"))
		}
	}
	return nil
}
