package squeeze

import (
	"github.com/Alias1177/SqueezeAlert/models"
)

// Squeezed reports whether the Bollinger Bands sit inside (or on) the Keltner channel
func Squeezed(b models.AnnotatedBar) bool {
	if !b.BBUpper.OK || !b.BBLower.OK || !b.KeltnerUpper.OK || !b.KeltnerLower.OK {
		return false
	}
	return b.BBUpper.V <= b.KeltnerUpper.V && b.BBLower.V >= b.KeltnerLower.V
}

// BreakoutUp is a close above the upper band on confirming volume
func BreakoutUp(b models.AnnotatedBar, p models.SqueezeParams) bool {
	return b.BBUpper.OK && b.Close > b.BBUpper.V && strongVolume(b, p)
}

// BreakoutDown is a close below the lower band on confirming volume
func BreakoutDown(b models.AnnotatedBar, p models.SqueezeParams) bool {
	return b.BBLower.OK && b.Close < b.BBLower.V && strongVolume(b, p)
}

func strongVolume(b models.AnnotatedBar, p models.SqueezeParams) bool {
	return b.VolumeSMA.OK && b.Volume > b.VolumeSMA.V*p.VolMinMult
}

// FiltersPass applies every enabled directional filter. A disabled filter passes.
func FiltersPass(b models.AnnotatedBar, dir models.Direction, p models.SqueezeParams) bool {
	return maOK(b, dir, p) && rsiOK(b, dir, p) && adxOK(b, p)
}

func maOK(b models.AnnotatedBar, dir models.Direction, p models.SqueezeParams) bool {
	if !p.UseMAFilter {
		return true
	}
	if !b.MAFast.OK || !b.MASlow.OK {
		return false
	}
	if dir == models.Up {
		return b.Close > b.MAFast.V && b.Close > b.MASlow.V
	}
	return b.Close < b.MAFast.V && b.Close < b.MASlow.V
}

func rsiOK(b models.AnnotatedBar, dir models.Direction, p models.SqueezeParams) bool {
	if !p.UseRSIFilter {
		return true
	}
	if !b.RSI.OK {
		return false
	}
	if dir == models.Up {
		return b.RSI.V >= p.RSILongMin
	}
	return b.RSI.V <= p.RSIShortMax
}

func adxOK(b models.AnnotatedBar, p models.SqueezeParams) bool {
	if !p.UseADXFilter {
		return true
	}
	return b.ADX.OK && b.ADX.V >= p.ADXMin
}
