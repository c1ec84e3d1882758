package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// SMA calculates the simple moving average over the trailing window and
// returns its latest value, or nil when there is not enough data.
func SMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) == 0 {
		return nil
	}

	last := sma[len(sma)-1]
	if math.IsNaN(last) {
		return nil
	}
	return &last
}
