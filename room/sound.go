package room

import (
	"math"
)

// Speed of sound in air at 20°C, in m/s
const SPEED_OF_SOUND = 343.0

const MS float64 = 1.0 / 1000.0

// toDB converts an energy ratio to dB
func toDB(gain float64) float64 {
	return 10 * math.Log10(gain)
}

// fromDB converts dB to an energy ratio
func fromDB(gainDB float64) float64 {
	return math.Pow(10, gainDB/10)
}

// ampToDB converts an amplitude ratio to dB
func ampToDB(amp float64) float64 {
	return 20 * math.Log10(math.Abs(amp))
}
