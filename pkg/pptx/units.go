package pptx

import "math"

// EMU is the English Metric Unit used for all DrawingML coordinates.
type EMU int64

const emuPerInch = 914400

// Inches converts a length in inches to EMU.
func Inches(in float64) EMU {
	return EMU(math.Round(in * emuPerInch))
}

// Inches returns the length in inches.
func (e EMU) Inches() float64 {
	return float64(e) / emuPerInch
}
