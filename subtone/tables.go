// Package subtone classifies stored sub-audible tone values. CTCSS tones are
// stored as Hz*100 (88.5 Hz -> 8850); DCS codes are stored as their raw code
// number (023 -> 23). The two tables never overlap: every scaled CTCSS value is
// at least 6700 and every DCS code is below 800.
package subtone

import "math"

// CTCSSTones lists the supported CTCSS frequencies in Hz.
var CTCSSTones = []float64{
	67.0, 69.3, 71.9, 74.4, 77.0, 79.7, 82.5, 85.4, 88.5, 91.5,
	94.8, 97.4, 100.0, 103.5, 107.2, 110.9, 114.8, 118.8, 123.0, 127.3,
	131.8, 136.5, 141.3, 146.2, 150.0, 151.4, 156.7, 159.8, 162.2, 165.5,
	167.9, 171.3, 173.8, 177.3, 179.9, 183.5, 186.2, 189.9, 192.8, 196.6,
	199.5, 203.5, 206.5, 210.7, 213.8, 218.1, 225.7, 229.1, 233.6, 237.1,
	241.8, 245.5, 250.3, 254.1,
}

// DCSCodes lists the supported DCS codes as stored (decimal digits of the octal code).
var DCSCodes = []int{
	23, 25, 26, 31, 32, 36, 43, 47, 51, 53, 54, 65, 71, 72, 73, 74,
	114, 115, 116, 122, 125, 131, 132, 134, 143, 145, 152, 155, 156, 162,
	165, 172, 174, 205, 212, 223, 225, 226, 243, 244, 245, 246, 251, 252,
	255, 261, 263, 265, 266, 271, 274, 306, 311, 315, 325, 331, 332, 343,
	346, 351, 356, 364, 365, 371, 411, 412, 413, 423, 431, 432, 445, 446,
	452, 454, 455, 462, 464, 465, 466, 503, 506, 516, 523, 526, 532, 546,
	565, 606, 612, 624, 627, 631, 632, 654, 662, 664, 703, 712, 723, 731,
	732, 734, 743, 754,
}

// CTCSSStored is CTCSSTones scaled by 100 and rounded, in the same order.
var CTCSSStored = scaleTones(CTCSSTones)

// CTCSSThreshold is the smallest stored CTCSS value (67.0 Hz * 100). Any
// non-zero stored value below it can only be a DCS code.
const CTCSSThreshold = 6700

func scaleTones(tones []float64) []int {
	out := make([]int, len(tones))
	for i, hz := range tones {
		out[i] = int(math.Round(hz * 100))
	}
	return out
}

func indexOf(list []int, v int) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
