package dsp

import "math"

// Monstercat does monstercat "smoothing"
//
// https://github.com/karlstav/cava/blob/master/cava.c#L157
//
// Every bar z, in ascending order, raises each other bar m to at least
// bins[z] / factor^|z-m|. Bars are updated in place, so later bars see the
// raised values of earlier ones. Factors of 1 or less leave bins unchanged.
func Monstercat(bins []int, factor float64) {
	if factor <= 1 {
		return
	}

	count := len(bins)

	for z := 0; z < count; z++ {
		src := float64(bins[z])

		for m := z - 1; m >= 0; m-- {
			bins[m] = spread(src, factor, z-m, bins[m])
		}

		for m := z + 1; m < count; m++ {
			bins[m] = spread(src, factor, m-z, bins[m])
		}
	}
}

func spread(src, factor float64, dist, cur int) int {
	return int(math.Max(src/math.Pow(factor, float64(dist)), float64(cur)))
}
