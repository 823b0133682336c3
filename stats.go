package quad

import "math"

// Spread returns max - min over the w×w region whose top-left corner is
// (x, y). A single sample has no spread.
func Spread(buf Buffer, x, y, w int) int {
	if w <= 1 {
		return 0
	}

	minV := buf.At(x, y)
	maxV := minV
	for yy := 0; yy < w; yy++ {
		for xx := 0; xx < w; xx++ {
			v := buf.At(x+xx, y+yy)
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	return maxV - minV
}

// Average returns the mean of the w×w region at (x, y), rounded half to
// even.
func Average(buf Buffer, x, y, w int) int {
	if w == 1 {
		return buf.At(x, y)
	}
	if w <= 0 {
		return 0
	}

	var sum int64
	for yy := 0; yy < w; yy++ {
		for xx := 0; xx < w; xx++ {
			sum += int64(buf.At(x+xx, y+yy))
		}
	}
	return int(math.RoundToEven(float64(sum) / float64(w*w)))
}
