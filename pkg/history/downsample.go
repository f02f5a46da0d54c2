package history

import "github.com/itohio/aquanode/pkg/sample"

// Downsample reduces readings to at most maxPoints by decimation, always
// keeping the newest reading. dst is reused when it has enough capacity.
func Downsample(dst []sample.Reading, readings []sample.Reading, maxPoints int) []sample.Reading {
	if maxPoints <= 0 || len(readings) <= maxPoints {
		if cap(dst) >= len(readings) {
			dst = dst[:len(readings)]
		} else {
			dst = make([]sample.Reading, len(readings))
		}
		copy(dst, readings)
		return dst
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]sample.Reading, 0, maxPoints)
	}

	if maxPoints == 1 {
		return append(dst, readings[len(readings)-1])
	}

	// spread maxPoints indices evenly over [0, len-1]
	step := float64(len(readings)-1) / float64(maxPoints-1)
	for i := 0; i < maxPoints; i++ {
		dst = append(dst, readings[int(float64(i)*step+0.5)])
	}

	return dst
}
