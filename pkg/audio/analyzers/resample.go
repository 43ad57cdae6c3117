package analyzers

import (
	"fmt"
	"math"
)

// sincZeroCrossings is the number of sinc lobes kept on each side of the
// interpolation point, measured at the lower of the two rates.
const sincZeroCrossings = 8

// Resample converts samples between rates with a Hann-windowed sinc
// interpolator. When downsampling the kernel also acts as the anti-alias
// filter.
func Resample(samples []float64, fromRate, toRate int) ([]float64, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid resample rates %d -> %d", fromRate, toRate)
	}
	if fromRate == toRate || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out, nil
	}

	ratio := float64(toRate) / float64(fromRate)
	// cutoff in cycles per input sample
	cutoff := 0.5 * math.Min(1, ratio)
	halfWidth := int(math.Ceil(sincZeroCrossings / (2 * cutoff)))

	outLen := int(math.Round(float64(len(samples)) * ratio))
	out := make([]float64, outLen)
	for j := range out {
		centre := float64(j) / ratio
		base := int(math.Floor(centre))
		lo := max(0, base-halfWidth+1)
		hi := min(len(samples)-1, base+halfWidth)

		sum := 0.0
		for k := lo; k <= hi; k++ {
			d := centre - float64(k)
			if math.Abs(d) >= float64(halfWidth) {
				continue
			}
			w := 0.5 + 0.5*math.Cos(math.Pi*d/float64(halfWidth))
			sum += samples[k] * 2 * cutoff * sinc(2*cutoff*d) * w
		}
		out[j] = sum
	}
	return out, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
