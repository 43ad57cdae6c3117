package analyzers

import "math"

// frameLayout places analysis frames of a fixed window length on a regular
// grid centred within the signal.
type frameLayout struct {
	first  float64 // centre of the first frame, seconds
	step   float64
	window float64
	count  int
}

func newFrameLayout(duration, window, step float64) frameLayout {
	fl := frameLayout{step: step, window: window}
	if step <= 0 || window <= 0 || duration < window {
		return fl
	}
	fl.count = int(math.Floor((duration-window)/step+1e-9)) + 1
	fl.first = 0.5 * (duration - float64(fl.count-1)*step)
	return fl
}

// time returns the centre of frame i.
func (fl frameLayout) time(i int) float64 {
	return fl.first + float64(i)*fl.step
}

func (fl frameLayout) times() []float64 {
	out := make([]float64, fl.count)
	for i := range out {
		out[i] = fl.time(i)
	}
	return out
}

// extractFrame copies n samples starting half a window before centre.
// Positions outside the signal read as zero.
func extractFrame(samples []float64, sampleRate int, centre, window float64, n int) []float64 {
	frame := make([]float64, n)
	start := int(math.Round((centre - window/2) * float64(sampleRate)))
	for i := range frame {
		j := start + i
		if j >= 0 && j < len(samples) {
			frame[i] = samples[j]
		}
	}
	return frame
}

func removeMean(frame []float64) {
	if len(frame) == 0 {
		return
	}
	sum := 0.0
	for _, v := range frame {
		sum += v
	}
	mean := sum / float64(len(frame))
	for i := range frame {
		frame[i] -= mean
	}
}

func peakAbs(frame []float64) float64 {
	peak := 0.0
	for _, v := range frame {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	return peak
}
