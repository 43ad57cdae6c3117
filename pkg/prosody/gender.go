package prosody

// Gender is the pitch register used to select a baseline.
type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// DefaultGenderThreshold is the mean pitch, in Hz, at and above which a
// speaker is classified Female.
const DefaultGenderThreshold = 175.0

// Classify applies the default pitch threshold.
func Classify(meanPitch float64) Gender {
	return ClassifyWithThreshold(meanPitch, DefaultGenderThreshold)
}

// ClassifyWithThreshold returns Male below threshold and Female otherwise.
func ClassifyWithThreshold(meanPitch, threshold float64) Gender {
	if meanPitch < threshold {
		return Male
	}
	return Female
}
