package appraisal

import "fmt"

// Band is the coarse confidence bucket a score falls into.
type Band string

const (
	BandHigh    Band = "high"
	BandMedium  Band = "medium"
	BandLow     Band = "low"
	BandVeryLow Band = "very_low"
)

const (
	MinScore     = 0
	MaxScore     = 100
	DefaultScore = 50

	// ProceedThreshold is the score from which the proceed advice applies.
	ProceedThreshold = 70
)

// BandFor buckets a score: >=80 high, >=60 medium, >=40 low, otherwise very low.
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandHigh
	case score >= 60:
		return BandMedium
	case score >= 40:
		return BandLow
	default:
		return BandVeryLow
	}
}

// ClampScore forces a score into [0,100].
func ClampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Label returns the localized description of the band.
func (l *Locale) Label(band Band) string {
	return l.BandLabels[band]
}

// Recommendations returns the advice list for the score.
func (l *Locale) Recommendations(score int) []string {
	src := l.CautionAdvice
	if score >= ProceedThreshold {
		src = l.ProceedAdvice
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// ScoreColor maps a score onto a red to green gradient.
func ScoreColor(score int) string {
	score = ClampScore(score)
	green := score * 255 / 100
	return fmt.Sprintf("rgb(%d, %d, 0)", 255-green, green)
}
