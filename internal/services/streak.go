package services

// TrailingStreak counts the consecutive same-signed day-over-day moves
// ending at the most recent close. Positive for an up run, negative for a
// down run. A flat delta breaks the run immediately, so a flat latest day
// yields 0.
func TrailingStreak(closes []float64) int {
	if len(closes) < 2 {
		return 0
	}
	streak := 0
	last := 0
	for i := len(closes) - 1; i > 0; i-- {
		diff := closes[i] - closes[i-1]
		sign := 0
		switch {
		case diff > 0:
			sign = 1
		case diff < 0:
			sign = -1
		}
		if sign == 0 {
			break
		}
		if last == 0 {
			last = sign
			streak = sign
			continue
		}
		if sign != last {
			break
		}
		streak += sign
	}
	return streak
}
