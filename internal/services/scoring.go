package services

// ComputePoints scores one correctly-answered participant.
//
// The base drops 20 points per hint consumed, never below 20. Each pass
// costs 10 and each wrong guess 30, so three passes weigh the same as one
// miss. Any correct answer is worth at least 10.
func ComputePoints(hintsUsed, passCount, missCount int) int {
	basic := 100 - (hintsUsed-1)*20
	if basic < 20 {
		basic = 20
	}
	points := basic - passCount*10 - missCount*30
	if points < 10 {
		points = 10
	}
	return points
}
