// Package rating implements the ELO arithmetic behind every resolved
// comparison. Pure functions, no I/O, no failure modes.
package rating

import "math"

// DefaultKFactor bounds how far a single comparison can move a rating.
const DefaultKFactor = 32

// ExpectedScore is the probability that a rating of a beats a rating of b,
// per the standard logistic ELO curve: 1 / (1 + 10^((b-a)/400)).
// ExpectedScore(x, x) is exactly 0.5 for any x.
func ExpectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (b-a)/400.0))
}

// Delta returns the points transferred from loser to winner using the
// default K-factor.
func Delta(winner, loser float64) int {
	return DeltaK(winner, loser, DefaultKFactor)
}

// DeltaK returns round(k * (1 - ExpectedScore(winner, loser))). The result
// is a non-negative integer; the winner gains it, the loser loses it
// (zero-sum). Ratings are not clamped anywhere, so pathological inputs may
// drive a rating negative, which is accepted behavior.
func DeltaK(winner, loser float64, k int) int {
	return int(math.Round(float64(k) * (1.0 - ExpectedScore(winner, loser))))
}

// Apply returns the post-comparison ratings for winner and loser given the
// transferred delta.
func Apply(winner, loser float64, delta int) (newWinner, newLoser float64) {
	return winner + float64(delta), loser - float64(delta)
}
