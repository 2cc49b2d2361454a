package elo

import "math"

const (
	// SureWinDifference is the rating gap at which the stronger player is
	// assumed to win. Such a game moves neither rating.
	SureWinDifference = 600

	// KFactorConstantRating caps how fast ratings move. Ratings above this
	// value move at the same rate as this value.
	KFactorConstantRating = 2200

	// VolatilityConstant is the number of games after which a player's
	// volatility stays constant.
	VolatilityConstant = 20

	// AntiInflation biases every adjustment slightly downwards to counter
	// long-run rating drift.
	AntiInflation = 0.015

	// DefaultRating is assigned to a player before their first rated game.
	DefaultRating = 1200

	// Unrated marks a player who has never finished a rated game.
	Unrated = -1
)

// Result is the outcome of a game from the point of view of one player.
type Result int

const (
	Loss Result = -1
	Draw Result = 0
	Win  Result = 1
)

// Opposite returns the result as seen by the opponent.
func (r Result) Opposite() Result {
	return -r
}

func (r Result) String() string {
	switch r {
	case Win:
		return "won"
	case Loss:
		return "lost"
	default:
		return "drew"
	}
}

// RatingAdjustment returns the amount to add to rating after a 1v1 game
// against a player rated opponentRating.
//
// gamesPlayed and opponentGamesPlayed are the number of rated games each
// player finished before this one. The opponent's game count is accepted for
// symmetry of the call sites; it does not influence the result.
//
// Rounding is half-to-even so results are reproducible across platforms and
// match the historical rating tables.
func RatingAdjustment(rating, opponentRating, gamesPlayed, opponentGamesPlayed int, result Result) int {
	_ = opponentGamesPlayed

	playerVolatility := (float64(min(gamesPlayed, VolatilityConstant))/VolatilityConstant + 0.25) / 1.25
	kFactor := 50.0 * (float64(min(rating, KFactorConstantRating))/KFactorConstantRating + 1.0) / 2.0
	volatility := kFactor * playerVolatility

	difference := float64(opponentRating - rating)
	adjustment := (difference+float64(result)*SureWinDifference)/volatility - AntiInflation

	switch result {
	case Win:
		return int(math.RoundToEven(math.Max(0.0, adjustment)))
	case Loss:
		return int(math.RoundToEven(math.Min(0.0, adjustment)))
	}
	return int(math.RoundToEven(adjustment))
}
