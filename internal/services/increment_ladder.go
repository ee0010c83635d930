package services

import (
	"fmt"

	"vehicle-auction/internal/config"
)

// IncrementLadder maps a current price to the minimum legal increment
// for the next bid. The tier table comes from configuration so that
// jurisdiction variants ship without a rebuild. Pure and deterministic.
type IncrementLadder struct {
	tiers []config.LadderTier
}

// NewIncrementLadder validates that bounds are strictly increasing and
// that the table terminates in an unbounded tier (UpTo == 0).
func NewIncrementLadder(tiers []config.LadderTier) (*IncrementLadder, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("increment ladder: no tiers configured")
	}

	last := tiers[len(tiers)-1]
	if last.UpTo != 0 {
		return nil, fmt.Errorf("increment ladder: final tier must be unbounded (up_to = 0)")
	}

	prevBound := 0.0
	prevIncrement := 0.0
	for i, tier := range tiers {
		if tier.Increment <= prevIncrement {
			return nil, fmt.Errorf("increment ladder: tier %d increment %.2f not increasing", i, tier.Increment)
		}
		prevIncrement = tier.Increment

		if tier.UpTo == 0 {
			if i != len(tiers)-1 {
				return nil, fmt.Errorf("increment ladder: unbounded tier %d is not last", i)
			}
			continue
		}
		if tier.UpTo <= prevBound {
			return nil, fmt.Errorf("increment ladder: tier %d bound %.2f not increasing", i, tier.UpTo)
		}
		prevBound = tier.UpTo
	}

	return &IncrementLadder{tiers: tiers}, nil
}

// MinimumIncrement returns the increment of the first tier whose bound
// covers the price. Bounds are inclusive: a price sitting exactly on a
// bound still belongs to that tier.
func (l *IncrementLadder) MinimumIncrement(currentPrice float64) float64 {
	for _, tier := range l.tiers {
		if tier.UpTo == 0 || currentPrice <= tier.UpTo {
			return tier.Increment
		}
	}
	// unreachable: the constructor guarantees an unbounded final tier
	return l.tiers[len(l.tiers)-1].Increment
}

// MinimumBid is the lowest amount the next bid may carry.
func (l *IncrementLadder) MinimumBid(currentPrice float64) float64 {
	return currentPrice + l.MinimumIncrement(currentPrice)
}

// ValidateIncrement reports whether newAmount clears the ladder.
func (l *IncrementLadder) ValidateIncrement(currentPrice, newAmount float64) bool {
	return newAmount >= l.MinimumBid(currentPrice)
}
