// Package trust defines the tier system that controls how far into debt a
// member's accounts may go. The policy is a pure, immutable value built
// once at startup and injected into the ledger; it holds no mutable state.
package trust

import "github.com/shopspring/decimal"

// Tier is an ordered reputation level, T1 (entry) through T6 (founder).
// A member's tier only increases through earnings; the single demotion
// path is an explicit administrative override.
type Tier string

const (
	TierT1 Tier = "T1"
	TierT2 Tier = "T2"
	TierT3 Tier = "T3"
	TierT4 Tier = "T4"
	TierT5 Tier = "T5"
	TierT6 Tier = "T6"
)

var tierOrder = []Tier{TierT1, TierT2, TierT3, TierT4, TierT5, TierT6}

// ordinal returns the position of t in the tier ladder, or -1 for an
// unknown tier.
func (t Tier) ordinal() int {
	for i, candidate := range tierOrder {
		if t == candidate {
			return i
		}
	}
	return -1
}

// ValidTier reports whether t is one of the defined tiers.
func ValidTier(t Tier) bool {
	return t.ordinal() >= 0
}

// Floor is the pair of per-currency debt ceilings for one tier. Both
// values are <= 0: a balance may not drop below them in a regular
// transfer.
type Floor struct {
	Time  int64
	Regio decimal.Decimal
}

// Threshold grants a tier once lifetime Time earnings reach MinEarned.
type Threshold struct {
	Tier      Tier
	MinEarned int64
}

// Policy maps tiers to debt floors and lifetime earnings to tiers.
type Policy struct {
	floors map[Tier]Floor
	// thresholds are kept sorted by MinEarned descending so NextTier can
	// return the first one that matches.
	thresholds []Threshold
}

// DefaultPolicy returns the community's standard ladder. T6 has no
// earnings threshold: it is granted only by administrative override.
func DefaultPolicy() *Policy {
	return NewPolicy(
		map[Tier]Floor{
			TierT1: {Time: -60, Regio: decimal.RequireFromString("-10.00")},
			TierT2: {Time: -180, Regio: decimal.RequireFromString("-30.00")},
			TierT3: {Time: -300, Regio: decimal.RequireFromString("-50.00")},
			TierT4: {Time: -600, Regio: decimal.RequireFromString("-100.00")},
			TierT5: {Time: -900, Regio: decimal.RequireFromString("-150.00")},
			TierT6: {Time: -1200, Regio: decimal.RequireFromString("-200.00")},
		},
		[]Threshold{
			{Tier: TierT5, MinEarned: 3000},
			{Tier: TierT4, MinEarned: 1500},
			{Tier: TierT3, MinEarned: 900},
			{Tier: TierT2, MinEarned: 300},
		},
	)
}

// NewPolicy builds a policy from an explicit floor table and promotion
// thresholds (highest tier first).
func NewPolicy(floors map[Tier]Floor, thresholds []Threshold) *Policy {
	f := make(map[Tier]Floor, len(floors))
	for tier, floor := range floors {
		f[tier] = floor
	}
	t := make([]Threshold, len(thresholds))
	copy(t, thresholds)
	return &Policy{floors: f, thresholds: t}
}

// Floors returns the debt floors for the given tier. An unknown tier
// falls back to the T1 floor, the most restrictive one, so a corrupt or
// missing tier can never widen a member's credit.
func (p *Policy) Floors(tier Tier) Floor {
	if floor, ok := p.floors[tier]; ok {
		return floor
	}
	return p.floors[TierT1]
}

// NextTier returns the highest tier whose earnings threshold is met by
// lifetimeTimeEarned, defaulting to T1.
func (p *Policy) NextTier(lifetimeTimeEarned int64) Tier {
	for _, threshold := range p.thresholds {
		if lifetimeTimeEarned >= threshold.MinEarned {
			return threshold.Tier
		}
	}
	return TierT1
}

// IsPromotion reports whether candidate is strictly above current in the
// tier ladder. It never approves a demotion, and unknown tiers on either
// side disqualify the move.
func (p *Policy) IsPromotion(candidate, current Tier) bool {
	candidateOrd := candidate.ordinal()
	currentOrd := current.ordinal()
	if candidateOrd < 0 || currentOrd < 0 {
		return false
	}
	return candidateOrd > currentOrd
}
