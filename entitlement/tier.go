package entitlement

import "strings"

// Tier is an ordered subscription level. Ordinal comparison is the sole
// admission rule for non-admin users.
type Tier int

const (
	TierSeedling Tier = iota
	TierNurturer
	TierFlourish
	TierRadiant
)

var tierNames = map[Tier]string{
	TierSeedling: "Seedling",
	TierNurturer: "Nurturer",
	TierFlourish: "Flourish",
	TierRadiant:  "Radiant",
}

var tierRanks = map[string]Tier{
	"seedling": TierSeedling,
	"nurturer": TierNurturer,
	"flourish": TierFlourish,
	"radiant":  TierRadiant,
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return tierNames[TierSeedling]
}

// Rank maps a tier label to its ordinal, case-insensitively. Unknown labels
// map to the lowest tier: an unrecognized plan can only deny access, never
// over-grant it.
func Rank(label string) Tier {
	if t, ok := tierRanks[strings.ToLower(strings.TrimSpace(label))]; ok {
		return t
	}
	return TierSeedling
}

// IsKnownTier reports whether the label names a real tier,
// case-insensitively. Unlike Rank it does not fall back to the lowest tier,
// so callers can reject made-up plan names outright.
func IsKnownTier(label string) bool {
	_, ok := tierRanks[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Meets reports whether the current tier satisfies the required one.
func Meets(current, required string) bool {
	return Rank(current) >= Rank(required)
}
