package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  Tier
	}{
		{"seedling lowercase", "seedling", TierSeedling},
		{"nurturer canonical", "Nurturer", TierNurturer},
		{"flourish lowercase", "flourish", TierFlourish},
		{"flourish canonical", "Flourish", TierFlourish},
		{"flourish shouting", "FLOURISH", TierFlourish},
		{"radiant mixed case", "rAdIaNt", TierRadiant},
		{"surrounding whitespace", "  Radiant ", TierRadiant},
		{"unknown label defaults to lowest", "platinum", TierSeedling},
		{"empty label defaults to lowest", "", TierSeedling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.label))
		})
	}
}

func TestRankIsOrderPreserving(t *testing.T) {
	assert.Less(t, Rank("Seedling"), Rank("Nurturer"))
	assert.Less(t, Rank("Nurturer"), Rank("Flourish"))
	assert.Less(t, Rank("Flourish"), Rank("Radiant"))
}

func TestIsKnownTier(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  bool
	}{
		{"canonical", "Flourish", true},
		{"lowercase", "radiant", true},
		{"surrounding whitespace", " Nurturer ", true},
		{"made-up label", "Platinum", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsKnownTier(tt.label))
		})
	}
}

func TestMeets(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		required string
		want     bool
	}{
		{"equal tiers", "Nurturer", "Nurturer", true},
		{"higher meets lower", "Radiant", "Seedling", true},
		{"lower fails higher", "Nurturer", "Flourish", false},
		{"case insensitive comparison", "flourish", "FLOURISH", true},
		{"unknown current only meets lowest", "mystery", "Seedling", true},
		{"unknown current fails anything above", "mystery", "Nurturer", false},
		{"unknown required is treated as lowest", "Seedling", "mystery", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Meets(tt.current, tt.required))
		})
	}
}
