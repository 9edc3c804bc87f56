package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"Alice", "alice", 0},
		{"Đức", "duc", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestThreshold(t *testing.T) {
	assert.Equal(t, 1, Threshold("bob"))
	assert.Equal(t, 2, Threshold("alice"))
	assert.Equal(t, 3, Threshold("christopher"))
}

func TestMatchPerson(t *testing.T) {
	assert.True(t, MatchPerson("ali", "Alice Nguyen", "alice@example.com"))
	assert.True(t, MatchPerson("alcie", "Alice Nguyen", "alice@example.com"), "one transposition is tolerated")
	assert.True(t, MatchPerson("nguyen", "Alice Nguyễn", "a@example.com"), "accents are ignored")
	assert.True(t, MatchPerson("example", "Bob", "bob@example.com"))
	assert.False(t, MatchPerson("zzzz", "Alice", "alice@example.com"))
	assert.False(t, MatchPerson("", "Alice", "alice@example.com"))
}

func TestPersonScoreOrdersBetterMatchesFirst(t *testing.T) {
	exactEmail := PersonScore("bob@example.com", "Robert", "bob@example.com")
	namePrefix := PersonScore("bob", "Bob Smith", "rs@example.com")
	typo := PersonScore("bbo", "Bob Smith", "rs@example.com")
	none := PersonScore("bob", "Alice", "alice@example.com")

	assert.Greater(t, exactEmail, namePrefix)
	assert.Greater(t, namePrefix, typo)
	assert.Greater(t, typo, none)
	assert.Zero(t, none)
}
