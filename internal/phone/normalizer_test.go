package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_SameNumberDifferentFormats(t *testing.T) {
	n := NewNormalizer(nil)

	formats := []string{
		"+16026866672",
		"6026866672",
		"16026866672",
		"602-686-6672",
		"(602) 686-6672",
		"+1 602.686.6672",
	}
	for _, raw := range formats {
		assert.Equal(t, "6026866672", n.Normalize(raw), raw)
	}
}

func TestNormalize_Blank(t *testing.T) {
	n := NewNormalizer(nil)

	assert.Equal(t, "", n.Normalize(""))
	assert.Equal(t, "", n.Normalize("   "))
	assert.Equal(t, "", n.Normalize("ext. -"))
}

func TestNormalize_ShortAndForeignNumbersKeepDigits(t *testing.T) {
	n := NewNormalizer(nil)

	assert.Equal(t, "5551234", n.Normalize("555-1234"))
	// Ten digits starting with 1 are a national number, not a country code.
	assert.Equal(t, "1234567890", n.Normalize("123-456-7890"))
	assert.Equal(t, "442071234567", n.Normalize("+44 20 7123 4567"))
}

func TestNormalize_ConfigurableTable(t *testing.T) {
	n := NewNormalizer(map[string]int{"1": 10, "44": 10})

	assert.Equal(t, "2071234567", n.Normalize("+44 20 7123 4567"))
	assert.Equal(t, "6026866672", n.Normalize("+1 602 686 6672"))

	digitsOnly := NewNormalizer(map[string]int{})
	assert.Equal(t, "16026866672", digitsOnly.Normalize("+1 602 686 6672"))
}

func TestNormalize_LongerCodeWins(t *testing.T) {
	n := NewNormalizer(map[string]int{"3": 11, "35": 10})

	assert.Equal(t, "3531234567", n.Normalize("353 123 4567"))
	assert.Equal(t, "1234567890", n.Normalize("35 1234567890"))
}

func TestSame(t *testing.T) {
	n := NewNormalizer(nil)

	assert.True(t, n.Same("+16026866672", "602-686-6672"))
	assert.False(t, n.Same("+16026866672", "602-686-6673"))
	assert.False(t, n.Same("", ""))
	assert.False(t, n.Same(" ", "-"))
}
