package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStripsDollarAndUppercases(t *testing.T) {
	assert.Equal(t, Symbol("VTI"), Parse("$vti"))
	assert.Equal(t, Symbol("SPY"), Parse(" spy "))
	assert.Equal(t, Parse("VTI"), New("vti"))
}

func TestParseAllDropsDuplicatesAndBlanks(t *testing.T) {
	got := ParseAll([]string{"vti", "$VTI", "", "spy"})
	assert.Equal(t, []Symbol{"VTI", "SPY"}, got)
	assert.Equal(t, []string{"VTI", "SPY"}, Strings(got))
}

func TestUnmarshalTextParses(t *testing.T) {
	var s Symbol
	assert.NoError(t, s.UnmarshalText([]byte("$qqq")))
	assert.Equal(t, Symbol("QQQ"), s)
}
