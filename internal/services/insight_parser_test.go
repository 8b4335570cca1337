package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInsight_Score(t *testing.T) {
	insight := ParseInsight("Overall complexity rating: 7/10. The code is moderately complex.")

	assert.Equal(t, 7.0, insight.RawScore)
}

func TestParseInsight_DecimalScore(t *testing.T) {
	insight := ParseInsight("I would rate this 7.5/10 overall.")

	assert.Equal(t, 7.5, insight.RawScore)
}

func TestParseInsight_FirstScoreWins(t *testing.T) {
	insight := ParseInsight("Complexity: 3/10. Readability: 9/10.")

	assert.Equal(t, 3.0, insight.RawScore)
}

func TestParseInsight_NoScoreFallsBack(t *testing.T) {
	insight := ParseInsight("The code looks fine to me, nothing to rate here.")

	assert.Equal(t, DefaultInsightScore, insight.RawScore)
}

func TestParseInsight_Suggestions(t *testing.T) {
	reply := `Overall: 6/10

Suggestions:
- Extract the parsing loop into a helper
* Add error handling around the file read
• Document the exported functions
`
	insight := ParseInsight(reply)

	assert.Equal(t, []string{
		"Extract the parsing loop into a helper",
		"Add error handling around the file read",
		"Document the exported functions",
	}, insight.Suggestions)
}

func TestParseInsight_CapsSuggestions(t *testing.T) {
	reply := `4/10
- one
- two
- three
- four
- five
- six
- seven
`
	insight := ParseInsight(reply)

	assert.Len(t, insight.Suggestions, MaxSuggestions)
	assert.Equal(t, "five", insight.Suggestions[MaxSuggestions-1])
}

func TestParseInsight_SkipsEmptyBullets(t *testing.T) {
	reply := "- \n-\n- keep this one\n"
	insight := ParseInsight(reply)

	assert.Equal(t, []string{"keep this one"}, insight.Suggestions)
}
