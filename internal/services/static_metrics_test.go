package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gitstart-analyzer/internal/models"
)

const sampleSource = `package sample

import "fmt"

type Greeter struct {
	Name string
}

func (g Greeter) Greet(times int) {
	for i := 0; i < times; i++ {
		if i%2 == 0 {
			fmt.Println("hi", g.Name)
		}
	}
}

func main() {
	g := Greeter{Name: "go"}
	g.Greet(3)
}
`

func TestExtractStaticMetrics(t *testing.T) {
	metrics := ExtractStaticMetrics(sampleSource)

	assert.Equal(t, 2, metrics.Functions)
	assert.Equal(t, 1, metrics.Types)
	// base 1 + for + if
	assert.Equal(t, 3, metrics.Complexity)
	assert.Equal(t, 21, metrics.LinesOfCode)
}

func TestExtractStaticMetrics_MalformedSource(t *testing.T) {
	metrics := ExtractStaticMetrics("this is not go code {{{")

	assert.Equal(t, models.StaticMetrics{}, metrics)
}

func TestExtractStaticMetrics_FuncLiterals(t *testing.T) {
	source := `package sample

func run() {
	go func() {}()
	handler := func() {}
	handler()
}
`
	metrics := ExtractStaticMetrics(source)

	// run plus two function literals
	assert.Equal(t, 3, metrics.Functions)
	assert.Equal(t, 0, metrics.Types)
}

func TestCyclomaticComplexity_SwitchDefault(t *testing.T) {
	source := `package sample

func pick(n int) string {
	switch n {
	case 1:
		return "one"
	case 2:
		return "two"
	default:
		return "many"
	}
}
`
	metrics := ExtractStaticMetrics(source)

	// base 1 + two non-default cases; default adds no branch
	assert.Equal(t, 3, metrics.Complexity)
}

func TestHeuristicScore(t *testing.T) {
	score := HeuristicScore(models.StaticMetrics{
		Complexity: 2,
		Types:      1,
		Functions:  2,
	})

	assert.InDelta(t, 1.7, score, 1e-9)
}

func TestHeuristicScore_ClampsAtTen(t *testing.T) {
	score := HeuristicScore(models.StaticMetrics{
		Complexity: 100,
		Types:      50,
		Functions:  80,
	})

	assert.Equal(t, MaxHeuristicScore, score)
}

func TestHeuristicScore_ZeroMetrics(t *testing.T) {
	assert.Equal(t, 0.0, HeuristicScore(models.StaticMetrics{}))
}
