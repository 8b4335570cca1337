package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"

	"gitstart-analyzer/internal/models"
)

// Fusion policy constants. The 40/60 blend and the 4.0 beginner threshold
// are load-bearing: every consumer of beginner_suitable depends on them.
const (
	StaticWeight      = 0.4
	InsightWeight     = 0.6
	BeginnerThreshold = 4.0

	// CodeExcerptLimit bounds request size and cost toward the model
	CodeExcerptLimit = 2000
)

// CodeAnalyzer scores source complexity by fusing static analysis with a
// hosted model's judgment
type CodeAnalyzer struct {
	completer TextCompleter
	logger    *log.Logger
}

// NewCodeAnalyzer creates a new code analyzer
func NewCodeAnalyzer(completer TextCompleter, logger *log.Logger) *CodeAnalyzer {
	return &CodeAnalyzer{
		completer: completer,
		logger:    logger,
	}
}

// AnalyzeFile reads a source file and analyzes it
func (a *CodeAnalyzer) AnalyzeFile(ctx context.Context, path string) (*models.ComplexityReport, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return a.AnalyzeSource(ctx, string(source))
}

// AnalyzeSource runs both scoring stages and fuses the results. Unparseable
// source degrades to zero static metrics; a failing insight request is fatal
// to the whole analysis and propagates.
func (a *CodeAnalyzer) AnalyzeSource(ctx context.Context, source string) (*models.ComplexityReport, error) {
	metrics := ExtractStaticMetrics(source)

	reply, err := a.completer.CompleteText(ctx, complexityPrompt(source))
	if err != nil {
		return nil, fmt.Errorf("insight request failed: %w", err)
	}
	insight := ParseInsight(reply)

	staticScore := HeuristicScore(metrics)
	finalScore := FuseScores(staticScore, insight.RawScore)

	a.logger.Printf("Analysis complete: static=%.2f insight=%.2f final=%.2f", staticScore, insight.RawScore, finalScore)

	return &models.ComplexityReport{
		Score:            finalScore,
		Metrics:          metrics.ToMap(),
		Suggestions:      insight.Suggestions,
		BeginnerSuitable: finalScore <= BeginnerThreshold,
	}, nil
}

// FuseScores blends the static and model-derived scores with the fixed
// 40/60 weighting, rounded to two decimals. Each input is clamped at 10
// first so neither stage can push the result off the scale. Pure function.
func FuseScores(staticScore, insightScore float64) float64 {
	staticScore = math.Min(staticScore, MaxHeuristicScore)
	insightScore = math.Min(insightScore, MaxHeuristicScore)

	final := staticScore*StaticWeight + insightScore*InsightWeight
	return math.Round(final*100) / 100
}

// complexityPrompt builds the fixed analysis prompt from a truncated excerpt
func complexityPrompt(source string) string {
	excerpt := source
	if len(excerpt) > CodeExcerptLimit {
		excerpt = excerpt[:CodeExcerptLimit]
	}

	return fmt.Sprintf(`Analyze this code for complexity and provide:
1. Overall complexity rating (0-10)
2. Beginner-friendly aspects
3. Challenging parts
4. Suggestions for improvements

Code:
`+"```go\n%s\n```\n", excerpt)
}
