package services

import (
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strings"

	"gitstart-analyzer/internal/models"
)

// Heuristic weights for mapping raw counts onto the 0-10 scale. These are
// fixed policy constants; changing them changes every score the service
// hands out.
const (
	ComplexityWeight = 0.5
	TypeWeight       = 0.3
	FunctionWeight   = 0.2

	MaxHeuristicScore = 10.0
)

// ExtractStaticMetrics parses source text and counts structural features.
// Malformed source degrades to all-zero metrics instead of failing the
// analysis.
func ExtractStaticMetrics(source string) models.StaticMetrics {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "source.go", source, 0)
	if err != nil {
		return models.StaticMetrics{}
	}

	metrics := models.StaticMetrics{
		LinesOfCode: strings.Count(source, "\n") + 1,
		Complexity:  cyclomaticComplexity(file),
	}

	ast.Inspect(file, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.FuncDecl, *ast.FuncLit:
			metrics.Functions++
		case *ast.TypeSpec:
			metrics.Types++
		}
		return true
	})

	return metrics
}

// cyclomaticComplexity counts linearly independent paths: base 1 plus one
// per branch-introducing node, regardless of nesting depth.
func cyclomaticComplexity(file *ast.File) int {
	complexity := 1
	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			complexity++
		case *ast.CaseClause:
			// default clauses have an empty expression list and add no branch
			if len(node.List) > 0 {
				complexity++
			}
		case *ast.CommClause:
			if node.Comm != nil {
				complexity++
			}
		}
		return true
	})
	return complexity
}

// HeuristicScore maps static metrics to a 0-10 score via the fixed weighted
// sum, clamped at 10. Pure and deterministic.
func HeuristicScore(m models.StaticMetrics) float64 {
	raw := float64(m.Complexity)*ComplexityWeight +
		float64(m.Types)*TypeWeight +
		float64(m.Functions)*FunctionWeight
	return math.Min(MaxHeuristicScore, raw)
}
