package models

// StaticMetrics holds the raw counts from structural analysis of a source
// file. All fields are zero when the source does not parse.
type StaticMetrics struct {
	LinesOfCode int `json:"lines_of_code"`
	Functions   int `json:"functions"`
	Types       int `json:"types"`
	Complexity  int `json:"complexity"`
}

// ToMap flattens the metrics for the report payload
func (m StaticMetrics) ToMap() map[string]float64 {
	return map[string]float64{
		"lines_of_code": float64(m.LinesOfCode),
		"functions":     float64(m.Functions),
		"types":         float64(m.Types),
		"complexity":    float64(m.Complexity),
	}
}

// ModelInsight is what survives parsing of the LLM's free-text reply
type ModelInsight struct {
	RawScore    float64  `json:"raw_score"`
	Suggestions []string `json:"suggestions"`
}

// ComplexityReport is the final fused result of one analysis call
type ComplexityReport struct {
	Score            float64            `json:"score"` // 0-10 scale
	Metrics          map[string]float64 `json:"metrics"`
	Suggestions      []string           `json:"suggestions"`
	BeginnerSuitable bool               `json:"beginner_suitable"`
}

// AnalyzeRequest is the incoming request for code analysis
type AnalyzeRequest struct {
	FilePath string `json:"file_path"`
}

// ClassifyRequest is the incoming request for issue classification
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse is the response for issue classification
type ClassifyResponse struct {
	Difficulty              string  `json:"difficulty"`
	Confidence              float64 `json:"confidence"`
	RecommendedForBeginners bool    `json:"recommended_for_beginners"`
	ModelStatus             string  `json:"model_status"`
}

// SimilarIssuesRequest is the incoming request for issue similarity lookup
type SimilarIssuesRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k,omitempty"`
}
