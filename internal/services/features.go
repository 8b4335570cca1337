package services

import (
	"sort"
	"strings"

	"github.com/jdkato/prose/v2"
)

// IssueFeatures are lexical signals extracted from an issue description,
// exposed alongside predictions for debugging and labeling work
type IssueFeatures struct {
	Length              int             `json:"length"`
	WordCount           int             `json:"word_count"`
	HasCodeBlock        bool            `json:"has_code_block"`
	MentionsError       bool            `json:"mentions_error"`
	ComplexityWordCount int             `json:"complexity_word_count"`
	Keywords            []KeywordResult `json:"keywords,omitempty"`
}

// KeywordResult represents a keyword with its frequency and POS tag
type KeywordResult struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
	PosTag    string `json:"pos_tag"`
}

// FeatureExtractor derives lexical features from issue text
type FeatureExtractor struct {
	errorWords      []string
	complexityWords []string
	stopWords       map[string]bool
	maxKeywords     int
}

// NewFeatureExtractor creates a feature extractor
func NewFeatureExtractor() *FeatureExtractor {
	stopWords := map[string]bool{
		"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
		"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
		"be": true, "been": true, "have": true, "has": true, "had": true, "do": true,
		"does": true, "did": true, "will": true, "would": true, "could": true, "should": true,
		"this": true, "that": true, "these": true, "those": true, "it": true,
	}

	return &FeatureExtractor{
		errorWords:      []string{"error", "bug", "exception"},
		complexityWords: []string{"implement", "refactor", "optimize", "architecture"},
		stopWords:       stopWords,
		maxKeywords:     10,
	}
}

// Extract computes features for one issue text. Keyword extraction rides on
// POS tagging; the count-based features never fail.
func (fe *FeatureExtractor) Extract(text string) (*IssueFeatures, error) {
	lower := strings.ToLower(text)

	features := &IssueFeatures{
		Length:        len(text),
		WordCount:     len(strings.Fields(text)),
		HasCodeBlock:  strings.Contains(text, "```"),
		MentionsError: containsAny(lower, fe.errorWords),
	}
	for _, word := range fe.complexityWords {
		if strings.Contains(lower, word) {
			features.ComplexityWordCount++
		}
	}

	if strings.TrimSpace(text) == "" {
		return features, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	freq := make(map[string]*KeywordResult)
	for _, tok := range doc.Tokens() {
		word := strings.ToLower(tok.Text)
		if len(word) < 2 || fe.stopWords[word] || !strings.HasPrefix(tok.Tag, "NN") && !strings.HasPrefix(tok.Tag, "VB") {
			continue
		}
		if existing, exists := freq[word]; exists {
			existing.Frequency++
		} else {
			freq[word] = &KeywordResult{Word: word, Frequency: 1, PosTag: tok.Tag}
		}
	}

	for _, kw := range freq {
		features.Keywords = append(features.Keywords, *kw)
	}
	sort.Slice(features.Keywords, func(i, j int) bool {
		if features.Keywords[i].Frequency != features.Keywords[j].Frequency {
			return features.Keywords[i].Frequency > features.Keywords[j].Frequency
		}
		return features.Keywords[i].Word < features.Keywords[j].Word
	})
	if len(features.Keywords) > fe.maxKeywords {
		features.Keywords = features.Keywords[:fe.maxKeywords]
	}

	return features, nil
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}
