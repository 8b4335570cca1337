package services

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned reply and records the prompt it was given
type fakeCompleter struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeCompleter) CompleteText(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.reply, f.err
}

func (f *fakeCompleter) HealthCheck(ctx context.Context) error {
	return f.err
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestFuseScores(t *testing.T) {
	assert.Equal(t, 5.2, FuseScores(4, 6))
	assert.Equal(t, 0.0, FuseScores(0, 0))
	assert.Equal(t, 10.0, FuseScores(10, 10))
}

func TestFuseScores_ClampsInputs(t *testing.T) {
	// Neither stage can push the result past 10
	assert.Equal(t, 10.0, FuseScores(42, 99))
	assert.Equal(t, 6.4, FuseScores(25, 4))
}

func TestFuseScores_Rounding(t *testing.T) {
	// 1*0.4 + 1.111*0.6 = 1.0666 -> 1.07
	assert.Equal(t, 1.07, FuseScores(1, 1.111))
}

func TestAnalyzeSource(t *testing.T) {
	completer := &fakeCompleter{reply: "Complexity: 6/10\n- split up main"}
	analyzer := NewCodeAnalyzer(completer, testLogger())

	report, err := analyzer.AnalyzeSource(context.Background(), sampleSource)
	require.NoError(t, err)

	static := HeuristicScore(ExtractStaticMetrics(sampleSource))
	assert.Equal(t, FuseScores(static, 6), report.Score)
	assert.Equal(t, []string{"split up main"}, report.Suggestions)
	assert.Equal(t, report.Score <= BeginnerThreshold, report.BeginnerSuitable)
	assert.Contains(t, completer.prompt, "```go")
}

func TestAnalyzeSource_BeginnerThresholdBoundary(t *testing.T) {
	// Static score for sampleSource is 2.2, so an insight of 5.2 lands the
	// fused score exactly on the threshold
	analyzer := NewCodeAnalyzer(&fakeCompleter{reply: "5.2/10"}, testLogger())
	report, err := analyzer.AnalyzeSource(context.Background(), sampleSource)
	require.NoError(t, err)
	assert.Equal(t, BeginnerThreshold, report.Score)
	assert.True(t, report.BeginnerSuitable)

	analyzer = NewCodeAnalyzer(&fakeCompleter{reply: "5.3/10"}, testLogger())
	report, err = analyzer.AnalyzeSource(context.Background(), sampleSource)
	require.NoError(t, err)
	assert.False(t, report.BeginnerSuitable)
}

func TestAnalyzeSource_MalformedSourceStillScores(t *testing.T) {
	completer := &fakeCompleter{reply: "6/10"}
	analyzer := NewCodeAnalyzer(completer, testLogger())

	report, err := analyzer.AnalyzeSource(context.Background(), "not valid go {{{")
	require.NoError(t, err)

	// Static metrics degrade to zero, the insight score carries the result
	assert.Equal(t, 3.6, report.Score)
	assert.True(t, report.BeginnerSuitable)
}

func TestAnalyzeSource_InsightFailurePropagates(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("model offline")}
	analyzer := NewCodeAnalyzer(completer, testLogger())

	_, err := analyzer.AnalyzeSource(context.Background(), sampleSource)
	assert.ErrorContains(t, err, "model offline")
}

func TestAnalyzeSource_TruncatesExcerpt(t *testing.T) {
	completer := &fakeCompleter{reply: "5/10"}
	analyzer := NewCodeAnalyzer(completer, testLogger())

	source := "package big\n" + strings.Repeat("// padding line\n", 500)
	_, err := analyzer.AnalyzeSource(context.Background(), source)
	require.NoError(t, err)

	assert.Contains(t, completer.prompt, source[:CodeExcerptLimit])
	assert.NotContains(t, completer.prompt, source)
}

func TestAnalyzeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.go")
	require.NoError(t, os.WriteFile(path, []byte(sampleSource), 0o644))

	completer := &fakeCompleter{reply: "2/10"}
	analyzer := NewCodeAnalyzer(completer, testLogger())

	report, err := analyzer.AnalyzeFile(context.Background(), path)
	require.NoError(t, err)
	assert.Greater(t, report.Score, 0.0)
}

func TestAnalyzeFile_MissingFile(t *testing.T) {
	analyzer := NewCodeAnalyzer(&fakeCompleter{reply: "5/10"}, testLogger())

	_, err := analyzer.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.go"))
	require.Error(t, err)

	var pathErr *os.PathError
	assert.ErrorAs(t, err, &pathErr)
}
