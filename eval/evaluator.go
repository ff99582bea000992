package eval

import (
	"context"
	"log/slog"
	"time"

	setu "github.com/dharmasetu/setu"
)

// passThreshold is the minimum accuracy for a test case to count as
// passed.
const passThreshold = 0.5

// Evaluator runs datasets against a Setu engine.
type Evaluator struct {
	engine setu.Engine
}

// NewEvaluator creates an evaluator for the given engine.
func NewEvaluator(engine setu.Engine) *Evaluator {
	return &Evaluator{engine: engine}
}

// Report holds the results of an evaluation run.
type Report struct {
	Dataset    string           `json:"dataset"`
	TotalTests int              `json:"total_tests"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	Metrics    AggregateMetrics `json:"metrics"`
	Results    []TestResult     `json:"results"`
	RunTime    time.Duration    `json:"run_time"`
}

// AggregateMetrics holds averaged metrics across all tests.
type AggregateMetrics struct {
	AvgAccuracy        float64 `json:"avg_accuracy"`
	AvgContextRecall   float64 `json:"avg_context_recall"`
	AvgRelevance       float64 `json:"avg_relevance"`
	AvgCitationQuality float64 `json:"avg_citation_quality"`
}

// TestResult holds the outcome of a single test case.
type TestResult struct {
	Question        string   `json:"question"`
	ExpectedFacts   []string `json:"expected_facts"`
	Category        string   `json:"category,omitempty"`
	Answer          string   `json:"answer"`
	Accuracy        float64  `json:"accuracy"`
	ContextRecall   float64  `json:"context_recall"`
	Relevance       float64  `json:"relevance"`
	CitationQuality float64  `json:"citation_quality"`
	Passed          bool     `json:"passed"`
	Error           string   `json:"error,omitempty"`
	ElapsedMs       int64    `json:"elapsed_ms"`
}

// Run executes every test case in the dataset and aggregates scores.
// A failing question is recorded with its error and scored zero rather
// than aborting the run.
func (e *Evaluator) Run(ctx context.Context, ds Dataset) (*Report, error) {
	start := time.Now()
	report := &Report{Dataset: ds.Name, TotalTests: len(ds.Tests)}

	for _, tc := range ds.Tests {
		result := e.runTest(ctx, tc)
		report.Results = append(report.Results, result)
		if result.Passed {
			report.Passed++
		} else {
			report.Failed++
		}

		report.Metrics.AvgAccuracy += result.Accuracy
		report.Metrics.AvgContextRecall += result.ContextRecall
		report.Metrics.AvgRelevance += result.Relevance
		report.Metrics.AvgCitationQuality += result.CitationQuality

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if n := float64(len(ds.Tests)); n > 0 {
		report.Metrics.AvgAccuracy /= n
		report.Metrics.AvgContextRecall /= n
		report.Metrics.AvgRelevance /= n
		report.Metrics.AvgCitationQuality /= n
	}
	report.RunTime = time.Since(start)
	return report, nil
}

func (e *Evaluator) runTest(ctx context.Context, tc TestCase) TestResult {
	result := TestResult{
		Question:      tc.Question,
		ExpectedFacts: tc.ExpectedFacts,
		Category:      tc.Category,
	}

	start := time.Now()
	resp, err := e.engine.Ask(ctx, setu.AskRequest{Query: tc.Question})
	result.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		slog.Warn("eval: question failed", "question", tc.Question, "error", err)
		return result
	}

	result.Answer = resp.Answer
	result.Accuracy = computeAccuracy(resp.Answer, tc.ExpectedFacts)
	result.ContextRecall = computeContextRecall(resp.Citations, tc.ExpectedFacts)
	result.Relevance = computeRelevance(resp.Citations, tc.Question)
	result.CitationQuality = computeCitationQuality(resp.Answer, resp.Citations)
	result.Passed = result.Accuracy >= passThreshold
	return result
}
