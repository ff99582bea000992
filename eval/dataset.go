// Package eval scores the question answering pipeline against datasets
// of legal questions with known expected facts.
package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// Dataset is a collection of test cases for evaluation.
type Dataset struct {
	Name  string     `json:"name"`
	Tests []TestCase `json:"tests"`
}

// TestCase defines a single evaluation question. Each expected fact may
// carry pipe-separated alternatives ("Section 302|302 IPC"); matching
// any alternative counts as a hit.
type TestCase struct {
	Question      string   `json:"question"`
	ExpectedFacts []string `json:"expected_facts"`
	Category      string   `json:"category"` // single-provision, cross-regime, multi-fact
}

// LoadDataset reads a dataset JSON file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("reading dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	if len(ds.Tests) == 0 {
		return Dataset{}, fmt.Errorf("dataset %s has no tests", path)
	}
	return ds, nil
}

// BaselineDataset returns built-in smoke questions over the IPC and BNS
// corpus. It checks the provisions every Indian criminal law corpus
// contains, so it works without a dataset file.
func BaselineDataset() Dataset {
	return Dataset{
		Name: "Baseline - IPC/BNS Provisions",
		Tests: []TestCase{
			{
				Question:      "What is the punishment for murder under the Indian Penal Code?",
				ExpectedFacts: []string{"Section 302|302", "death|imprisonment for life"},
				Category:      "single-provision",
			},
			{
				Question:      "Which BNS section replaced Section 302 IPC?",
				ExpectedFacts: []string{"Section 103|103", "Bharatiya Nyaya Sanhita|BNS"},
				Category:      "cross-regime",
			},
			{
				Question:      "How does the law distinguish culpable homicide from murder?",
				ExpectedFacts: []string{"culpable homicide", "murder", "intention|knowledge"},
				Category:      "multi-fact",
			},
		},
	}
}
