package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	setu "github.com/dharmasetu/setu"
	"github.com/dharmasetu/setu/eval"
)

var (
	evalDatasetPath string
	evalOutputPath  string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the question pipeline against a dataset",
	Long: `eval runs a dataset of legal questions through the full engine and
scores each answer for fact accuracy, retrieval recall, and citation
quality. Without --dataset the built-in IPC/BNS baseline is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		ds := eval.BaselineDataset()
		if evalDatasetPath != "" {
			loaded, err := eval.LoadDataset(evalDatasetPath)
			if err != nil {
				return err
			}
			ds = loaded
		}

		engine, err := setu.New(cfg)
		if err != nil {
			return fmt.Errorf("creating engine: %w", err)
		}
		defer engine.Close()

		report, err := eval.NewEvaluator(engine).Run(cmd.Context(), ds)
		if err != nil {
			return fmt.Errorf("running evaluation: %w", err)
		}

		fmt.Fprintf(os.Stderr, "%s: %d/%d passed (accuracy %.2f, recall %.2f, relevance %.2f, citations %.2f) in %s\n",
			report.Dataset, report.Passed, report.TotalTests,
			report.Metrics.AvgAccuracy, report.Metrics.AvgContextRecall,
			report.Metrics.AvgRelevance, report.Metrics.AvgCitationQuality,
			report.RunTime.Round(time.Millisecond))

		if evalOutputPath != "" {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding report: %w", err)
			}
			if err := os.WriteFile(evalOutputPath, data, 0o644); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
			fmt.Fprintf(os.Stderr, "Report written to %s\n", evalOutputPath)
		}
		return nil
	},
}

func init() {
	evalCmd.Flags().StringVar(&evalDatasetPath, "dataset", "", "dataset JSON file (default: built-in baseline)")
	evalCmd.Flags().StringVar(&evalOutputPath, "output", "", "write the full JSON report to this file")
}
