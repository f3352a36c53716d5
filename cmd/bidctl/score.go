// cmd/bidctl/score.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"bidbuddy-workers/internal/compliance"
	"bidbuddy-workers/internal/models"
)

func newScoreCmd() *cobra.Command {
	var (
		tenderPath  string
		companyPath string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a company against an extracted tender",
		Long: `Runs the compliance scoring engine offline.

The tender file holds extracted tender data (snake_case keys, as produced by
extract-tender-structure); the company file holds a company profile.

Examples:
  bidctl score --tender nh48.json --company acme.json
  bidctl score --tender nh48.json --company acme.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var tender models.ExtractedTender
			if err := readJSONFile(tenderPath, &tender); err != nil {
				return err
			}
			var company models.CompanyProfile
			if err := readJSONFile(companyPath, &company); err != nil {
				return err
			}

			result := compliance.Score(tender.ScoringInput(), company.ScoringProfile())
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&tenderPath, "tender", "", "path to extracted tender JSON")
	cmd.Flags().StringVar(&companyPath, "company", "", "path to company profile JSON")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("tender")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func printResult(w io.Writer, r compliance.ScoringResult) {
	fmt.Fprintf(w, "Verdict: %s\n", r.Verdict)
	fmt.Fprintf(w, "Score:   %.1f\n", r.Score)
	if r.MSMEBonus > 0 {
		fmt.Fprintf(w, "MSME bonus: +%.1f\n", r.MSMEBonus)
	}

	fmt.Fprintf(w, "\nGaps (%d):\n", len(r.Gaps))
	if len(r.Gaps) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, g := range r.Gaps {
		fmt.Fprintf(w, "  - [%s] %s -%.1f: %s\n", g.Severity, g.Field, g.Deduction, g.Note)
		if len(g.Missing) > 0 {
			fmt.Fprintf(w, "      missing: %s\n", strings.Join(g.Missing, ", "))
		}
	}

	fmt.Fprintf(w, "\nMet (%d):\n", len(r.MetCriteria))
	for _, m := range r.MetCriteria {
		fmt.Fprintf(w, "  - %s: %s\n", m.Field, m.Detail)
	}

	fmt.Fprintln(w, "\nRecommendations:")
	for i, rec := range r.Recommendations {
		fmt.Fprintf(w, "  %d. %s\n", i+1, rec)
	}
}
