package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/risk"
)

var (
	riskCarrier string
	riskDate    string
	riskAsOf    string
	riskLineID  string
	riskAll     bool
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Assess retention-window risk for a contract",
	Long: `Computes the risk level, elapsed days, and days remaining for a
contract relative to its carrier's minimum-retention window.

Examples:
  # Ad-hoc check against a carrier rule
  mnp-cli risk --carrier au --date 2025-02-10

  # A stored line
  mnp-cli risk --line 4f1c...

  # Every active stored line
  mnp-cli risk --all`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		asOf := time.Now().UTC()
		if riskAsOf != "" {
			if asOf, err = parseDate(riskAsOf); err != nil {
				return err
			}
		}

		switch {
		case riskAll:
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			lines, err := st.ListLines(ctx, false)
			if err != nil {
				return err
			}
			for _, line := range lines {
				a, err := risk.AssessLine(reg, line, asOf)
				if err != nil {
					return err
				}
				fmt.Printf("%-36s  %-10s  %-8s  elapsed=%-4d remaining=%-4d %d%%\n",
					line.ID, line.Carrier, a.Level, a.DaysElapsed, a.DaysRemaining, a.ProgressPercent)
			}
			return nil

		case riskLineID != "":
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			line, err := st.GetLine(ctx, riskLineID)
			if err != nil {
				return err
			}
			a, err := risk.AssessLine(reg, *line, asOf)
			if err != nil {
				return err
			}
			printAssessment(string(line.Carrier), a.Level, a.DaysElapsed, a.DaysRemaining, a.ProgressPercent)
			return nil

		case riskCarrier != "" && riskDate != "":
			id, err := parseCarrier(reg, riskCarrier)
			if err != nil {
				return err
			}
			rule, err := reg.RuleFor(id)
			if err != nil {
				return err
			}
			start, err := parseDate(riskDate)
			if err != nil {
				return err
			}
			a := risk.Assess(start, rule.SafeDurationDays, rule.BLRiskDays, asOf)
			printAssessment(string(id), a.Level, a.DaysElapsed, a.DaysRemaining, a.ProgressPercent)
			return nil

		default:
			return eris.New("specify --all, --line, or --carrier with --date")
		}
	},
}

func printAssessment(carrierID string, level model.RiskLevel, elapsed, remaining, progress int) {
	fmt.Printf("carrier:    %s\n", carrierID)
	fmt.Printf("level:      %s\n", level)
	fmt.Printf("elapsed:    %d days\n", elapsed)
	fmt.Printf("remaining:  %d days\n", remaining)
	fmt.Printf("progress:   %d%%\n", progress)
}

func init() {
	riskCmd.Flags().StringVar(&riskCarrier, "carrier", "", "carrier code")
	riskCmd.Flags().StringVar(&riskDate, "date", "", "contract start date (YYYY-MM-DD)")
	riskCmd.Flags().StringVar(&riskAsOf, "as-of", "", "assessment date (default today)")
	riskCmd.Flags().StringVar(&riskLineID, "line", "", "stored contract line id")
	riskCmd.Flags().BoolVar(&riskAll, "all", false, "assess every active stored line")
	rootCmd.AddCommand(riskCmd)
}
