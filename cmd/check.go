package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

var (
	checkFrom string
	checkTo   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a carrier pair for group contamination",
	Long: `Checks whether moving a line between two carriers stays inside one
parent operator group, which typically voids promotional incentives.

Example:
  mnp-cli check --from au --to uq`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if checkFrom == "" || checkTo == "" {
			return eris.New("both --from and --to are required")
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		res, err := reg.CheckTransfer(model.CarrierID(checkFrom), model.CarrierID(checkTo))
		if err != nil {
			return err
		}

		if !res.Contaminated {
			fmt.Printf("%s -> %s: clean\n", checkFrom, checkTo)
			return nil
		}

		fmt.Printf("%s -> %s: CONTAMINATED\n", checkFrom, checkTo)
		fmt.Printf("  %s\n", res.Reason)

		if alt, err := reg.FirstClean(model.CarrierID(checkFrom), nil); err == nil {
			fmt.Printf("  first clean alternative: %s\n", alt)
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkFrom, "from", "", "source carrier code")
	checkCmd.Flags().StringVar(&checkTo, "to", "", "destination carrier code")
	rootCmd.AddCommand(checkCmd)
}
