package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mnp-lab/mnp-cli/internal/model"
)

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "Manage registered contract lines",
}

var (
	lineAddCarrier  string
	lineAddPhone    string
	lineAddPlan     string
	lineAddDate     string
	lineAddAdminFee int64
	lineAddDevice   int64
	lineAddRunning  int64
	lineAddCashback int64
)

var linesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a new contract line",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		carrierID, err := parseCarrier(reg, lineAddCarrier)
		if err != nil {
			return err
		}
		date, err := parseDate(lineAddDate)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		line, err := st.CreateLine(ctx, model.ContractLine{
			PhoneNumber:    lineAddPhone,
			Carrier:        carrierID,
			PlanName:       lineAddPlan,
			ContractDate:   date,
			AdminFee:       lineAddAdminFee,
			DeviceCost:     lineAddDevice,
			RunningCost:    lineAddRunning,
			CashbackAmount: lineAddCashback,
		})
		if err != nil {
			return err
		}

		fmt.Printf("registered line %s (%s, %s)\n", line.ID, line.Carrier, line.ContractDate.Format("2006-01-02"))
		return nil
	},
}

var linesListArchived bool

var linesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contract lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		lines, err := st.ListLines(ctx, linesListArchived)
		if err != nil {
			return err
		}

		for _, l := range lines {
			status := ""
			if l.Archived {
				status = " [archived]"
			}
			fmt.Printf("%-36s  %-10s  %s  %-14s  cb=%s%s\n",
				l.ID, l.Carrier, l.ContractDate.Format("2006-01-02"), l.PhoneNumber,
				formatYen(l.CashbackAmount), status)
		}
		return nil
	},
}

var linesArchiveCmd = &cobra.Command{
	Use:   "archive <line-id>",
	Short: "Archive a contract line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ArchiveLine(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("archived line %s\n", args[0])
		return nil
	},
}

func init() {
	linesAddCmd.Flags().StringVar(&lineAddCarrier, "carrier", "", "carrier code (required)")
	linesAddCmd.Flags().StringVar(&lineAddPhone, "phone", "", "phone number")
	linesAddCmd.Flags().StringVar(&lineAddPlan, "plan", "", "plan name")
	linesAddCmd.Flags().StringVar(&lineAddDate, "date", "", "contract start date YYYY-MM-DD (required)")
	linesAddCmd.Flags().Int64Var(&lineAddAdminFee, "admin-fee", 0, "admin fee (yen)")
	linesAddCmd.Flags().Int64Var(&lineAddDevice, "device-cost", 0, "device cost (yen)")
	linesAddCmd.Flags().Int64Var(&lineAddRunning, "running-cost", 0, "monthly running cost (yen)")
	linesAddCmd.Flags().Int64Var(&lineAddCashback, "cashback", 0, "expected cashback (yen)")
	_ = linesAddCmd.MarkFlagRequired("carrier")
	_ = linesAddCmd.MarkFlagRequired("date")

	linesListCmd.Flags().BoolVar(&linesListArchived, "archived", false, "include archived lines")

	linesCmd.AddCommand(linesAddCmd)
	linesCmd.AddCommand(linesListCmd)
	linesCmd.AddCommand(linesArchiveCmd)
	rootCmd.AddCommand(linesCmd)
}
