package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/mnp-lab/mnp-cli/internal/model"
	"github.com/mnp-lab/mnp-cli/internal/observe"
	"github.com/mnp-lab/mnp-cli/internal/revision"
	"github.com/mnp-lab/mnp-cli/internal/store"
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Review externally observed pricing changes",
	Long: `Observed pricing facts never mutate stored plan data directly. The
detect step diffs them against stored baselines and files proposals;
approve and dismiss resolve them.`,
}

var reviseFactFiles []string

var reviseDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Diff observed facts against stored plan data",
	Long: `Loads observed pricing facts from files (or the configured sources)
and files a pending proposal for every discrepancy.

Example:
  mnp-cli revise detect --facts observed/docomo.json --facts observed/au.yaml`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		paths := reviseFactFiles
		if len(paths) == 0 {
			paths = cfg.Observe.Sources
		}
		if len(paths) == 0 {
			return eris.New("no fact files given and no observe.sources configured")
		}

		var limiter *rate.Limiter
		if cfg.Observe.RatePerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.Observe.RatePerSecond), 1)
		}
		facts, err := observe.LoadAll(ctx, paths, limiter)
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

		created, err := revision.New(st).DetectChanges(ctx, facts)
		if err != nil {
			return err
		}

		if len(created) == 0 {
			fmt.Println("no changes detected")
			return nil
		}
		for _, p := range created {
			fmt.Printf("%s  %s/%s  %s: %s -> %s\n",
				p.ID, p.Carrier, p.PlanName, p.TargetField,
				formatYen(p.OldValue), formatYen(p.NewValue))
		}
		return nil
	},
}

var reviseListStatus string

var reviseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List revision proposals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		proposals, err := st.ListProposals(ctx, store.ProposalFilter{
			Status: model.ProposalStatus(reviseListStatus),
		})
		if err != nil {
			return err
		}

		for _, p := range proposals {
			fmt.Printf("%-36s  %-9s  %s/%s  %s: %s -> %s  (%s)\n",
				p.ID, p.Status, p.Carrier, p.PlanName, p.TargetField,
				formatYen(p.OldValue), formatYen(p.NewValue), p.EvidenceURL)
		}
		return nil
	},
}

var reviseApproveCmd = &cobra.Command{
	Use:   "approve <proposal-id>",
	Short: "Approve a pending proposal and apply it to stored plan data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := revision.New(st).Approve(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("approved %s: %s/%s %s = %s\n",
			p.ID, p.Carrier, p.PlanName, p.TargetField, formatYen(p.NewValue))
		return nil
	},
}

var reviseDismissCmd = &cobra.Command{
	Use:   "dismiss <proposal-id>",
	Short: "Dismiss a pending proposal without applying it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		p, err := revision.New(st).Dismiss(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("dismissed %s\n", p.ID)
		return nil
	},
}

func init() {
	reviseDetectCmd.Flags().StringArrayVar(&reviseFactFiles, "facts", nil, "observed fact file (repeatable)")
	reviseListCmd.Flags().StringVar(&reviseListStatus, "status", "", "filter by status (pending/approved/dismissed)")

	reviseCmd.AddCommand(reviseDetectCmd)
	reviseCmd.AddCommand(reviseListCmd)
	reviseCmd.AddCommand(reviseApproveCmd)
	reviseCmd.AddCommand(reviseDismissCmd)
	rootCmd.AddCommand(reviseCmd)
}
