package cmd

import (
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/report"
	"github.com/naka-gawa/repo-stats/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPRsCmd(v *viper.Viper) *cobra.Command {
	prsCmd := &cobra.Command{
		Use:   "prs <repo_owner> <repo_name> <author_username>",
		Short: "Lists an author's pull requests since a date with state counters",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}
			state, _ := cmd.Flags().GetString(flagState)
			if err := domain.ValidateState(state); err != nil {
				return err
			}
			aggregator, log, err := newAggregator(v)
			if err != nil {
				return err
			}

			results, err := aggregator.PullRequests(cmd.Context(), usecase.PRQuery{
				Repo:         t.repo,
				Author:       t.author,
				Since:        t.since,
				State:        state,
				IncludeDraft: true,
			})
			if err != nil {
				return err
			}

			report.WritePRSummary(cmd.OutOrStdout(), results)
			return saveOutput(cmd, log, results)
		},
	}
	addTargetFlags(prsCmd)
	prsCmd.Flags().String(flagState, domain.StateAll, "Filter PRs by state: open, closed or all")
	return prsCmd
}
