package cmd

import (
	"fmt"

	"github.com/naka-gawa/repo-stats/internal/report"
	"github.com/naka-gawa/repo-stats/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newLocCmd(v *viper.Viper) *cobra.Command {
	locCmd := &cobra.Command{
		Use:   "loc <repo_owner> <repo_name> <author_username>",
		Short: "Aggregates an author's commit additions and deletions since a date",
		Long: `Lists every commit by the author since --start-date, fetches the line
counts of each commit and prints the totals, the average per commit and the
commits with the most changes.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}
			topN, _ := cmd.Flags().GetInt("top")
			if topN < 0 {
				return fmt.Errorf("top must not be negative, got %d", topN)
			}
			aggregator, log, err := newAggregator(v)
			if err != nil {
				return err
			}

			results, err := aggregator.CommitLOC(cmd.Context(), usecase.LOCQuery{
				Repo:   t.repo,
				Author: t.author,
				Since:  t.since,
			})
			if err != nil {
				return err
			}

			report.WriteLOCSummary(cmd.OutOrStdout(), results, topN)
			return saveOutput(cmd, log, results)
		},
	}
	addTargetFlags(locCmd)
	locCmd.Flags().Int("top", report.DefaultTopN, "Number of commits listed by changes")
	return locCmd
}
