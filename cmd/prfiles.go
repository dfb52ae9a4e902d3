package cmd

import (
	"fmt"

	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/report"
	"github.com/naka-gawa/repo-stats/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newPRFilesCmd(v *viper.Viper) *cobra.Command {
	prFilesCmd := &cobra.Command{
		Use:   "pr-files <repo_owner> <repo_name> <author_username>",
		Short: "Analyzes the files changed by an author's pull requests",
		Long: `Fetches the changed files of every pull request the author opened since
--start-date and aggregates additions and deletions per pull request and per
file extension. Only merged, non-draft pull requests are analyzed unless
--all-prs or --get-draft is given.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseTarget(cmd, args)
			if err != nil {
				return err
			}
			state, _ := cmd.Flags().GetString(flagState)
			if err := domain.ValidateState(state); err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return fmt.Errorf("limit must not be negative, got %d", limit)
			}
			includePatch, _ := cmd.Flags().GetBool("include-patch")
			includeDraft, _ := cmd.Flags().GetBool("get-draft")
			allPRs, _ := cmd.Flags().GetBool("all-prs")

			aggregator, log, err := newAggregator(v)
			if err != nil {
				return err
			}

			results, err := aggregator.PullRequestFiles(cmd.Context(), usecase.PRFilesQuery{
				PRQuery: usecase.PRQuery{
					Repo:         t.repo,
					Author:       t.author,
					Since:        t.since,
					State:        state,
					MergedOnly:   !allPRs,
					IncludeDraft: includeDraft,
				},
				IncludePatch: includePatch,
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			if err := report.WritePRFilesSummary(cmd.OutOrStdout(), results); err != nil {
				return fmt.Errorf("failed to write summary: %w", err)
			}
			return saveOutput(cmd, log, results)
		},
	}
	addTargetFlags(prFilesCmd)
	prFilesCmd.Flags().String(flagState, domain.StateAll, "Filter PRs by state: open, closed or all")
	prFilesCmd.Flags().Bool("include-patch", false, "Include diff/patch content in output (makes output much larger)")
	prFilesCmd.Flags().Int("limit", 0, "Limit number of PRs to analyze, most recent first (0 for all)")
	prFilesCmd.Flags().Bool("get-draft", false, "Include draft PRs in analysis")
	prFilesCmd.Flags().Bool("all-prs", false, "Include all PRs regardless of merge status")
	return prFilesCmd
}
