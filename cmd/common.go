package cmd

import (
	"fmt"
	"time"

	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/gateway"
	"github.com/naka-gawa/repo-stats/internal/logger"
	"github.com/naka-gawa/repo-stats/internal/report"
	"github.com/naka-gawa/repo-stats/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	flagStartDate = "start-date"
	flagOutput    = "output"
	flagState     = "state"
)

// target is the parsed positional arguments and --start-date shared by every subcommand.
type target struct {
	repo   domain.RepoRef
	author string
	since  time.Time
}

// parseTarget validates the positional arguments and the start date.
// It runs before any client is built, so bad input never reaches the network.
func parseTarget(cmd *cobra.Command, args []string) (target, error) {
	startDate, _ := cmd.Flags().GetString(flagStartDate)
	since, err := config.ParseStartDate(startDate)
	if err != nil {
		return target{}, err
	}
	return target{
		repo:   domain.RepoRef{Owner: args[0], Name: args[1]},
		author: args[2],
		since:  since,
	}, nil
}

// newAggregator resolves the configuration and injects the gateway into the use case.
func newAggregator(v *viper.Viper) (*usecase.Aggregator, *logger.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg.Verbose, !cfg.NoColor)
	if !cfg.Authenticated() {
		log.Warnf("No GitHub Personal Access Token provided! You'll be limited to 60 requests/hour and cannot access private repos.")
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return usecase.NewAggregator(githubGateway, log, cfg.Concurrency), log, nil
}

// saveOutput writes the full report to the --output path, if one was given.
func saveOutput(cmd *cobra.Command, log *logger.Logger, v any) error {
	path, _ := cmd.Flags().GetString(flagOutput)
	if path == "" {
		return nil
	}
	if err := report.SaveJSON(path, v); err != nil {
		return err
	}
	log.Successf("\nDetailed results saved to: %s", path)
	return nil
}

// addTargetFlags registers the flags shared by every subcommand.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagStartDate, config.DefaultStartDate, "Start date in YYYY-MM-DD format")
	cmd.Flags().StringP(flagOutput, "o", "", "Output file path to save results as JSON")
}
