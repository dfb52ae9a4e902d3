// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/naka-gawa/repo-stats/internal/config"
	"github.com/naka-gawa/repo-stats/internal/domain"
	"github.com/naka-gawa/repo-stats/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// VersionInfo is injected from main at build time.
type VersionInfo struct {
	Version   string
	BuildDate string
	GitCommit string
}

// NewRootCmd builds the command tree. Each call gets its own viper instance,
// so commands can be constructed repeatedly in tests.
func NewRootCmd(versionInfo VersionInfo) *cobra.Command {
	return newRootCmd(versionInfo, viper.New())
}

func newRootCmd(versionInfo VersionInfo, v *viper.Viper) *cobra.Command {
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:   "repo-stats",
		Short: "A CLI tool to aggregate a GitHub author's contributions to one repository.",
		Long: `repo-stats aggregates a single author's line-change statistics across
commits in one GitHub repository since a start date, and reports the
author's pull requests and the files they changed.

Without a token you are limited to 60 requests per hour and cannot read
private repositories. Pass --token or set GITHUB_TOKEN.`,
		Version:       fmt.Sprintf("%s (built %s, commit %s)", versionInfo.Version, versionInfo.BuildDate, versionInfo.GitCommit),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.ReadFile(v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(config.KeyToken, "", "GitHub personal access token (or set "+config.TokenEnvVar+")")
	flags.Duration(config.KeyTimeout, config.DefaultTimeout, "Timeout for each HTTP request")
	flags.Int(config.KeyConcurrency, config.DefaultConcurrency, "Maximum number of detail requests in flight")
	flags.String(config.KeyBaseURL, "", "GitHub Enterprise API base URL, e.g. https://ghe.example.com/api/v3/")
	flags.Duration(config.KeyRateLimitWait, 0, "Sleep up to this long when GitHub asks to back off from a secondary rate limit (0 disables)")
	flags.String(config.KeyConfigFile, "", "Config file (default .repo-stats.yaml in . or $HOME)")
	flags.BoolP(config.KeyVerbose, "v", false, "Enable verbose/debug logging")
	flags.Bool(config.KeyNoColor, false, "Disable coloured output")
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(
		newLocCmd(v),
		newPRsCmd(v),
		newPRFilesCmd(v),
	)
	return rootCmd
}

// Execute runs the command tree and exits non-zero on any error.
// This is called by main.main(). It only needs to happen once.
func Execute(ctx context.Context, versionInfo VersionInfo) {
	v := viper.New()
	rootCmd := newRootCmd(versionInfo, v)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log := logger.New(false, !v.GetBool(config.KeyNoColor))
		log.Errorf("%v", err)
		for _, hint := range errorGuidance(err, config.HasToken(v)) {
			log.Warnf("%s", hint)
		}
		os.Exit(1)
	}
}

// errorGuidance returns hints for the error kinds users can act on.
// Token advice is only given when no token was configured.
func errorGuidance(err error, authenticated bool) []string {
	var rateErr *domain.RateLimitError
	var notFound *domain.NotFoundError
	var dateErr *domain.InvalidDateError
	switch {
	case errors.As(err, &rateErr):
		if authenticated {
			return []string{"Wait for the rate limit to reset, or retry with --rate-limit-wait to back off automatically."}
		}
		return []string{
			fmt.Sprintf("Try using a GitHub Personal Access Token with --token or the %s environment variable.", config.TokenEnvVar),
			"Get one at: https://github.com/settings/tokens",
		}
	case errors.As(err, &notFound):
		return []string{"Check the owner and repository names; private repositories need a token with the 'repo' scope."}
	case errors.As(err, &dateErr):
		return []string{fmt.Sprintf("Example: --start-date %s", config.DefaultStartDate)}
	}
	return nil
}
