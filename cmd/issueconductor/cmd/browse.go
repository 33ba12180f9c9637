package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/grokify/issueconductor/pkg/model"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse your GitHub repositories",
	Long: `List the GitHub repositories you own, collaborate on, or can access
through an organization, most recently updated first.

Pages are cached for the configured cache TTL; --refresh fetches the page
again.

Examples:
  issueconductor browse
  issueconductor browse --page 2 --per-page 50`,
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)

	browseCmd.Flags().Int("page", 1, "Page number")
	browseCmd.Flags().Int("per-page", 30, "Repositories per page (max 100)")
	browseCmd.Flags().Bool("refresh", false, "Ignore the cached page")
	browseCmd.Flags().String("output", "", "Output file (default: stdout)")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireToken(); err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	perPage, _ := cmd.Flags().GetInt("per-page")
	refresh, _ := cmd.Flags().GetBool("refresh")
	opts := model.RepoListOptions{Page: page, PerPage: perPage, Refresh: refresh}

	a.progress("Listing GitHub repositories (page %d)...\n", page)
	repos, err := a.github.ListUserRepos(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to list repositories: %w", err)
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	output, err := formatter.FormatGitHubRepos(&model.GitHubRepoListResult{
		Timestamp: time.Now(),
		Page:      max(page, 1),
		PerPage:   perPage,
		Repos:     repos,
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	outputFile, _ := cmd.Flags().GetString("output")
	return writeOutput(output, outputFile)
}
