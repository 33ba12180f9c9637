package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grokify/issueconductor/internal/fetcher"
	"github.com/grokify/issueconductor/pkg/model"
)

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Summarize automation status across tracked repositories",
	Long: `Fetch the issues of every tracked repository and count them by
automation state. Repositories are fetched concurrently.

Examples:
  issueconductor overview
  issueconductor overview --state open --workers 8 --format markdown`,
	Args: cobra.NoArgs,
	RunE: runOverview,
}

func init() {
	rootCmd.AddCommand(overviewCmd)

	overviewCmd.Flags().String("state", "", "Issue state: all, open, closed")
	overviewCmd.Flags().String("assignee", "", "Assignee login (empty for any)")
	overviewCmd.Flags().String("label", "", "Label name (empty for any)")
	overviewCmd.Flags().String("sort", "", "Sort field: created, updated, comments")
	overviewCmd.Flags().String("direction", "", "Sort direction: asc, desc")
	overviewCmd.Flags().Int("workers", fetcher.DefaultOverviewWorkers, "Repositories fetched in parallel")
	overviewCmd.Flags().String("output", "", "Output file (default: stdout)")
}

func runOverview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rs, err := a.newRepoStore(ctx)
	if err != nil {
		return err
	}

	update, err := filterUpdateFromFlags(cmd)
	if err != nil {
		return err
	}
	criteria := savedFilters().Apply(update)

	repos := rs.State().Repositories
	refs := make([]model.RepoRef, 0, len(repos))
	for _, r := range repos {
		refs = append(refs, r.Ref())
	}

	workers, _ := cmd.Flags().GetInt("workers")
	a.progress("Fetching issues for %d repositories with %d workers...\n", len(refs), workers)

	result := a.newFetcher().Overview(ctx, refs, criteria, workers)

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	output, err := formatter.FormatOverview(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	outputFile, _ := cmd.Flags().GetString("output")
	return writeOutput(output, outputFile)
}
