package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grokify/issueconductor/pkg/model"
)

var retryCmd = &cobra.Command{
	Use:   "retry <number> [owner/repo]",
	Short: "Retry automation for an issue",
	Long: `Ask the companion service to run automation on an issue again.

On success the issue is reported as pending right away; the service updates
the status as the run progresses.

Examples:
  issueconductor retry 42
  issueconductor retry 42 octo/hello --user-id u1`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRetry,
}

func init() {
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	number, err := parseIssueNumber(args[0])
	if err != nil {
		return err
	}
	ref, err := resolveRepo(args, 1)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	issues := a.newIssueStore(model.DefaultFilterCriteria())
	if err := issues.RetryAutomationFor(ctx, ref, number); err != nil {
		return fmt.Errorf("failed to retry automation: %s", issues.State().Error)
	}

	fmt.Printf("Automation retry requested for %s#%d\n", ref.FullName(), number)
	printAutomationStatus(ref, number, model.PendingAutomationStatus())
	return nil
}
