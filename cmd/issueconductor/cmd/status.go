package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/pkg/model"
)

var statusCmd = &cobra.Command{
	Use:   "status <number> [owner/repo]",
	Short: "Show the automation status of an issue",
	Long: `Show the automation status the companion service reports for one issue.

Examples:
  issueconductor status 42
  issueconductor status 42 octo/hello --format json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	status, err := a.backend.AutomationStatus(ctx, ref, number)
	if err != nil {
		return fmt.Errorf("failed to get automation status: %w", err)
	}

	if viper.GetString("format") == "json" {
		data, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	st, ok := status.Get()
	if !ok {
		fmt.Printf("%s#%d: no automation status\n", ref.FullName(), number)
		return nil
	}
	printAutomationStatus(ref, number, st)
	return nil
}

func printAutomationStatus(ref model.RepoRef, number int, st model.AutomationStatus) {
	fmt.Printf("%s#%d: %s\n", ref.FullName(), number, st.Status)
	if st.TaskID != "" {
		fmt.Printf("  Task:      %s\n", st.TaskID)
	}
	if st.StartedAt != nil {
		fmt.Printf("  Started:   %s\n", st.StartedAt.Format(time.RFC3339))
	}
	if st.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", st.CompletedAt.Format(time.RFC3339))
	}
	if st.ErrorMessage != "" {
		fmt.Printf("  Error:     %s\n", st.ErrorMessage)
	}
}
