package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grokify/issueconductor/pkg/model"
)

var commentsCmd = &cobra.Command{
	Use:   "comments <number> [owner/repo]",
	Short: "Show the comments of an issue",
	Long: `Show the comments of an issue, oldest first.

Examples:
  issueconductor comments 42
  issueconductor comments 42 octo/hello --format markdown`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runComments,
}

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.Flags().String("output", "", "Output file (default: stdout)")
}

func runComments(cmd *cobra.Command, args []string) error {
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

	comments, err := a.github.ListComments(ctx, ref, number)
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	output, err := formatter.FormatComments(&model.CommentListResult{
		Repo:     ref,
		Number:   number,
		Comments: comments,
	})
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	outputFile, _ := cmd.Flags().GetString("output")
	return writeOutput(output, outputFile)
}
