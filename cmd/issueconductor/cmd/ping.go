package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the companion service is reachable",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	h, err := a.backend.Ping(ctx)
	if err != nil {
		return fmt.Errorf("companion service at %s unreachable: %w", a.backend.BaseURL(), err)
	}

	automation := "unavailable"
	if h.AutomationAvailable {
		automation = "available"
	}
	fmt.Printf("%s: %s (automation %s)\n", a.backend.BaseURL(), h.Message, automation)
	return nil
}
