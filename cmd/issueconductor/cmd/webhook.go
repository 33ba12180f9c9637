package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grokify/issueconductor/internal/backend"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage the issue webhook on a repository",
	Long: `Install or inspect the webhook that lets the companion service start
automation when issues change.

Examples:
  issueconductor webhook setup octo/hello
  issueconductor webhook status`,
}

var webhookSetupCmd = &cobra.Command{
	Use:   "setup [owner/repo]",
	Short: "Install the issue webhook",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWebhookSetup,
}

var webhookStatusCmd = &cobra.Command{
	Use:   "status [owner/repo]",
	Short: "Show the issue webhook",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWebhookStatus,
}

func init() {
	rootCmd.AddCommand(webhookCmd)
	webhookCmd.AddCommand(webhookSetupCmd, webhookStatusCmd)
}

func runWebhookSetup(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ref, err := resolveRepo(args, 0)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireUser(); err != nil {
		return err
	}

	res, err := a.backend.SetupWebhook(ctx, a.userID, ref)
	if err != nil {
		return fmt.Errorf("failed to set up webhook: %w", err)
	}
	printWebhookSetup(res)
	if !res.Success {
		return fmt.Errorf("webhook setup failed for %s", ref.FullName())
	}
	return nil
}

func printWebhookSetup(res *backend.WebhookSetup) {
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = res.Error
		}
		fmt.Println("Webhook not installed:", msg)
		return
	}
	fmt.Printf("Webhook %d installed\n", res.WebhookID)
	if res.WebhookURL != "" {
		fmt.Println("  URL:   ", res.WebhookURL)
	}
	if len(res.Events) > 0 {
		fmt.Println("  Events:", strings.Join(res.Events, ", "))
	}
}

func runWebhookStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ref, err := resolveRepo(args, 0)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireUser(); err != nil {
		return err
	}

	st, err := a.backend.WebhookStatus(ctx, a.userID, ref)
	if err != nil {
		return fmt.Errorf("failed to get webhook status: %w", err)
	}

	if !st.Configured {
		fmt.Printf("No webhook configured on %s\n", ref.FullName())
		return nil
	}
	active := "inactive"
	if st.Active {
		active = "active"
	}
	fmt.Printf("Webhook %d on %s (%s)\n", st.WebhookID, ref.FullName(), active)
	if st.WebhookURL != "" {
		fmt.Println("  URL:   ", st.WebhookURL)
	}
	if len(st.Events) > 0 {
		fmt.Println("  Events:", strings.Join(st.Events, ", "))
	}
	if len(st.LastResponse) > 0 && string(st.LastResponse) != "null" {
		fmt.Println("  Last response:", string(st.LastResponse))
	}
	return nil
}
