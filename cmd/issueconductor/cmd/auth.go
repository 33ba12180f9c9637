package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/internal/ghauth"
	"github.com/grokify/issueconductor/pkg/model"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Connect a GitHub account to the companion service",
	Long: `Connect a GitHub account so the companion service can act on a user's
repositories.

Examples:
  # Print the URL to authorize the GitHub app
  issueconductor auth url

  # Complete the flow with the code GitHub redirected back with
  issueconductor auth login --code abc123

  # Check the connection and access to a repository
  issueconductor auth status
  issueconductor auth verify octo/hello`,
}

var authURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the GitHub authorization URL",
	Args:  cobra.NoArgs,
	RunE:  runAuthURL,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a GitHub account is connected",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Complete authorization with the code from GitHub",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogin,
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify [owner/repo]",
	Short: "Verify access to a repository",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthVerify,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authURLCmd, authStatusCmd, authLoginCmd, authVerifyCmd)

	authCmd.PersistentFlags().String("client-id", "", "GitHub OAuth client id (default: ask the companion service)")
	authCmd.PersistentFlags().String("redirect-uri", "", "GitHub OAuth redirect URI")
	_ = viper.BindPFlag("oauth.client-id", authCmd.PersistentFlags().Lookup("client-id"))
	_ = viper.BindPFlag("oauth.redirect-uri", authCmd.PersistentFlags().Lookup("redirect-uri"))

	authLoginCmd.Flags().String("code", "", "Authorization code from the GitHub redirect")
	authLoginCmd.Flags().Bool("exchange", false, "Exchange the code with GitHub directly (needs oauth.client-secret)")
	_ = authLoginCmd.MarkFlagRequired("code")
}

func newOAuthFlow() (*ghauth.Flow, error) {
	return ghauth.New(ghauth.Config{
		ClientID:     viper.GetString("oauth.client-id"),
		ClientSecret: viper.GetString("oauth.client-secret"),
		RedirectURI:  viper.GetString("oauth.redirect-uri"),
	})
}

func runAuthURL(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireUser(); err != nil {
		return err
	}

	if viper.GetString("oauth.client-id") != "" {
		flow, err := newOAuthFlow()
		if err != nil {
			return err
		}
		fmt.Println(flow.AuthorizeURL(a.userID))
		return nil
	}

	u, err := a.backend.AuthURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to get authorization URL: %w", err)
	}
	fmt.Println(u)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.requireUser(); err != nil {
		return err
	}

	status, err := a.backend.AuthStatus(ctx, a.userID)
	if err != nil {
		if a.localDB == nil {
			return fmt.Errorf("failed to get auth status: %w", err)
		}
		// Fall back to the profile stored by an earlier login.
		a.logger.Warn("companion service unavailable", "error", err)
		profile, perr := a.localDB.GetProfile(ctx, a.userID)
		if perr != nil {
			return perr
		}
		if p, ok := profile.Get(); ok {
			fmt.Printf("Connected as %s (stored %s)\n", p.Login, p.UpdatedAt.Format("2006-01-02"))
			return nil
		}
		return fmt.Errorf("failed to get auth status: %w", err)
	}

	if !status.Authenticated || status.User == nil {
		fmt.Println("Not connected")
		if status.AuthURL != "" {
			fmt.Println("Authorize at:", status.AuthURL)
		}
		return nil
	}

	fmt.Printf("Connected as %s\n", status.User.Login)
	return a.saveProfile(ctx, *status.User)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	code, _ := cmd.Flags().GetString("code")

	if exchange, _ := cmd.Flags().GetBool("exchange"); exchange {
		flow, err := newOAuthFlow()
		if err != nil {
			return err
		}
		tok, err := flow.Exchange(ctx, code)
		if err != nil {
			return err
		}
		fmt.Println("Authorization complete. Use this token with --token or GITHUB_TOKEN:")
		fmt.Println(tok.AccessToken)
		return nil
	}

	if err := a.requireUser(); err != nil {
		return err
	}
	res, err := a.backend.CompleteAuth(ctx, code, a.userID)
	if err != nil {
		return fmt.Errorf("failed to complete authorization: %w", err)
	}
	if !res.Success {
		return fmt.Errorf("authorization failed: %s", res.Message)
	}

	fmt.Printf("Connected as %s\n", res.User.Login)
	return a.saveProfile(ctx, res.User)
}

func runAuthVerify(cmd *cobra.Command, args []string) error {
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

	check, err := a.backend.VerifyAccess(ctx, ref, a.userID)
	if err != nil {
		return fmt.Errorf("failed to verify access: %w", err)
	}

	if !check.HasAccess {
		msg := check.Message
		if msg == "" {
			msg = check.Error
		}
		fmt.Printf("No access to %s: %s\n", ref.FullName(), msg)
		if check.AuthURL != "" {
			fmt.Println("Authorize at:", check.AuthURL)
		}
		return nil
	}

	fmt.Printf("Access to %s verified\n", ref.FullName())
	for perm, ok := range check.Permissions {
		if ok {
			fmt.Printf("  %s\n", perm)
		}
	}
	return nil
}

// saveProfile stores the connected account when a local database is in use.
func (a *app) saveProfile(ctx context.Context, u model.User) error {
	if a.localDB == nil {
		return nil
	}
	if _, err := a.localDB.UpsertProfile(ctx, a.userID, u); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}
