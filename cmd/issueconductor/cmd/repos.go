package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/internal/store"
	"github.com/grokify/issueconductor/pkg/model"
)

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Manage tracked repositories",
	Long: `Manage the repositories tracked for a user and the selected repository.

Repositories are stored by the companion service, or in a local database with
--storage local.

Examples:
  issueconductor repos list
  issueconductor repos add octo/hello
  issueconductor repos select octo/hello
  issueconductor repos delete octo/hello`,
}

var reposListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked repositories",
	Args:  cobra.NoArgs,
	RunE:  runReposList,
}

var reposAddCmd = &cobra.Command{
	Use:   "add <owner/repo>",
	Short: "Start tracking a repository",
	Long: `Start tracking a repository. Name, description, and URL are read from
GitHub unless given with flags.`,
	Args: cobra.ExactArgs(1),
	RunE: runReposAdd,
}

var reposDeleteCmd = &cobra.Command{
	Use:     "delete <owner/repo|id>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking a repository",
	Args:    cobra.ExactArgs(1),
	RunE:    runReposDelete,
}

var reposSelectCmd = &cobra.Command{
	Use:   "select <owner/repo>",
	Short: "Select a tracked repository for issue commands",
	Args:  cobra.ExactArgs(1),
	RunE:  runReposSelect,
}

var reposSelectedCmd = &cobra.Command{
	Use:   "selected",
	Short: "Show the selected repository",
	Args:  cobra.NoArgs,
	RunE:  runReposSelected,
}

var reposClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the repository selection",
	Args:  cobra.NoArgs,
	RunE:  runReposClear,
}

func init() {
	rootCmd.AddCommand(reposCmd)
	reposCmd.AddCommand(reposListCmd, reposAddCmd, reposDeleteCmd, reposSelectCmd, reposSelectedCmd, reposClearCmd)

	reposAddCmd.Flags().String("name", "", "Repository name (default: from GitHub)")
	reposAddCmd.Flags().String("description", "", "Repository description (default: from GitHub)")
	reposAddCmd.Flags().String("url", "", "Repository URL (default: from GitHub)")
	reposAddCmd.Flags().Bool("no-lookup", false, "Do not read repository details from GitHub")
	reposAddCmd.Flags().Bool("select", false, "Select the repository after adding it")
	reposAddCmd.Flags().Bool("webhook", false, "Install the issue webhook after adding it")

	reposListCmd.Flags().String("output", "", "Output file (default: stdout)")
	reposSelectCmd.Flags().Bool("show", false, "List the issues of the repository after selecting it")
}

func runReposList(cmd *cobra.Command, args []string) error {
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

	st := rs.State()
	result := model.RepositoryListResult{
		Timestamp:    time.Now(),
		UserID:       a.userID,
		Repositories: st.Repositories,
	}
	if sel, ok := st.Selected.Get(); ok {
		result.Selected = sel.FullName
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	output, err := formatter.FormatRepositoryList(&result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	outputFile, _ := cmd.Flags().GetString("output")
	return writeOutput(output, outputFile)
}

func runReposAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	ref := model.ParseRepoRef(strings.TrimSpace(args[0]))
	if !ref.IsValid() {
		return fmt.Errorf("invalid repository %q (use owner/repo)", args[0])
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	rs, err := a.newRepoStore(ctx)
	if err != nil {
		return err
	}

	in := model.RepositoryInput{
		Name:     ref.Name,
		FullName: ref.FullName(),
		URL:      "https://github.com/" + ref.FullName(),
	}
	// A tracked repository is rejected before GitHub is asked about it.
	if noLookup, _ := cmd.Flags().GetBool("no-lookup"); !noLookup {
		if _, exists := rs.State().Find(in.FullName); !exists {
			a.progress("Looking up %s on GitHub...\n", ref.FullName())
			gh, err := a.github.GetRepository(ctx, ref)
			if err != nil {
				return fmt.Errorf("failed to look up repository: %w", err)
			}
			in = gh.Input()
		}
	}
	if v, _ := cmd.Flags().GetString("name"); v != "" {
		in.Name = v
	}
	if v, _ := cmd.Flags().GetString("description"); v != "" {
		in.Description = v
	}
	if v, _ := cmd.Flags().GetString("url"); v != "" {
		in.URL = v
	}

	repo, err := rs.Add(ctx, in)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyAdded) {
			return fmt.Errorf("%s: %w", in.FullName, err)
		}
		return fmt.Errorf("failed to add repository: %s", rs.State().Error)
	}
	fmt.Printf("Tracking %s (id %s)\n", repo.FullName, repo.ID)

	if sel, _ := cmd.Flags().GetBool("select"); sel {
		if err := persistSetting("selected", repo.FullName); err != nil {
			return err
		}
		fmt.Printf("Selected %s\n", repo.FullName)
	}

	if hook, _ := cmd.Flags().GetBool("webhook"); hook {
		res, err := a.backend.SetupWebhook(ctx, a.userID, repo.Ref())
		if err != nil {
			return fmt.Errorf("failed to set up webhook: %w", err)
		}
		printWebhookSetup(res)
	}
	return nil
}

func runReposDelete(cmd *cobra.Command, args []string) error {
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

	target := strings.TrimSpace(args[0])
	repo, ok := rs.State().Find(target)
	if !ok {
		for _, r := range rs.State().Repositories {
			if r.ID == target {
				repo, ok = r, true
				break
			}
		}
	}
	if !ok {
		return fmt.Errorf("%s: %w", target, store.ErrNotTracked)
	}

	dash := store.NewDashboard(rs, a.newIssueStore(savedFilters()), a.logger)
	if err := dash.Delete(ctx, repo.ID); err != nil {
		return fmt.Errorf("failed to delete repository: %s", rs.State().Error)
	}
	fmt.Printf("Stopped tracking %s\n", repo.FullName)

	if strings.EqualFold(viper.GetString("selected"), repo.FullName) {
		if err := persistSetting("selected", ""); err != nil {
			return err
		}
		fmt.Println("Selection cleared")
	}
	return nil
}

func runReposSelect(cmd *cobra.Command, args []string) error {
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

	name := strings.TrimSpace(args[0])
	if _, ok := rs.State().Find(name); !ok {
		return fmt.Errorf("%s: %w (add it with 'issueconductor repos add')", name, store.ErrNotTracked)
	}

	if show, _ := cmd.Flags().GetBool("show"); show {
		dash := store.NewDashboard(rs, a.newIssueStore(savedFilters()), a.logger)
		if err := dash.Select(ctx, name); err != nil {
			return fmt.Errorf("failed to fetch issues: %s", dash.Issues.State().Error)
		}
		if err := printIssueList(a, dash.Issues.State(), ""); err != nil {
			return err
		}
	} else if _, err := rs.SelectByFullName(name); err != nil {
		return err
	}

	repo, _ := rs.State().Selected.Get()
	if err := persistSetting("selected", repo.FullName); err != nil {
		return err
	}
	fmt.Printf("Selected %s\n", repo.FullName)
	return nil
}

func runReposSelected(cmd *cobra.Command, args []string) error {
	sel := viper.GetString("selected")
	if sel == "" {
		fmt.Println("No repository selected")
		return nil
	}
	fmt.Println(sel)
	return nil
}

func runReposClear(cmd *cobra.Command, args []string) error {
	if err := persistSetting("selected", ""); err != nil {
		return err
	}
	fmt.Println("Selection cleared")
	return nil
}
