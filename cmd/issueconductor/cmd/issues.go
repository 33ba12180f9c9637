package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/internal/preset"
	"github.com/grokify/issueconductor/internal/store"
	"github.com/grokify/issueconductor/pkg/model"
)

var issuesCmd = &cobra.Command{
	Use:   "issues [owner/repo]",
	Short: "List the issues of a repository with their automation status",
	Long: `List the issues of a repository, newest first by default, together with
the automation status reported by the companion service.

Filters are applied by GitHub. Flags that are not given keep the value saved
in the config file (see --save). The search text filters the fetched issues
locally by title, body, number, and label.

Without a repository argument the selected repository is used.

Examples:
  # Open issues of the selected repository
  issueconductor issues --state open

  # Bugs assigned to a user, least recently updated first
  issueconductor issues octo/hello --label bug --assignee alice --sort updated --direction asc

  # Apply a preset and remember the resulting filters
  issueconductor issues --preset most-discussed --save

  # Search within the fetched issues
  issueconductor issues --search "crash"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIssues,
}

func init() {
	rootCmd.AddCommand(issuesCmd)

	issuesCmd.Flags().String("state", "", "Issue state: all, open, closed")
	issuesCmd.Flags().String("assignee", "", "Assignee login (empty for any)")
	issuesCmd.Flags().String("label", "", "Label name (empty for any)")
	issuesCmd.Flags().String("sort", "", "Sort field: created, updated, comments")
	issuesCmd.Flags().String("direction", "", "Sort direction: asc, desc")
	issuesCmd.Flags().String("search", "", "Free-text search over the fetched issues")
	issuesCmd.Flags().String("preset", "", "Apply a named filter preset first")
	issuesCmd.Flags().Bool("reset", false, "Start from the default filters")
	issuesCmd.Flags().Bool("save", false, "Save the resulting filters to the config file")
	issuesCmd.Flags().String("output", "", "Output file (default: stdout)")
}

func runIssues(cmd *cobra.Command, args []string) error {
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

	criteria := savedFilters()
	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		criteria = model.DefaultFilterCriteria()
	}
	issues := a.newIssueStore(criteria)

	var search mo.Option[string]
	if name, _ := cmd.Flags().GetString("preset"); name != "" {
		p, err := findPreset(name)
		if err != nil {
			return err
		}
		issues.SetFilters(p.ToUpdate())
		if q, ok := p.SearchText(); ok {
			search = mo.Some(q)
		}
	}

	update, err := filterUpdateFromFlags(cmd)
	if err != nil {
		return err
	}
	criteria = issues.SetFilters(update)

	if cmd.Flags().Changed("search") {
		q, _ := cmd.Flags().GetString("search")
		search = mo.Some(q)
	}
	if q, ok := search.Get(); ok {
		issues.SetSearch(q)
	}

	a.progress("Fetching issues for %s (state=%s sort=%s %s)...\n",
		ref.FullName(), criteria.State, criteria.Sort, criteria.Direction)

	if err := issues.Fetch(ctx, ref); err != nil {
		return fmt.Errorf("failed to fetch issues: %s", issues.State().Error)
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if err := persistSetting("filters", map[string]string{
			"state":     string(criteria.State),
			"assignee":  criteria.Assignee,
			"label":     criteria.Label,
			"sort":      string(criteria.Sort),
			"direction": string(criteria.Direction),
		}); err != nil {
			return err
		}
	}

	outputFile, _ := cmd.Flags().GetString("output")
	return printIssueList(a, issues.State(), outputFile)
}

// printIssueList formats the visible issues of st.
func printIssueList(a *app, st store.IssueState, outputFile string) error {
	a.progress("%s\n", describeFetch(st))
	visible := st.Visible()
	result := model.IssueListResult{
		Timestamp: time.Now(),
		Repo:      st.Repo,
		Filters:   st.Filters,
		Search:    st.Search,
		Fetched:   len(st.Issues),
		Shown:     len(visible),
		Issues:    visible,
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	output, err := formatter.FormatIssueList(&result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return writeOutput(output, outputFile)
}

// savedFilters returns the filters saved in the config file over the defaults.
func savedFilters() model.FilterCriteria {
	c := model.DefaultFilterCriteria()
	if v := viper.GetString("filters.state"); v != "" {
		c.State = model.StateFilter(v)
	}
	c.Assignee = viper.GetString("filters.assignee")
	c.Label = viper.GetString("filters.label")
	if v := viper.GetString("filters.sort"); v != "" {
		c.Sort = model.SortField(v)
	}
	if v := viper.GetString("filters.direction"); v != "" {
		c.Direction = model.SortDirection(v)
	}
	return c
}

// filterUpdateFromFlags builds a partial update from the filter flags that
// were given on the command line.
func filterUpdateFromFlags(cmd *cobra.Command) (model.FilterUpdate, error) {
	var u model.FilterUpdate
	flags := cmd.Flags()

	if flags.Changed("state") {
		v, _ := flags.GetString("state")
		s := model.StateFilter(v)
		switch s {
		case model.StateFilterAll, model.StateFilterOpen, model.StateFilterClosed:
		default:
			return u, fmt.Errorf("invalid --state %q (use all, open, closed)", v)
		}
		u.State = mo.Some(s)
	}
	if flags.Changed("assignee") {
		v, _ := flags.GetString("assignee")
		u.Assignee = mo.Some(v)
	}
	if flags.Changed("label") {
		v, _ := flags.GetString("label")
		u.Label = mo.Some(v)
	}
	if flags.Changed("sort") {
		v, _ := flags.GetString("sort")
		s := model.SortField(v)
		switch s {
		case model.SortCreated, model.SortUpdated, model.SortComments:
		default:
			return u, fmt.Errorf("invalid --sort %q (use created, updated, comments)", v)
		}
		u.Sort = mo.Some(s)
	}
	if flags.Changed("direction") {
		v, _ := flags.GetString("direction")
		d := model.SortDirection(v)
		if d != model.SortAsc && d != model.SortDesc {
			return u, fmt.Errorf("invalid --direction %q (use asc, desc)", v)
		}
		u.Direction = mo.Some(d)
	}
	return u, nil
}

// presetSet returns the built-in presets plus those in the presets file.
func presetSet() (*preset.Set, error) {
	path := viper.GetString("presets-file")
	if path == "" {
		return preset.NewSet(), nil
	}
	extra, err := preset.LoadFromFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return preset.NewSet(), nil
		}
		return nil, err
	}
	return preset.NewSet(extra...), nil
}

func findPreset(name string) (preset.Preset, error) {
	set, err := presetSet()
	if err != nil {
		return preset.Preset{}, err
	}
	p, ok := set.Get(name)
	if !ok {
		return preset.Preset{}, fmt.Errorf("unknown preset %q (see 'issueconductor presets')", name)
	}
	return p, nil
}

// describeFetch summarizes an issue store state for progress output.
func describeFetch(st store.IssueState) string {
	return fmt.Sprintf("%s: %d issues (%s)", st.Repo.FullName(), len(st.Issues), st.Status)
}
