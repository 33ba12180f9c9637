package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/internal/backend"
	"github.com/grokify/issueconductor/internal/cache"
	"github.com/grokify/issueconductor/internal/collector"
	"github.com/grokify/issueconductor/internal/fetcher"
	"github.com/grokify/issueconductor/internal/localdb"
	"github.com/grokify/issueconductor/internal/report"
	"github.com/grokify/issueconductor/internal/store"
	"github.com/grokify/issueconductor/pkg/model"
)

const (
	storageBackend = "backend"
	storageLocal   = "local"

	// localUserID owns repositories in local storage when no user is configured.
	localUserID = "local"

	defaultDatabaseFile = ".issueconductor.db"
)

// app holds the clients shared by the commands.
type app struct {
	logger   *slog.Logger
	token    string
	backend  *backend.Client
	github   collector.Collector
	localDB  *localdb.DB
	repoSvc  store.RepositoryService
	userID   string
	verbose  bool
	closeFns []func() error
}

// newApp builds the clients described by the configuration. The caller must
// call close.
func newApp(ctx context.Context) (*app, error) {
	a := &app{
		logger:  slog.Default(),
		token:   viper.GetString("token"),
		userID:  viper.GetString("user-id"),
		verbose: viper.GetBool("verbose"),
	}

	bc, err := backend.New(viper.GetString("backend-url"), backend.WithTimeout(viper.GetDuration("timeout")))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	a.backend = bc

	var opts []collector.Option
	if c, err := newCache(); err == nil {
		opts = append(opts, collector.WithCache(c))
	} else {
		a.logger.Warn("cache disabled", "error", err)
	}
	a.github = collector.NewGitHub(a.token, opts...)

	switch storage := viper.GetString("storage"); storage {
	case "", storageBackend:
		a.repoSvc = a.backend
	case storageLocal:
		cfg, err := databaseConfig()
		if err != nil {
			return nil, err
		}
		db, err := localdb.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open local database: %w", err)
		}
		a.localDB = db
		a.repoSvc = db
		a.closeFns = append(a.closeFns, db.Close)
		if a.userID == "" {
			a.userID = localUserID
		}
	default:
		return nil, fmt.Errorf("unsupported storage %q (use backend or local)", storage)
	}

	return a, nil
}

// databaseConfig returns the local database settings. SQLite defaults to a
// file in the home directory so tracked repositories outlive the process.
func databaseConfig() (localdb.Config, error) {
	cfg := localdb.Config{
		Driver: viper.GetString("database.driver"),
		DSN:    viper.GetString("database.dsn"),
	}
	if cfg.DSN != "" || (cfg.Driver != "" && cfg.Driver != localdb.DriverSQLite) {
		return cfg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("failed to locate home directory for the local database (set database.dsn): %w", err)
	}
	cfg.DSN = filepath.Join(home, defaultDatabaseFile)
	return cfg, nil
}

func (a *app) close() {
	for _, fn := range a.closeFns {
		if err := fn(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func newCache() (*cache.Cache, error) {
	return cache.New(cache.Config{
		Dir: viper.GetString("cache.dir"),
		TTL: viper.GetDuration("cache.ttl"),
	})
}

func (a *app) requireToken() error {
	if a.token == "" {
		return fmt.Errorf("GitHub token required. Set GITHUB_TOKEN or use --token flag")
	}
	return nil
}

func (a *app) requireUser() error {
	if a.userID == "" {
		return fmt.Errorf("user id required. Set ISSUECONDUCTOR_USER_ID or use --user-id flag")
	}
	return nil
}

// newFetcher returns the issue fetcher. Automation statuses come from the
// companion service unless automation is disabled.
func (a *app) newFetcher() *fetcher.Fetcher {
	if !viper.GetBool("automation") {
		return fetcher.New(a.github, nil, a.logger)
	}
	return fetcher.New(a.github, a.backend, a.logger)
}

// newIssueStore returns an issue store whose transitions are logged at Debug.
func (a *app) newIssueStore(criteria model.FilterCriteria) *store.IssueStore {
	s := store.NewIssueStore(a.newFetcher(), a.backend,
		store.WithUserID(a.userID),
		store.WithLogger(a.logger),
		store.WithInitialFilters(criteria),
	)
	s.Subscribe(func(st store.IssueState) {
		a.logger.Debug("issue store",
			"repo", st.Repo.FullName(),
			"status", st.Status,
			"issues", len(st.Issues),
			"seq", st.RequestSeq,
		)
	})
	return s
}

// newRepoStore returns a repository store loaded with the user's repositories
// and with the persisted selection applied.
func (a *app) newRepoStore(ctx context.Context) (*store.RepoStore, error) {
	if err := a.requireUser(); err != nil {
		return nil, err
	}
	rs := store.NewRepoStore(a.repoSvc, a.userID, a.logger)
	rs.Subscribe(func(st store.RepoState) {
		a.logger.Debug("repo store", "status", st.Status, "repositories", len(st.Repositories))
	})
	if err := rs.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load repositories: %w", err)
	}
	if sel := viper.GetString("selected"); sel != "" {
		if _, err := rs.SelectByFullName(sel); err != nil {
			a.logger.Warn("selected repository is no longer tracked", "repo", sel)
		}
	}
	return rs, nil
}

func (a *app) progress(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// resolveRepo returns the repository named by args[idx], falling back to the
// selected repository.
func resolveRepo(args []string, idx int) (model.RepoRef, error) {
	name := viper.GetString("selected")
	if len(args) > idx {
		name = args[idx]
	}
	if name == "" {
		return model.RepoRef{}, fmt.Errorf("no repository given and none selected (use 'issueconductor repos select owner/repo')")
	}
	ref := model.ParseRepoRef(name)
	if !ref.IsValid() {
		return model.RepoRef{}, fmt.Errorf("invalid repository %q (use owner/repo)", name)
	}
	return ref, nil
}

func parseIssueNumber(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue number %q", s)
	}
	return n, nil
}

func newFormatter() (report.Formatter, error) {
	return report.New(viper.GetString("format"))
}

// writeOutput writes output to path, or stdout when path is empty.
func writeOutput(output, path string) error {
	if path != "" {
		if err := os.WriteFile(path, []byte(output), 0600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", path)
		return nil
	}
	fmt.Println(output)
	return nil
}
