package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/grokify/issueconductor/internal/backend"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "issueconductor",
	Short: "Track GitHub issues and their automation status",
	Long: `IssueConductor is a CLI tool for tracking GitHub repositories, browsing
their issues, and following the automation runs a companion service performs
on each issue.

Features:
  - Track repositories per user, backed by the companion service or a local database
  - List issues with server-side filters and free-text search
  - Show and retry the automation status of individual issues
  - Summarize automation state across all tracked repositories`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.issueconductor.yaml)")
	rootCmd.PersistentFlags().String("token", "", "GitHub token (or set GITHUB_TOKEN env var)")
	rootCmd.PersistentFlags().String("backend-url", backend.DefaultBaseURL, "Companion service base URL")
	rootCmd.PersistentFlags().String("user-id", "", "User on whose behalf repositories are tracked")
	rootCmd.PersistentFlags().String("storage", storageBackend, "Repository storage: backend, local")
	rootCmd.PersistentFlags().String("format", "table", "Output format: table, json, markdown, csv")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Timeout for companion service requests")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("backend-url", rootCmd.PersistentFlags().Lookup("backend-url"))
	_ = viper.BindPFlag("user-id", rootCmd.PersistentFlags().Lookup("user-id"))
	_ = viper.BindPFlag("storage", rootCmd.PersistentFlags().Lookup("storage"))
	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	viper.SetDefault("automation", true)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("cache.ttl", time.Hour)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: could not load .env file:", err)
	}

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".issueconductor" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".issueconductor")
	}

	// Environment variables
	viper.SetEnvPrefix("ISSUECONDUCTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// Also check GITHUB_TOKEN directly
	if viper.GetString("token") == "" {
		if token := os.Getenv("GITHUB_TOKEN"); token != "" {
			viper.Set("token", token)
		}
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// setupLogger installs the default structured logger on stderr.
func setupLogger() {
	level := slog.LevelWarn
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// configPath returns the file settings are written back to.
func configPath() (string, error) {
	if used := viper.ConfigFileUsed(); used != "" {
		return used, nil
	}
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".issueconductor.yaml"), nil
}

// persistSetting writes a single key to the config file, leaving any other
// keys in the file untouched. Values from flags and the environment are not
// written.
func persistSetting(key string, value any) error {
	path, err := configPath()
	if err != nil {
		return fmt.Errorf("failed to locate config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.Set(key, value)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	viper.Set(key, value)
	return nil
}
