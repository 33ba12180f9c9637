package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the GitHub listing cache",
	Long: `Manage the cache of GitHub repository listings used by browse.

The cache directory and TTL are set with cache.dir and cache.ttl in the config.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove expired cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCachePrune,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd, cachePruneCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	c, err := newCache()
	if err != nil {
		return err
	}
	stats := c.Stats(context.Background())

	fmt.Printf("Directory:      %s\n", stats.Dir)
	fmt.Printf("Memory entries: %d\n", stats.MemoryEntries)
	fmt.Printf("File entries:   %d\n", stats.FileEntries)
	fmt.Printf("Total size:     %d KB\n", stats.TotalSizeKB)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	c, err := newCache()
	if err != nil {
		return err
	}
	if err := c.Clear(context.Background()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Println("Cache cleared")
	return nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	c, err := newCache()
	if err != nil {
		return err
	}
	n, err := c.Prune(context.Background())
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	fmt.Printf("Removed %d expired entries\n", n)
	return nil
}
