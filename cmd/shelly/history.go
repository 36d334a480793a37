package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ValGrace/shelly/internal/storage"
)

var historyFlags struct {
	limit      int
	since      string
	search     string
	failed     bool
	json       bool
	prune      bool
	maxAge     string
	maxEntries int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show commands run through shelly",
	Long: `List the commands shelly has run and the text it has explained, oldest
first. Use --prune to drop old entries instead of listing them.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 50, "Show at most this many of the latest entries (0 for all)")
	historyCmd.Flags().StringVar(&historyFlags.since, "since", "", "Show entries since a duration ago (e.g., '2h', '7d')")
	historyCmd.Flags().StringVarP(&historyFlags.search, "search", "s", "", "Show entries containing this text")
	historyCmd.Flags().BoolVar(&historyFlags.failed, "failed", false, "Show failed commands only")
	historyCmd.Flags().BoolVar(&historyFlags.json, "json", false, "Print entries as JSON")
	historyCmd.Flags().BoolVar(&historyFlags.prune, "prune", false, "Delete entries outside the retention limits")
	historyCmd.Flags().StringVar(&historyFlags.maxAge, "max-age", "", "With --prune, drop entries older than this (e.g., '90d')")
	historyCmd.Flags().IntVar(&historyFlags.maxEntries, "max-entries", 0, "With --prune, keep only this many of the newest entries")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyFlags.prune {
		return pruneHistory(cmd)
	}

	filter := storage.Filter{
		Pattern:    historyFlags.search,
		FailedOnly: historyFlags.failed,
		Limit:      historyFlags.limit,
	}
	if historyFlags.since != "" {
		d, err := parseDuration(historyFlags.since)
		if err != nil {
			return err
		}
		filter.Since = time.Now().Add(-d)
	}

	entries, err := globalApp.History(filter)
	if err != nil {
		return err
	}

	if historyFlags.json {
		return globalApp.Printer().EntriesJSON(entries)
	}
	globalApp.Printer().Entries(entries)
	return nil
}

func pruneHistory(cmd *cobra.Command) error {
	policy := storage.RetentionPolicy{MaxEntries: historyFlags.maxEntries}
	if historyFlags.maxAge != "" {
		d, err := parseDuration(historyFlags.maxAge)
		if err != nil {
			return err
		}
		policy.MaxAge = d
	}
	if policy.MaxAge == 0 && policy.MaxEntries == 0 {
		policy = storage.DefaultRetentionPolicy()
	}

	removed, err := globalApp.Prune(policy)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", removed)
	return nil
}
