package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/phantommail/internal/config"
	"github.com/spetersoncode/phantommail/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs from the journal",
	Long: `History lists the most recent runs recorded in the journal
(journal.path, PHANTOMMAIL_JOURNAL_PATH or --journal), newest first.
Use --totals for per-type counts and token usage.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.String("journal", "", "journal SQLite file")
	f.IntP("limit", "n", 20, "number of runs to show")
	f.StringP("type", "t", "", "only runs of this email type")
	f.String("status", "", "only sent or failed runs")
	f.Bool("totals", false, "show per-type totals instead of runs")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("journal")
	if path == "" {
		// Reading the journal needs no sender or credentials, so the
		// configuration is read without validation.
		file, _ := cmd.Flags().GetString("config")
		if err := config.Read(v, file); err != nil {
			return err
		}
		path = v.GetString("journal.path")
	}
	if path == "" {
		return errors.New("no journal configured: set journal.path or pass --journal")
	}

	j, err := journal.Open(path)
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	if totals, _ := cmd.Flags().GetBool("totals"); totals {
		stats, err := j.Totals(ctx)
		if err != nil {
			return err
		}
		printTotals(out, stats)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	category, _ := cmd.Flags().GetString("type")
	status, _ := cmd.Flags().GetString("status")
	entries, err := j.Recent(ctx, journal.Filter{Category: category, Status: status, Limit: limit})
	if err != nil {
		return err
	}
	printEntries(out, entries)
	return nil
}

func printEntries(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTYPE\tSTATUS\tTOKENS\tSUBJECT / ERROR")
	for _, e := range entries {
		detail := e.Subject
		if e.Status == journal.StatusFailed {
			detail = e.Stage + ": " + e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Category, e.Status,
			e.InputTokens+e.OutputTokens, detail)
	}
	tw.Flush()
}

func printTotals(w io.Writer, stats []journal.Stats) {
	if len(stats) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSENT\tFAILED\tINPUT TOKENS\tOUTPUT TOKENS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", s.Category, s.Sent, s.Failed, s.InputTokens, s.OutputTokens)
	}
	tw.Flush()
}
