package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ugaemi/safezone-server/internal/store"
)

var flagRoundsLimit int

var roundsCmd = &cobra.Command{
	Use:   "rounds",
	Short: "Show recently finished rounds",
	Long: `List rounds saved by the configured store, newest first.

Examples:
  STORE=sqlite safezone rounds
  safezone rounds --limit 5`,
	RunE: runRounds,
}

func init() {
	roundsCmd.Flags().IntVar(&flagRoundsLimit, "limit", 20, "Maximum rounds to show")
}

func runRounds(cmd *cobra.Command, _ []string) error {
	results, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer results.Close()

	records, err := results.RecentRounds(cmd.Context(), flagRoundsLimit)
	if err != nil {
		return err
	}
	printRounds(cmd, records)
	return nil
}

func printRounds(cmd *cobra.Command, records []store.RoundRecord) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No rounds recorded yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENDED\tROOM\tMODE\tPLAYERS\tDURATION\tWINNERS")
	for _, rec := range records {
		var winners []string
		for _, t := range rec.Result.Teams {
			if t.Winner {
				winners = append(winners, t.Name)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
			rec.Result.EndedAt.Local().Format(time.DateTime),
			rec.RoomCode,
			rec.Result.Mode.String(),
			rec.Result.Players,
			rec.Result.Duration.Round(time.Second),
			strings.Join(winners, ", "),
		)
	}
	w.Flush()
}
