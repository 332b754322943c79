package cmd

import (
	"fmt"
	"time"

	"github.com/rustyeddy/trendbot/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade journal",
	Long: `Query the SQLite trade journal.

Examples:
  trendbot journal --db ./trendbot.sqlite today
  trendbot journal --db ./trendbot.sqlite day 2026-08-24
  trendbot journal --db ./trendbot.sqlite trade 01J9XQ...`,
	RunE: runJournal,
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVar(&journalDBPath, "db", "./trendbot.sqlite", "path to SQLite journal DB")
}

func runJournal(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("journal requires a subcommand: today, day, trade")
	}

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	loc := time.Local

	switch args[0] {
	case "trade":
		if len(args) != 2 {
			return fmt.Errorf("journal trade requires a record id")
		}
		rec, err := j.GetTrade(args[1])
		if err != nil {
			return err
		}
		fmt.Println(journal.FormatTrade(rec))
		return nil

	case "today":
		start, end, err := dayBounds(loc, time.Now().In(loc).Format("2006-01-02"))
		if err != nil {
			return err
		}
		return listTrades(j, start, end)

	case "day":
		if len(args) != 2 {
			return fmt.Errorf("journal day requires YYYY-MM-DD")
		}
		start, end, err := dayBounds(loc, args[1])
		if err != nil {
			return err
		}
		return listTrades(j, start, end)

	default:
		return fmt.Errorf("unknown journal command: %s", args[0])
	}
}

func listTrades(j *journal.SQLiteJournal, start, end time.Time) error {
	recs, err := j.ListTradesBetween(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}
	fmt.Println(journal.FormatTrades(recs))
	return nil
}

func dayBounds(loc *time.Location, day string) (time.Time, time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", day, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.Add(24 * time.Hour), nil
}
