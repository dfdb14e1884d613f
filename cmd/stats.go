package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/dustin/go-humanize"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Display the dashboard counters, the database size and the most recent admin actions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close() //nolint: errcheck

		now := time.Now()
		metrics, err := db.GetDashboardMetrics(cmd.Context(), now)
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Database File: %s\n", db.Path())
		if info, err := os.Stat(db.Path()); err == nil {
			size, _ := safecast.Convert[uint64](info.Size())
			fmt.Printf("Database Size: %s\n", humanize.Bytes(size))
		}
		fmt.Printf("Users: %s\n", humanize.Comma(metrics.TotalUsers))
		fmt.Printf("Events: %s (%s upcoming)\n", humanize.Comma(metrics.TotalEvents), humanize.Comma(metrics.UpcomingEvents))
		fmt.Printf("Attendees: %s\n", humanize.Comma(metrics.TotalAttendees))
		fmt.Printf("Pending Reports: %s\n", humanize.Comma(metrics.PendingReports))

		logs, _, err := db.ListAuditLogs(cmd.Context(), database.Pagination{Page: 1, Limit: 5})
		if err == nil && len(logs) > 0 {
			fmt.Println("\nRecent Admin Actions:")
			for _, entry := range logs {
				actor := fmt.Sprintf("user %d", entry.UserID)
				if entry.User != nil {
					actor = entry.User.Name
				}
				fmt.Printf("  %s: %s on %s %s by %s\n",
					timediff.TimeDiff(entry.CreatedAt, timediff.WithStartTime(now)),
					entry.ActionType, entry.TargetType, entry.TargetID, actor)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
