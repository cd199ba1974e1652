package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vulture/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			limit = 50
			if v, err := appInstance.Storage.GetSetting(ctx, "history_limit"); err == nil {
				if n, err := strconv.Atoi(v); err == nil && n > 0 {
					limit = n
				}
			}
		}

		sessions, err := appInstance.Storage.ListSessions(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions yet")
			return nil
		}

		fmt.Printf("%-17s %-16s %-9s %s\n", "ENDED", "COUNTRY", "DURATION", "LAST SPEED (UP/DOWN)")
		for _, s := range sessions {
			fmt.Printf("%-17s %-16s %-9s %.0f/%.0f Kbps\n",
				s.EndedAt.Local().Format("2006-01-02 15:04"),
				s.ServerName,
				tui.FormatClock(s.DurationSec),
				s.UploadKbps, s.DownloadKbps,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 0, "number of sessions to show")
	rootCmd.AddCommand(historyCmd)
}
