package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Mr-Amresh/meeting-scheduler/internal/database"
	"github.com/Mr-Amresh/meeting-scheduler/internal/ics"
	"github.com/Mr-Amresh/meeting-scheduler/internal/store"
)

var (
	meetingsLimit int
	exportOut     string
)

func init() {
	meetingsListCmd.Flags().IntVarP(&meetingsLimit, "limit", "n", 50, "maximum meetings to show")
	meetingsExportCmd.Flags().IntVarP(&meetingsLimit, "limit", "n", 500, "maximum meetings to export")
	meetingsExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")

	meetingsCmd.AddCommand(meetingsListCmd, meetingsExportCmd)
	rootCmd.AddCommand(meetingsCmd)
}

var meetingsCmd = &cobra.Command{
	Use:   "meetings",
	Short: "Inspect recorded meetings",
}

var meetingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded meetings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, closeDB, err := openRecords()
		if err != nil {
			return err
		}
		defer closeDB()

		list, err := records.List(context.Background(), meetingsLimit, 0)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No meetings recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EVENT ID\tTITLE\tSTART\tATTENDEES")
		for _, m := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				m.EventID,
				m.Title,
				m.StartTime,
				strings.Join(m.Attendees, ", "),
			)
		}
		return w.Flush()
	},
}

var meetingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded meetings as iCalendar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		records, closeDB, err := openRecords()
		if err != nil {
			return err
		}
		defer closeDB()

		list, err := records.List(context.Background(), meetingsLimit, 0)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return fmt.Errorf("create %s: %w", exportOut, err)
			}
			defer f.Close()
			out = f
		}
		return ics.Encode(out, list, cfg.MeetingDuration)
	},
}

func openRecords() (*store.MeetingStore, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("no database configured (set DATABASE_URL)")
	}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewMeetingStore(db, cfg.DatabaseDriver), func() { db.Close() }, nil
}
