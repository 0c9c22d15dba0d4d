package main

import (
	"github.com/spf13/cobra"
)

var (
	statusVerbose bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's sessions, rewards and streaks",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Show this month's calendar",
	Long:  `Show the current month with completed sessions per day and note markers.`,
	Args:  cobra.NoArgs,
	RunE:  runCalendar,
}

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Show the achievement gallery",
	Args:  cobra.NoArgs,
	RunE:  runAchievements,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusVerbose, "verbose", "v", false, "Also show the storage backend and its last write")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(achievementsCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.renderer.Status(a.tracker.Snapshot())

	if statusVerbose {
		meta, err := a.tracker.StoreMeta(cmd.Context())
		if err != nil {
			return err
		}
		a.renderer.Store(a.cfg.Storage.Type, meta)
	}
	return nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.renderer.Calendar(a.tracker.Snapshot())
	return nil
}

func runAchievements(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.renderer.Achievements(a.tracker.Snapshot())
	return nil
}
