package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goodtune/habitledger/internal/ledger"
	"github.com/spf13/cobra"
)

var (
	noteDate string
	resetYes bool
)

var toggleCmd = &cobra.Command{
	Use:   "toggle N",
	Short: "Toggle session N of today",
	Long: `Toggle session N of today. Completing a session completes every session
before it; toggling a completed session rolls back to the one before it.`,
	Example: `  habitledger toggle 1
  habitledger toggle 4`,
	Args: cobra.ExactArgs(1),
	RunE: runToggle,
}

var noteCmd = &cobra.Command{
	Use:   "note [flags] TEXT",
	Short: "Write a note for today or a past day",
	Example: `  habitledger note "short session, felt tired"
  habitledger note --date 2024-3-8 "travel day"
  habitledger note --date 2024-3-8 ""`,
	Args: cobra.ExactArgs(1),
	RunE: runNote,
}

var goalCmd = &cobra.Command{
	Use:   "goal N",
	Short: "Set the daily goal (1-4 sessions)",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoal,
}

var titleCmd = &cobra.Command{
	Use:   "title TEXT",
	Short: "Set the tracker title; an empty title restores the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runTitle,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all history, streaks and achievements",
	Long:  `Delete all recorded days, streaks and unlocked achievements. The title is kept.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	noteCmd.Flags().StringVar(&noteDate, "date", "", "Day to annotate as YYYY-M-D (default today)")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm the reset")

	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(titleCmd)
	rootCmd.AddCommand(resetCmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid session number %q", args[0])
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.tracker.Toggle(cmd.Context(), n)
	if err != nil {
		return err
	}

	a.renderer.Unlocked(result.Unlocked)
	a.renderer.Status(a.tracker.Snapshot())
	return nil
}

func runNote(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	date := noteDate
	if date == "" {
		date = ledger.DateKey(time.Now())
	}

	unlocked, err := a.tracker.SetNote(cmd.Context(), date, args[0])
	if err != nil {
		return err
	}

	a.renderer.Unlocked(unlocked)
	if strings.TrimSpace(args[0]) == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Note for %s removed\n", date)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Note for %s saved\n", date)
	}
	return nil
}

func runGoal(cmd *cobra.Command, args []string) error {
	goal, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid goal %q", args[0])
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	unlocked, err := a.tracker.SetGoal(cmd.Context(), goal)
	if err != nil {
		return err
	}

	a.renderer.Unlocked(unlocked)
	a.renderer.Status(a.tracker.Snapshot())
	return nil
}

func runTitle(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	unlocked, err := a.tracker.SetTitle(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	a.renderer.Unlocked(unlocked)
	a.renderer.Status(a.tracker.Snapshot())
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return fmt.Errorf("reset deletes all history; pass --yes to confirm")
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.tracker.Clear(cmd.Context())
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
	return nil
}
