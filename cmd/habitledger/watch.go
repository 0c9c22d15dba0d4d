package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/goodtune/habitledger/internal/rollover"
	"github.com/goodtune/habitledger/internal/systemd"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the tracker open and follow day changes",
	Long: `Keep the tracker open, redrawing the status when the day changes.

Type a session number and press enter to toggle it, "c" for the calendar,
"a" for achievements and "q" to quit. SIGHUP reloads achievement rules.
Under systemd (Type=notify) readiness and watchdog pings are sent.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger

	// The scheduler only signals; all drawing happens in the loop below.
	rolled, onRollover := rolloverSignal()
	interval := parseDuration(a.cfg.Tracker.RolloverCheckInterval, rollover.DefaultInterval)
	scheduler := rollover.NewScheduler(a.tracker, interval, onRollover, logger)
	scheduler.Start()
	defer scheduler.Stop()

	a.renderer.Status(a.tracker.Snapshot())

	// Send systemd ready notification
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	var watchdog <-chan time.Time
	if every := systemd.WatchdogInterval(); every > 0 {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		watchdog = ticker.C
		logger.Debug().Dur("interval", every).Msg("Systemd watchdog enabled")
	}

	lines := make(chan string)
	go readLines(ctx, lines)

	// Wait for signals (shutdown or reload)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			if sig == syscall.SIGHUP {
				reloadRules(a)
				continue
			}
			logger.Info().Msg("Shutdown signal received, stopping")
			return stopWatch()

		case <-rolled:
			fmt.Fprintln(os.Stdout)
			a.renderer.Status(a.tracker.Snapshot())
			notifyStatus(a)

		case <-watchdog:
			if err := systemd.NotifyWatchdog(); err != nil {
				logger.Warn().Err(err).Msg("Failed to send systemd watchdog notification")
			}

		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep following day changes until signalled
				lines = nil
				continue
			}
			if quit := handleInput(ctx, a, line); quit {
				return stopWatch()
			}
		}
	}
}

// rolloverSignal returns a channel and a never-blocking callback feeding it.
// Rollovers that arrive before the loop drains the channel collapse into one.
func rolloverSignal() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	return ch, func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func stopWatch() error {
	if err := systemd.NotifyStopping(); err != nil {
		return fmt.Errorf("failed to send systemd stopping notification: %w", err)
	}
	return nil
}

func reloadRules(a *app) {
	if a.rules == nil {
		a.logger.Info().Msg("SIGHUP received, no achievement rules configured")
		return
	}
	a.logger.Info().Msg("SIGHUP received, reloading achievement rules...")
	if err := a.rules.Reload(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to reload achievement rules")
		return
	}
	a.logger.Info().Msg("Achievement rules reloaded successfully")
}

// readLines forwards stdin lines until EOF or ctx is done
func readLines(ctx context.Context, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case out <- strings.TrimSpace(scanner.Text()):
		case <-ctx.Done():
			return
		}
	}
}

// handleInput runs one interactive command and reports whether to quit
func handleInput(ctx context.Context, a *app, line string) bool {
	switch line {
	case "":
		a.renderer.Status(a.tracker.Snapshot())
	case "q", "quit":
		return true
	case "c":
		a.renderer.Calendar(a.tracker.Snapshot())
	case "a":
		a.renderer.Achievements(a.tracker.Snapshot())
	default:
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unknown input %q (1-4, c, a, q)\n", line)
			return false
		}
		result, err := a.tracker.Toggle(ctx, n)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
		a.renderer.Unlocked(result.Unlocked)
		a.renderer.Status(a.tracker.Snapshot())
	}
	notifyStatus(a)
	return false
}

func notifyStatus(a *app) {
	if err := systemd.NotifyStatus(fmt.Sprintf("%d sessions today", a.tracker.Snapshot().TodaySessions)); err != nil {
		a.logger.Debug().Err(err).Msg("Failed to send systemd status")
	}
}
