package systemd

import "testing"

func TestNotifyOutsideSystemd(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	t.Setenv("WATCHDOG_USEC", "")

	for name, fn := range map[string]func() error{
		"ready":    NotifyReady,
		"stopping": NotifyStopping,
		"watchdog": NotifyWatchdog,
		"status":   func() error { return NotifyStatus("idle") },
	} {
		if err := fn(); err != nil {
			t.Errorf("%s: expected no-op outside systemd, got %v", name, err)
		}
	}

	if got := WatchdogInterval(); got != 0 {
		t.Errorf("WatchdogInterval() = %v, want 0", got)
	}
}
