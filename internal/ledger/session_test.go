package ledger

import "testing"

func TestToggleSession(t *testing.T) {
	tests := []struct {
		name    string
		current int
		n       int
		goal    int
		want    int
	}{
		{"activate first", 0, 1, 4, 1},
		{"activate skips ahead", 0, 3, 4, 3},
		{"activate next", 3, 4, 4, 4},
		{"deactivate middle", 3, 2, 4, 1},
		{"deactivate last completed", 3, 3, 4, 2},
		{"deactivate first", 2, 1, 4, 0},
		{"clamped to goal", 0, 4, 2, 2},
		{"below zero clamps", 0, 0, 4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToggleSession(tt.current, tt.n, tt.goal)
			if got != tt.want {
				t.Errorf("ToggleSession(%d, %d, %d) = %d, want %d", tt.current, tt.n, tt.goal, got, tt.want)
			}
		})
	}
}

func TestToggleSessionSequence(t *testing.T) {
	for goal := MinGoal; goal <= MaxGoal; goal++ {
		current := 0
		clicks := []int{1, 3, 2, goal, goal, 1, 1, 2}
		for _, n := range clicks {
			if n > goal {
				continue
			}
			activating := n > current
			current = ToggleSession(current, n, goal)

			want := n - 1
			if activating {
				want = n
			}
			if current != want {
				t.Fatalf("goal %d: click %d gave %d, want %d", goal, n, current, want)
			}
			if current < 0 || current > goal {
				t.Fatalf("goal %d: count %d out of range", goal, current)
			}
		}
	}
}

func TestButtons(t *testing.T) {
	buttons := Buttons(2, 4)
	if len(buttons) != 4 {
		t.Fatalf("expected 4 buttons, got %d", len(buttons))
	}

	want := []Button{
		{Index: 1, Active: true, Enabled: true},
		{Index: 2, Active: true, Enabled: true},
		{Index: 3, Active: false, Enabled: true},
		{Index: 4, Active: false, Enabled: false, Final: true},
	}
	for i, b := range buttons {
		if b != want[i] {
			t.Errorf("button %d = %+v, want %+v", i+1, b, want[i])
		}
	}

	if got := Buttons(0, 2); len(got) != 2 || !got[0].Enabled || got[1].Enabled || !got[1].Final {
		t.Errorf("Buttons(0, 2) = %+v", got)
	}
}
