package progression

import "testing"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name            string
		starterPending  bool
		recordingsCount int
		want            State
	}{
		{"starter pending wins over count", true, 5, NeedsStarter},
		{"fresh pair with no recordings", false, 0, Locked},
		{"one recording is still locked", false, 1, Locked},
		{"threshold reached", false, 2, Unlocked},
		{"above threshold", false, 7, Unlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.starterPending, tt.recordingsCount); got != tt.want {
				t.Errorf("Evaluate(%v, %d) = %v, want %v",
					tt.starterPending, tt.recordingsCount, got, tt.want)
			}
		})
	}
}

func TestCanGenerate_LockedReportsRemaining(t *testing.T) {
	d := CanGenerate(Locked, 1, false)
	if d.Allowed {
		t.Fatal("locked state without force should refuse generation")
	}
	if d.RecordingsNeeded != 1 {
		t.Errorf("RecordingsNeeded = %d, want 1", d.RecordingsNeeded)
	}

	d = CanGenerate(Locked, 0, false)
	if d.RecordingsNeeded != 2 {
		t.Errorf("RecordingsNeeded = %d, want 2", d.RecordingsNeeded)
	}
}

func TestCanGenerate_ForceBypassesLock(t *testing.T) {
	d := CanGenerate(Locked, 0, true)
	if !d.Allowed {
		t.Error("force should bypass the locked threshold")
	}
}

func TestCanGenerate_ForceNeverBypassesStarter(t *testing.T) {
	d := CanGenerate(NeedsStarter, 0, true)
	if d.Allowed {
		t.Error("force must not bypass pending starter tasks")
	}
}

func TestCanGenerate_Unlocked(t *testing.T) {
	d := CanGenerate(Unlocked, 2, false)
	if !d.Allowed {
		t.Error("unlocked state should allow generation")
	}
}

func TestState_String(t *testing.T) {
	if NeedsStarter.String() != "needs_starter" {
		t.Errorf("NeedsStarter.String() = %q", NeedsStarter.String())
	}
	if Locked.String() != "locked" {
		t.Errorf("Locked.String() = %q", Locked.String())
	}
	if Unlocked.String() != "unlocked" {
		t.Errorf("Unlocked.String() = %q", Unlocked.String())
	}
}
