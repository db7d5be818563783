// Package progression implements the task-unlock state machine.
//
// Each (user, language) pair is always in exactly one of three states:
//
//	NeedsStarter — at least one starter task has no recording by this user
//	Locked       — starters done, but fewer recordings than the threshold
//	Unlocked     — starters done and the threshold is met
//
// The cycle Locked → (2 recordings) → Unlocked → (generate) → Locked repeats
// indefinitely; there is no terminal state.
//
// WHY A DEDICATED PACKAGE?
// The unlock rules used to be re-derivable from raw counts at every call
// site (`count >= 2`, a starter-task scan). Centralising them as named
// states and transition functions means the task service asks "what state
// am I in, may I generate?" and never touches the raw numbers. The package
// is pure — no I/O, no clock — so every rule is testable with plain values.
package progression

import (
	"fmt"

	"github.com/amara/mothertongue/internal/model"
)

// State is the unlock state of one (user, language) pair.
type State int

const (
	// NeedsStarter means the user still has incomplete starter tasks for
	// the language. Generation is refused; the lowest-sequence incomplete
	// starter is surfaced instead.
	NeedsStarter State = iota
	// Locked means all starters are complete but the user has fewer than
	// model.UnlockThreshold recordings in the current cycle.
	Locked
	// Unlocked means the user may generate the next task.
	Unlocked
)

// String returns the snake_case name used in API responses and logs.
func (s State) String() string {
	switch s {
	case NeedsStarter:
		return "needs_starter"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Evaluate derives the current state from observed facts.
//
// starterPending is true when at least one starter task for the language has
// zero recordings by this user. recordingsCount is the counter from the
// progress row for the current cycle (0 if no row exists yet).
func Evaluate(starterPending bool, recordingsCount int) State {
	if starterPending {
		return NeedsStarter
	}
	if recordingsCount >= model.UnlockThreshold {
		return Unlocked
	}
	return Locked
}

// Decision is the outcome of a generation request against the state machine.
type Decision struct {
	Allowed bool
	State   State
	// RecordingsNeeded is how many more recordings unlock generation.
	// Only meaningful when State == Locked and Allowed == false.
	RecordingsNeeded int
}

// CanGenerate decides whether a generation request may proceed.
//
// force bypasses the Locked threshold (the "record again" flow) but never
// bypasses NeedsStarter — starter tasks are always completed first.
func CanGenerate(state State, recordingsCount int, force bool) Decision {
	switch state {
	case NeedsStarter:
		return Decision{Allowed: false, State: state}
	case Locked:
		if force {
			return Decision{Allowed: true, State: state}
		}
		needed := model.UnlockThreshold - recordingsCount
		if needed < 0 {
			needed = 0
		}
		return Decision{Allowed: false, State: state, RecordingsNeeded: needed}
	default:
		return Decision{Allowed: true, State: state}
	}
}
