package taskgen

import (
	"testing"

	"github.com/amara/mothertongue/internal/model"
)

func TestStarterSequence_Shape(t *testing.T) {
	seq := StarterSequence()

	if len(seq) != 20 {
		t.Fatalf("starter sequence has %d entries, want 20", len(seq))
	}

	for i, st := range seq {
		if st.SequenceOrder != i+1 {
			t.Errorf("entry %d has SequenceOrder %d, want %d", i, st.SequenceOrder, i+1)
		}
		if st.Draft.EnglishText == "" {
			t.Errorf("entry %d has empty text", i)
		}
		if st.Draft.AIGenerated {
			t.Errorf("entry %d is flagged AI-generated", i)
		}
	}
}

func TestStarterSequence_FirstIsHello(t *testing.T) {
	seq := StarterSequence()
	if seq[0].Draft.EnglishText != "Hello" {
		t.Errorf("first starter = %q, want %q", seq[0].Draft.EnglishText, "Hello")
	}
}

// Category and difficulty boundaries: 1–10 word/beginner,
// 11–15 phrase/intermediate, 16–20 sentence/advanced.
func TestStarterSequence_Boundaries(t *testing.T) {
	for _, st := range StarterSequence() {
		var wantCat model.Category
		var wantDiff model.Difficulty
		switch {
		case st.SequenceOrder <= 10:
			wantCat, wantDiff = model.CategoryWord, model.DifficultyBeginner
		case st.SequenceOrder <= 15:
			wantCat, wantDiff = model.CategoryPhrase, model.DifficultyIntermediate
		default:
			wantCat, wantDiff = model.CategorySentence, model.DifficultyAdvanced
		}

		if st.Draft.Category != wantCat {
			t.Errorf("seq %d: category = %s, want %s", st.SequenceOrder, st.Draft.Category, wantCat)
		}
		if st.Draft.Difficulty != wantDiff {
			t.Errorf("seq %d: difficulty = %s, want %s", st.SequenceOrder, st.Draft.Difficulty, wantDiff)
		}
	}
}

func TestStarterSequence_MinutesWithinRange(t *testing.T) {
	for _, st := range StarterSequence() {
		if st.Draft.EstimatedMinutes < 1 || st.Draft.EstimatedMinutes > 5 {
			t.Errorf("seq %d: estimated minutes %d outside [1,5]",
				st.SequenceOrder, st.Draft.EstimatedMinutes)
		}
	}
}
