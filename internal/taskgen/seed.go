package taskgen

import "github.com/amara/mothertongue/internal/model"

// StarterTask is one entry of the fixed introductory sequence every user
// completes before generated tasks unlock.
type StarterTask struct {
	SequenceOrder int
	Draft         Draft
}

// starterTexts is the curated 20-item sequence, shared by all languages:
// 1–10 single words (beginner), 11–15 phrases (intermediate),
// 16–20 sentences (advanced). The first entry is always "Hello".
var starterTexts = []struct {
	text string
	desc string
}{
	{"Hello", "The most common greeting"},
	{"Goodbye", "A parting word"},
	{"Yes", "Affirmation"},
	{"No", "Negation"},
	{"Please", "Polite request"},
	{"Thank you", "Expressing gratitude"},
	{"Water", "The word for water"},
	{"Food", "The word for food"},
	{"Friend", "The word for friend"},
	{"Family", "The word for family"},
	{"Good morning", "A morning greeting"},
	{"How are you?", "Asking about wellbeing"},
	{"My name is...", "Introducing yourself"},
	{"Where are you from?", "Asking about origin"},
	{"See you tomorrow", "A casual farewell"},
	{"I am learning my language.", "A statement of intent"},
	{"We are cooking dinner together tonight.", "Everyday family life"},
	{"She sings the old songs beautifully.", "Talking about someone"},
	{"They walked to the river this morning.", "Describing the past"},
	{"Our family gathers when the rain comes.", "Community and weather"},
}

// StarterSequence returns the full starter sequence as drafts, ordered by
// sequence number 1..20. Seeded once per language, the moment the
// language gets its first task.
func StarterSequence() []StarterTask {
	tasks := make([]StarterTask, 0, len(starterTexts))
	for i, entry := range starterTexts {
		seq := i + 1

		category := model.CategoryWord
		difficulty := model.DifficultyBeginner
		minutes := 1
		switch {
		case seq > 15:
			category = model.CategorySentence
			difficulty = model.DifficultyAdvanced
			minutes = 3
		case seq > 10:
			category = model.CategoryPhrase
			difficulty = model.DifficultyIntermediate
			minutes = 2
		}

		tasks = append(tasks, StarterTask{
			SequenceOrder: seq,
			Draft: Draft{
				EnglishText:      entry.text,
				Description:      entry.desc,
				Category:         category,
				Difficulty:       difficulty,
				EstimatedMinutes: minutes,
			},
		})
	}
	return tasks
}
