// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Category classifies a translation task by the kind of utterance requested.
//
// WHY A NAMED STRING TYPE?
// Using `type Category string` instead of bare strings gives us:
//   - A place to hang the valid constants (compile-time discoverability)
//   - Self-documenting function signatures: func(...) Category vs func(...) string
//   - A Valid() method so the store boundary can reject bad values
//
// The underlying type is still string, so it serializes to JSON and scans
// from SQLite TEXT columns with no extra machinery.
type Category string

const (
	CategoryWord     Category = "word"
	CategoryPhrase   Category = "phrase"
	CategorySentence Category = "sentence"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryWord, CategoryPhrase, CategorySentence:
		return true
	}
	return false
}

// Difficulty grades a task. It drives the points awarded per recording.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Points returns the reward for one completed recording of this difficulty.
func (d Difficulty) Points() int {
	switch d {
	case DifficultyIntermediate:
		return 20
	case DifficultyAdvanced:
		return 30
	default:
		return 10 // beginner and anything unrecognised
	}
}

// Task is a translation prompt for a specific language.
//
// Starter tasks form a fixed ordered sequence (SequenceOrder 1..20) shared by
// every user of the language. Generated tasks (IsStarter=false) have
// SequenceOrder 0 — they are progression-independent content; the workflow
// treats the most recent task per language as the active one.
type Task struct {
	ID               string     `json:"id"`
	LanguageID       string     `json:"languageId"`
	EnglishText      string     `json:"englishText"`
	Description      string     `json:"description"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	EstimatedMinutes int        `json:"estimatedMinutes"` // always clamped to [1,5]
	SequenceOrder    int        `json:"sequenceOrder"`    // starter tasks only, 0 otherwise
	IsStarter        bool       `json:"isStarter"`
	AIGenerated      bool       `json:"aiGenerated"` // analytics flag only — never affects policy
	CreatedAt        time.Time  `json:"createdAt"`
}
