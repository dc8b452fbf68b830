package quiz

import (
	"strings"
	"time"
)

// Chunk is a unit of retrieved textbook content.
type Chunk struct {
	ID           string `json:"id" yaml:"id"`
	Content      string `json:"content" yaml:"content"`
	Section      string `json:"section,omitempty" yaml:"section"`
	ExerciseType string `json:"exercise_type,omitempty" yaml:"exercise_type"`
	Topic        string `json:"topic,omitempty" yaml:"topic"`

	Book        int    `json:"book" yaml:"book"`
	Lesson      int    `json:"lesson" yaml:"lesson"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type"`
}

// Heading is the label used when the chunk is rendered into a prompt: the
// set fields among section, exercise type and topic joined by " | ", or
// "Content" when none is set.
func (c Chunk) Heading() string {
	var parts []string
	for _, p := range []string{c.Section, c.ExerciseType, c.Topic} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Content"
	}
	return strings.Join(parts, " | ")
}

// WeaknessProfile summarises what a learner tends to get wrong. The zero
// value means no weaknesses are known.
type WeaknessProfile struct {
	// WeakExerciseTypes is ordered most frequent first.
	WeakExerciseTypes []string `json:"weak_exercise_types"`
	WeakVocab         []string `json:"weak_vocab"`
	WeakGrammar       []string `json:"weak_grammar"`
}

// Empty reports whether the profile carries no information.
func (p WeaknessProfile) Empty() bool {
	return len(p.WeakExerciseTypes) == 0 && len(p.WeakVocab) == 0 && len(p.WeakGrammar) == 0
}

// Payload holds an accepted quiz. An empty payload means nothing was accepted.
type Payload struct {
	Questions []Question `json:"questions"`
}

// Empty reports whether the payload holds no questions.
func (p Payload) Empty() bool { return len(p.Questions) == 0 }

// SplitChapterID decomposes a chapter id into its book and lesson:
// 212 is book 2, lesson 12.
func SplitChapterID(chapterID int) (book, lesson int) {
	return chapterID / 100, chapterID % 100
}

// ChunkFilter narrows a chunk search. Empty string fields match anything.
type ChunkFilter struct {
	Book int
	// Lesson is ignored when AllLessons is set.
	Lesson       int
	AllLessons   bool
	ExerciseType string
	ContentType  string
	Limit        int
}

// QuestionResult records one answered question.
type QuestionResult struct {
	UserID         string
	QuizID         string
	QuestionID     string
	ExerciseType   string
	ChapterID      int
	Correct        bool
	UserAnswer     string
	VocabularyItem string
	GrammarPattern string
	CreatedAt      time.Time
}
