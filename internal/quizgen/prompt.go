package quizgen

import (
	"fmt"
	"strings"

	"github.com/dangdai/quizgen/internal/quiz"
)

const systemPrompt = `You write quiz questions for learners using the textbook series A Course in Contemporary Chinese (當代中文課程).

Rules:
- Use only vocabulary, grammar and content found in the chapter material you are given.
- Write all Chinese in Traditional characters. Never use Simplified characters.
- Write pinyin with tone marks (xué, not xue2).
- Write question instructions and explanations in English.
- Every question has exactly one correct answer. Distractors are plausible but clearly wrong.
- When a question has options, correct_answer must be exactly one of them.
- Explanations are one or two sentences and cite the textbook section.
- Reply with JSON only, in the exact format requested.`

var typeInstructions = map[quiz.ExerciseType]string{
	quiz.TypeVocabulary: `Each question tests one vocabulary item from the chapter in one direction: character to meaning, pinyin to character, or meaning to character.
Give 4 options: the answer and 3 distractors taken from the same chapter.
Fill character, pinyin and meaning, and set question_subtype to "char_to_meaning", "pinyin_to_char" or "meaning_to_char".`,

	quiz.TypeGrammar: `Each question tests one grammar point from the chapter.
Give the full sentence in "sentence" and 4 options that complete or correct it.
Name the grammar point in "grammar_point".`,

	quiz.TypeFillInBlank: `Each question is a sentence with one or two blanks marked ___.
List the correct words plus distractors in "word_bank" and the word positions of the blanks in "blank_positions".`,

	quiz.TypeMatching: `Each question matches 4 to 6 pairs, such as character to meaning or pinyin to character.
Put one side in "left_items", the other side shuffled in "right_items", and the pairs as [left_index, right_index] in "correct_pairs".`,

	quiz.TypeDialogueCompletion: `Each question is a short dialogue of 2 to 4 exchanges with exactly one blank bubble.
Put the lines in "dialogue_bubbles" and the candidate lines for the blank in "options".`,

	quiz.TypeSentenceConstruction: `Each question gives the words of a correct chapter sentence in random order in "scrambled_words".
Put the indices of the words in correct order in "correct_order" and the full sentence in correct_answer.`,

	quiz.TypeReadingComprehension: `Each question is a short passage of 2 to 4 sentences built from chapter content.
Add 2 or 3 sub-questions in "comprehension_questions", each with 4 options and the index of the correct one.`,
}

const baseFieldsHint = `"question_id": "q1", "exercise_type": "%s", "question_text": "...", "correct_answer": "...", "explanation": "...", "source_citation": "Book %d, Chapter %d - <section>"`

var typeFieldsHint = map[quiz.ExerciseType]string{
	quiz.TypeVocabulary:           `"character": "書", "pinyin": "shū", "meaning": "book", "question_subtype": "char_to_meaning", "options": ["book", "pen", "tea", "car"]`,
	quiz.TypeGrammar:              `"sentence": "...", "options": ["...", "...", "...", "..."], "grammar_point": "..."`,
	quiz.TypeFillInBlank:          `"sentence_with_blank": "我___中文", "word_bank": ["學", "吃", "看"], "blank_positions": [1]`,
	quiz.TypeMatching:             `"left_items": ["書", "筆"], "right_items": ["pen", "book"], "correct_pairs": [[0, 1], [1, 0]]`,
	quiz.TypeDialogueCompletion:   `"dialogue_bubbles": [{"speaker": "A", "text": "...", "is_blank": false}, {"speaker": "B", "text": "", "is_blank": true}], "options": ["...", "...", "...", "..."]`,
	quiz.TypeSentenceConstruction: `"scrambled_words": ["中文", "我", "學"], "correct_order": [1, 2, 0]`,
	quiz.TypeReadingComprehension: `"passage": "...", "comprehension_questions": [{"question": "...", "options": ["...", "...", "...", "..."], "correct": 0}]`,
}

// promptInput is everything the generation prompt depends on.
type promptInput struct {
	BookID   int
	Lesson   int
	Type     quiz.ExerciseType
	Count    int
	Chunks   []quiz.Chunk
	Profile  quiz.WeaknessProfile
	Feedback string
	MixTypes []quiz.ExerciseType
}

// buildUserMessage assembles the generation prompt.
func buildUserMessage(in promptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generate %d quiz questions of type %q for Book %d, Chapter %d.\n\n", in.Count, in.Type, in.BookID, in.Lesson)

	if in.Type == quiz.TypeMixed {
		b.WriteString("Spread the questions across these exercise types and set exercise_type on each question.\n\n")
		for _, t := range in.MixTypes {
			fmt.Fprintf(&b, "### %s questions\n%s\n\n", strings.ToUpper(string(t)), typeInstructions[t])
		}
	} else {
		b.WriteString(typeInstructions[in.Type])
		b.WriteString("\n\n")
	}

	b.WriteString("## Chapter content\n")
	b.WriteString(formatChunks(in.Chunks))
	b.WriteString("\n\n")

	if w := formatWeakness(in.Profile); w != "" {
		b.WriteString(w)
		b.WriteString("\n\n")
	}

	b.WriteString("## Output format\n")
	b.WriteString("Return a JSON array of question objects shaped like:\n")
	for _, t := range hintTypes(in) {
		fmt.Fprintf(&b, "{"+baseFieldsHint, t, in.BookID, in.Lesson)
		if extra := typeFieldsHint[t]; extra != "" {
			b.WriteString(", ")
			b.WriteString(extra)
		}
		b.WriteString("}\n")
	}
	fmt.Fprintf(&b, "\nGenerate exactly %d questions with unique question_id values (q1, q2, ...).\n", in.Count)

	if in.Feedback != "" {
		b.WriteString("\n## Must fix\n")
		b.WriteString("The previous attempt was rejected for these issues. Do not repeat them:\n")
		b.WriteString(in.Feedback)
		b.WriteString("\n")
	}

	return b.String()
}

func hintTypes(in promptInput) []quiz.ExerciseType {
	if in.Type == quiz.TypeMixed {
		return in.MixTypes
	}
	return []quiz.ExerciseType{in.Type}
}

// formatChunks renders chunks as "### heading" sections.
func formatChunks(chunks []quiz.Chunk) string {
	if len(chunks) == 0 {
		return "(No chapter content available)"
	}
	sections := make([]string, len(chunks))
	for i, c := range chunks {
		sections[i] = "### " + c.Heading() + "\n" + c.Content
	}
	return strings.Join(sections, "\n\n")
}

func formatWeakness(p quiz.WeaknessProfile) string {
	if p.Empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Learner weaknesses\n")
	if len(p.WeakExerciseTypes) > 0 {
		fmt.Fprintf(&b, "The learner struggles with: %s.\n", strings.Join(p.WeakExerciseTypes, ", "))
	}
	if len(p.WeakVocab) > 0 {
		fmt.Fprintf(&b, "Often missed vocabulary: %s.\n", strings.Join(p.WeakVocab, ", "))
	}
	if len(p.WeakGrammar) > 0 {
		fmt.Fprintf(&b, "Often missed grammar: %s.\n", strings.Join(p.WeakGrammar, ", "))
	}
	b.WriteString("Favour these areas where the chapter content allows.")
	return b.String()
}
