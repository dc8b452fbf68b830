package quiz

// ExerciseType identifies the kind of question a quiz contains.
type ExerciseType string

const (
	TypeVocabulary           ExerciseType = "vocabulary"
	TypeGrammar              ExerciseType = "grammar"
	TypeFillInBlank          ExerciseType = "fill_in_blank"
	TypeMatching             ExerciseType = "matching"
	TypeDialogueCompletion   ExerciseType = "dialogue_completion"
	TypeSentenceConstruction ExerciseType = "sentence_construction"
	TypeReadingComprehension ExerciseType = "reading_comprehension"

	// TypeMixed is a request-level meta value: the generator picks several
	// concrete types for one quiz.
	TypeMixed ExerciseType = "mixed"
)

// ConcreteTypes lists the seven concrete exercise types in canonical order.
var ConcreteTypes = []ExerciseType{
	TypeVocabulary,
	TypeGrammar,
	TypeFillInBlank,
	TypeMatching,
	TypeDialogueCompletion,
	TypeSentenceConstruction,
	TypeReadingComprehension,
}

// DefaultMixedTypes is used for mixed quizzes when the chapter content
// carries no exercise-type tags.
var DefaultMixedTypes = []ExerciseType{TypeVocabulary, TypeGrammar, TypeFillInBlank}

// Concrete reports whether t is one of the seven concrete exercise types.
func (t ExerciseType) Concrete() bool {
	for _, c := range ConcreteTypes {
		if t == c {
			return true
		}
	}
	return false
}

// Valid reports whether t is a concrete type or TypeMixed.
func (t ExerciseType) Valid() bool {
	return t == TypeMixed || t.Concrete()
}

// QuestionCount is the number of questions requested from the LLM for a
// quiz of type t. Reading comprehension passages are long, so fewer are asked.
func (t ExerciseType) QuestionCount() int {
	if t == TypeReadingComprehension {
		return 5
	}
	return 12
}

// OpenEnded reports whether answers to t can be correct in more than one
// form and therefore need LLM validation rather than exact matching.
func (t ExerciseType) OpenEnded() bool {
	return t == TypeSentenceConstruction || t == TypeDialogueCompletion
}

func (t ExerciseType) String() string { return string(t) }

// TypeStrings converts a slice of exercise types to plain strings.
func TypeStrings(types []ExerciseType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
