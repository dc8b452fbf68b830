package quizgen

import "github.com/dangdai/quizgen/internal/quiz"

// State is the record threaded through one pipeline run. Stages never
// modify a State; they return a Patch that Apply merges into a new one.
type State struct {
	ChapterID    int
	BookID       int
	ExerciseType quiz.ExerciseType
	UserID       string

	RetrievedContent []quiz.Chunk
	WeaknessProfile  quiz.WeaknessProfile

	// Questions is replaced by the generator and narrowed, never
	// reordered, by the validators.
	Questions []quiz.Question

	// ValidationErrors holds the latest validator's findings. Non-empty
	// means the batch must be regenerated or the run must end.
	ValidationErrors []string

	// EvaluatorFeedback is injected into the next generation prompt.
	EvaluatorFeedback string

	// RetryCount counts batch-level regeneration decisions.
	RetryCount int

	// QuizPayload is non-empty once a batch has been accepted.
	QuizPayload quiz.Payload
}

// NewState creates the initial State for a request.
func NewState(req quiz.Request) State {
	return State{
		ChapterID:    req.ChapterID,
		BookID:       req.BookID,
		ExerciseType: req.ExerciseType,
		UserID:       req.UserID,
	}
}

// Lesson returns the lesson number encoded in the chapter id.
func (s State) Lesson() int {
	_, lesson := quiz.SplitChapterID(s.ChapterID)
	return lesson
}

// Patch is a partial State. Every non-nil field replaces the corresponding
// State field; nil fields leave it untouched. The zero Patch changes nothing.
type Patch struct {
	RetrievedContent  *[]quiz.Chunk
	WeaknessProfile   *quiz.WeaknessProfile
	Questions         *[]quiz.Question
	ValidationErrors  *[]string
	EvaluatorFeedback *string
	RetryCount        *int
	QuizPayload       *quiz.Payload
}

// Apply returns a copy of s with p merged in.
func (s State) Apply(p Patch) State {
	if p.RetrievedContent != nil {
		s.RetrievedContent = *p.RetrievedContent
	}
	if p.WeaknessProfile != nil {
		s.WeaknessProfile = *p.WeaknessProfile
	}
	if p.Questions != nil {
		s.Questions = *p.Questions
	}
	if p.ValidationErrors != nil {
		s.ValidationErrors = *p.ValidationErrors
	}
	if p.EvaluatorFeedback != nil {
		s.EvaluatorFeedback = *p.EvaluatorFeedback
	}
	if p.RetryCount != nil {
		s.RetryCount = *p.RetryCount
	}
	if p.QuizPayload != nil {
		s.QuizPayload = *p.QuizPayload
	}
	return s
}

func set[T any](v T) *T { return &v }
