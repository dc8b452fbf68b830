package quizgen

// MaxRetries bounds regeneration. A retry is still allowed when RetryCount
// equals MaxRetries, so a run makes at most MaxRetries+1 generation calls.
const MaxRetries = 2

// Step names a pipeline stage.
type Step int

const (
	StepRetrieveContent Step = iota
	StepQueryWeakness
	StepGenerateQuiz
	StepValidateStructure
	StepEvaluateContent
	StepEnd
)

var stepNames = [...]string{
	StepRetrieveContent:   "retrieve_content",
	StepQueryWeakness:     "query_weakness",
	StepGenerateQuiz:      "generate_quiz",
	StepValidateStructure: "validate_structure",
	StepEvaluateContent:   "evaluate_content",
	StepEnd:               "end",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// Next returns the step that follows step given the state it produced.
func Next(step Step, s State) Step {
	switch step {
	case StepRetrieveContent:
		return StepQueryWeakness
	case StepQueryWeakness:
		return StepGenerateQuiz
	case StepGenerateQuiz:
		return StepValidateStructure
	case StepValidateStructure:
		if len(s.ValidationErrors) == 0 {
			return StepEvaluateContent
		}
		if s.RetryCount <= MaxRetries {
			return StepGenerateQuiz
		}
		return StepEnd
	case StepEvaluateContent:
		if len(s.ValidationErrors) > 0 && s.RetryCount <= MaxRetries {
			return StepGenerateQuiz
		}
		return StepEnd
	default:
		return StepEnd
	}
}
