package answer

import (
	"fmt"
	"strings"

	"github.com/dangdai/quizgen/internal/llm"
)

const systemPrompt = `You grade answers from learners of Traditional Chinese. Accept any answer that is grammatical, uses the intended vocabulary and means the same as the expected answer. Reply with JSON only.`

var resultSchema = &llm.Schema{
	Name:        "answer-verdict",
	Description: "Whether a learner's answer is acceptable",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_correct": map[string]any{
				"type": "boolean",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "One or two sentences in English for the learner",
			},
			"alternatives": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Other acceptable answers",
			},
		},
		"required":             []any{"is_correct", "explanation", "alternatives"},
		"additionalProperties": false,
	},
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Exercise type: %s\n", req.ExerciseType)
	fmt.Fprintf(&b, "Question: %s\n", req.Question)
	fmt.Fprintf(&b, "Expected answer: %s\n", req.CorrectAnswer)
	fmt.Fprintf(&b, "Learner answer: %s\n\n", req.UserAnswer)
	b.WriteString("Is the learner's answer correct? Explain briefly and list other acceptable answers.")
	return b.String()
}
