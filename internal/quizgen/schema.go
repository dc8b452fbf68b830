package quizgen

import "github.com/dangdai/quizgen/internal/llm"

// Content rules checked by the evaluator.
const (
	RuleTraditionalChinese  = "traditional_chinese"
	RulePinyinDiacritics    = "pinyin_diacritics"
	RuleEnglishInstructions = "english_instructions"
	RuleChapterVocabulary   = "chapter_vocabulary"
	RuleAnswerCorrectness   = "answer_correctness"
)

// VerdictSchema is the structured output requested from the evaluator.
var VerdictSchema = &llm.Schema{
	Name:        "quiz-verdict",
	Description: "Content review of a batch of quiz questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"passed": map[string]any{
				"type":        "boolean",
				"description": "True when no question breaks any rule",
			},
			"issues": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_id": map[string]any{
							"type":        "string",
							"description": "The question_id of the offending question",
						},
						"rule": map[string]any{
							"type": "string",
							"enum": []any{
								RuleTraditionalChinese,
								RulePinyinDiacritics,
								RuleEnglishInstructions,
								RuleChapterVocabulary,
								RuleAnswerCorrectness,
							},
						},
						"detail": map[string]any{
							"type":        "string",
							"description": "What is wrong and how to fix it",
						},
					},
					"required":             []any{"question_id", "rule", "detail"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"passed", "issues"},
		"additionalProperties": false,
	},
}
