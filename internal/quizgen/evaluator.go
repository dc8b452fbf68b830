package quizgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

const evaluatorSystemPrompt = `You review quiz questions written for learners of Traditional Chinese. You do not rewrite questions; you report rule violations.`

var evaluatorTmpl = template.Must(template.New("evaluate").Parse(
	`Review these {{.Type}} questions for Book {{.BookID}}, Chapter {{.Lesson}}.

Rules:
1. traditional_chinese: all Chinese text uses Traditional characters, never Simplified.
2. pinyin_diacritics: pinyin uses tone marks (xué), never tone numbers (xue2).
3. english_instructions: question_text and explanation are written in English.
4. chapter_vocabulary: vocabulary and grammar come from the chapter content below.
5. answer_correctness: correct_answer is actually correct and the only correct choice.

## Chapter content
{{.Content}}

## Questions
{{.Questions}}

Report one issue per rule violation with the question_id, the rule name and a short detail.
Set passed to true only when there are no issues.`))

// Issue is one rule violation reported by the evaluator.
type Issue struct {
	QuestionID string
	Rule       string
	Detail     string
}

// Verdict is the evaluator's decision on a batch.
type Verdict struct {
	Passed bool
	Issues []Issue
}

// ContentEvaluator judges content quality with an LLM call. It accepts the
// batch when the evaluator itself cannot produce a verdict.
type ContentEvaluator struct {
	provider llm.Provider
	config   EvaluatorConfig
	log      *slog.Logger
}

// NewContentEvaluator creates a ContentEvaluator. A nil logger uses
// slog.Default().
func NewContentEvaluator(provider llm.Provider, cfg EvaluatorConfig, log *slog.Logger) *ContentEvaluator {
	if log == nil {
		log = slog.Default()
	}
	return &ContentEvaluator{provider: provider, config: cfg, log: log}
}

// Run evaluates State.Questions. It makes no call when the state already
// carries validation errors. Only cancellation of ctx is returned as an
// error.
func (e *ContentEvaluator) Run(ctx context.Context, s State) (Patch, error) {
	if len(s.ValidationErrors) > 0 {
		return Patch{}, nil
	}

	verdict, err := e.evaluate(ctx, s)
	if err != nil {
		if ctx.Err() != nil {
			return Patch{}, ctx.Err()
		}
		e.log.WarnContext(ctx, "content evaluation failed, accepting batch", "error", err)
		return accept(s.Questions), nil
	}

	if verdict.Passed {
		return accept(s.Questions), nil
	}

	flagged := make(map[string]bool, len(verdict.Issues))
	for _, is := range verdict.Issues {
		flagged[is.QuestionID] = true
	}
	survivors := make([]quiz.Question, 0, len(s.Questions))
	for _, q := range s.Questions {
		if !flagged[q.ID] {
			survivors = append(survivors, q)
		}
	}

	if len(survivors) >= e.config.MinQuestions {
		e.log.InfoContext(ctx, "content evaluation partially accepted batch",
			"issues", len(verdict.Issues),
			"dropped", len(s.Questions)-len(survivors),
			"kept", len(survivors),
		)
		return accept(survivors), nil
	}

	e.log.InfoContext(ctx, "content evaluation rejected batch",
		"issues", len(verdict.Issues),
		"kept", len(survivors),
	)
	summary := fmt.Sprintf("Content evaluation failed: %d issues found, %d questions remaining (minimum %d)",
		len(verdict.Issues), len(survivors), e.config.MinQuestions)
	return Patch{
		Questions:         set(survivors),
		ValidationErrors:  set([]string{summary}),
		EvaluatorFeedback: set(feedback(verdict.Issues)),
		RetryCount:        set(s.RetryCount + 1),
		QuizPayload:       set(quiz.Payload{}),
	}, nil
}

func (e *ContentEvaluator) evaluate(ctx context.Context, s State) (Verdict, error) {
	msg, err := buildEvaluationMessage(s)
	if err != nil {
		return Verdict{}, fmt.Errorf("build evaluation prompt: %w", err)
	}

	callCtx := llm.WithPurpose(ctx, llm.PurposeEvaluation)
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, e.config.Timeout)
		defer cancel()
	}

	resp, err := e.provider.Generate(callCtx, llm.Request{
		System: evaluatorSystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: msg},
		},
		Schema:      VerdictSchema,
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("LLM evaluation failed: %w", err)
	}
	return ParseVerdict(resp.Text()), nil
}

func buildEvaluationMessage(s State) (string, error) {
	questions, err := json.MarshalIndent(s.Questions, "", "  ")
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = evaluatorTmpl.Execute(&buf, map[string]any{
		"Type":      s.ExerciseType,
		"BookID":    s.BookID,
		"Lesson":    s.Lesson(),
		"Content":   formatChunks(s.RetrievedContent),
		"Questions": string(questions),
	})
	return buf.String(), err
}

// accept makes questions the final payload and clears errors and feedback.
func accept(questions []quiz.Question) Patch {
	return Patch{
		Questions:         set(questions),
		ValidationErrors:  set([]string{}),
		EvaluatorFeedback: set(""),
		QuizPayload:       set(quiz.Payload{Questions: questions}),
	}
}

// feedback renders issues one per line as "- [question_id] rule: detail".
func feedback(issues []Issue) string {
	lines := make([]string, len(issues))
	for i, is := range issues {
		lines[i] = fmt.Sprintf("- [%s] %s: %s", is.QuestionID, is.Rule, is.Detail)
	}
	return strings.Join(lines, "\n")
}

// ParseVerdict reads an evaluator response. Anything that is not a JSON
// object counts as a pass, as does an object without a boolean "passed"
// field. Issues that are not objects are skipped.
func ParseVerdict(raw string) Verdict {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.StripFence(raw)), &obj); err != nil || obj == nil {
		return Verdict{Passed: true}
	}

	v := Verdict{Passed: true}
	if field, ok := obj["passed"]; ok {
		var passed bool
		if err := json.Unmarshal(field, &passed); err == nil {
			v.Passed = passed
		}
	}

	var items []json.RawMessage
	if field, ok := obj["issues"]; ok {
		if err := json.Unmarshal(field, &items); err != nil {
			items = nil
		}
	}
	for _, item := range items {
		var is map[string]any
		if err := json.Unmarshal(item, &is); err != nil || is == nil {
			continue
		}
		v.Issues = append(v.Issues, Issue{
			QuestionID: str(is["question_id"]),
			Rule:       str(is["rule"]),
			Detail:     str(is["detail"]),
		})
	}
	return v
}

func str(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
