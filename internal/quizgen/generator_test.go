package quizgen

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

func TestGenerator_Run(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("```json\n" + batchJSON(12) + "\n```"))
	g := NewGenerator(mock, DefaultConfig().Generator, nil)

	s := State{ChapterID: 105, BookID: 1, ExerciseType: quiz.TypeVocabulary, RetrievedContent: testChunks(2)}
	p, err := g.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := s.Apply(p)
	if len(got.Questions) != 12 {
		t.Fatalf("got %d questions, want 12", len(got.Questions))
	}
	if _, ok := got.Questions[0].Body.(*quiz.Vocabulary); !ok {
		t.Errorf("body = %T, want *quiz.Vocabulary", got.Questions[0].Body)
	}

	req := mock.Calls[0]
	if req.System != systemPrompt {
		t.Error("system prompt not set")
	}
	if req.Schema != nil {
		t.Error("generation requests carry no schema")
	}
	msg := userMessage(req)
	for _, want := range []string{
		`Generate 12 quiz questions of type "vocabulary" for Book 1, Chapter 5.`,
		"### Vocabulary | vocabulary\nVocabulary list part 1",
		`"question_subtype": "char_to_meaning"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(msg, "## Must fix") {
		t.Error("prompt has a must-fix section without feedback")
	}
}

func TestGenerator_FeedbackAndWeakness(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(batchJSON(5)))
	g := NewGenerator(mock, DefaultConfig().Generator, nil)

	s := State{
		ChapterID:         212,
		BookID:            2,
		ExerciseType:      quiz.TypeReadingComprehension,
		EvaluatorFeedback: "- [q3] answer_correctness: two options are correct",
		WeaknessProfile:   quiz.WeaknessProfile{WeakVocab: []string{"書", "筆"}},
	}
	if _, err := g.Run(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	msg := userMessage(mock.Calls[0])
	for _, want := range []string{
		`Generate 5 quiz questions of type "reading_comprehension" for Book 2, Chapter 12.`,
		"(No chapter content available)",
		"Often missed vocabulary: 書, 筆.",
		"## Must fix\nThe previous attempt was rejected for these issues. Do not repeat them:\n- [q3] answer_correctness: two options are correct",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerator_MixedTypes(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse(batchJSON(12)))
	g := NewGenerator(mock, DefaultConfig().Generator, nil)

	chunks := testChunks(1)
	chunks = append(chunks, quiz.Chunk{ID: "g", Content: "是...的", ExerciseType: "grammar"})
	s := State{
		ChapterID:        105,
		BookID:           1,
		ExerciseType:     quiz.TypeMixed,
		RetrievedContent: chunks,
		WeaknessProfile:  quiz.WeaknessProfile{WeakExerciseTypes: []string{"grammar"}},
	}
	if _, err := g.Run(context.Background(), s); err != nil {
		t.Fatal(err)
	}

	msg := userMessage(mock.Calls[0])
	gi := strings.Index(msg, "### GRAMMAR questions")
	vi := strings.Index(msg, "### VOCABULARY questions")
	if gi < 0 || vi < 0 || gi > vi {
		t.Errorf("mixed sections missing or out of order (grammar %d, vocabulary %d)", gi, vi)
	}
	if strings.Contains(msg, "### FILL_IN_BLANK questions") {
		t.Error("untagged type offered in mixed quiz")
	}
}

func TestGenerator_LLMFailure(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrRateLimit{}})
	g := NewGenerator(mock, DefaultConfig().Generator, nil)

	s := State{ChapterID: 105, BookID: 1, ExerciseType: quiz.TypeGrammar, Questions: decodeBatch(batchJSON(2))}
	p, err := g.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got := s.Apply(p)
	if len(got.Questions) != 0 {
		t.Errorf("kept %d questions, want 0", len(got.Questions))
	}
	if len(got.ValidationErrors) != 1 || !strings.HasPrefix(got.ValidationErrors[0], "LLM generation failed: ") {
		t.Errorf("errors = %v", got.ValidationErrors)
	}
}

func TestGenerator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := llm.NewMockProvider(llm.MockResponse{Err: context.Canceled})

	_, err := NewGenerator(mock, DefaultConfig().Generator, nil).Run(ctx, State{ExerciseType: quiz.TypeGrammar})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestGenerator_UnparsableOutput(t *testing.T) {
	mock := llm.NewMockProvider(llm.TextResponse("Sorry, I cannot help with that."))
	s := State{ExerciseType: quiz.TypeGrammar}
	p, err := NewGenerator(mock, DefaultConfig().Generator, nil).Run(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Apply(p); len(got.Questions) != 0 || len(got.ValidationErrors) != 0 {
		t.Errorf("questions = %d, errors = %v", len(got.Questions), got.ValidationErrors)
	}
}

func TestChunkTypes(t *testing.T) {
	chunks := []quiz.Chunk{
		{ExerciseType: "grammar"}, {ExerciseType: ""}, {ExerciseType: "vocabulary"},
		{ExerciseType: "grammar"}, {ExerciseType: "dictation"},
	}
	want := []quiz.ExerciseType{quiz.TypeGrammar, quiz.TypeVocabulary}
	if got := chunkTypes(chunks); !slices.Equal(got, want) {
		t.Errorf("chunkTypes = %v, want %v", got, want)
	}
	if got := chunkTypes(nil); !slices.Equal(got, quiz.DefaultMixedTypes) {
		t.Errorf("chunkTypes(nil) = %v", got)
	}
}
