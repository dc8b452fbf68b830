package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dangdai/quizgen/internal/quiz"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.DB() == nil {
		t.Fatal("expected non-nil db")
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is covered by TestOpenFileDB.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestOpenFileDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quizgen.db")
	if err := EnsureDir(path); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestDefaultDBPath_EnvOverride(t *testing.T) {
	want := filepath.Join(t.TempDir(), "db", "custom.db")
	t.Setenv("QUIZGEN_DB", want)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if got != want {
		t.Errorf("DefaultDBPath() = %q, want %q", got, want)
	}
}

func TestDefaultDBPath_XDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUIZGEN_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)

	got, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if want := filepath.Join(dir, "quizgen", "quizgen.db"); got != want {
		t.Errorf("DefaultDBPath() = %q, want %q", got, want)
	}
}

func TestSequenceIsSharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	if err := repo.AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "quiz-generation", Success: true}); err != nil {
		t.Fatalf("append llm: %v", err)
	}
	if err := repo.AppendGenerationEvent(ctx, GenerationEventData{QuizID: "z", Outcome: "success"}); err != nil {
		t.Fatalf("append generation: %v", err)
	}

	llmEvents, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query llm: %v", err)
	}
	genEvents, err := repo.QueryGenerationEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query generation: %v", err)
	}
	if len(llmEvents) != 1 || len(genEvents) != 1 {
		t.Fatalf("got %d llm and %d generation events, want 1 each", len(llmEvents), len(genEvents))
	}
	if genEvents[0].Sequence <= llmEvents[0].Sequence {
		t.Errorf("sequence not increasing: llm=%d generation=%d", llmEvents[0].Sequence, genEvents[0].Sequence)
	}
}

func TestLLMEvents_QueryAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	events := []LLMRequestEventData{
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "quiz-generation", InputTokens: 100, OutputTokens: 900, LatencyMs: 1200, Success: true, RequestBody: "[user]\nmake a quiz", ResponseBody: "[]"},
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "quiz-evaluation", InputTokens: 800, OutputTokens: 50, LatencyMs: 600, Success: true},
		{Provider: "anthropic", Model: "claude-haiku-4-5-20251001", Purpose: "quiz-generation", LatencyMs: 30, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events, want 3", len(all))
	}
	if all[0].ErrorMessage != "rate limited" {
		t.Errorf("expected newest first, got %+v", all[0])
	}

	gen, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "quiz-generation", Limit: 1})
	if err != nil {
		t.Fatalf("query by purpose: %v", err)
	}
	if len(gen) != 1 || gen[0].Purpose != "quiz-generation" {
		t.Fatalf("purpose filter = %+v", gen)
	}

	first := all[2]
	got, err := repo.GetLLMEvent(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected event")
	}
	if got.RequestBody != "[user]\nmake a quiz" || got.ResponseBody != "[]" {
		t.Errorf("bodies not round-tripped: %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("expected timestamp")
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing event, got %+v", missing)
	}
}

func TestLLMUsageAggregates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	for _, e := range []LLMRequestEventData{
		{Model: "gpt-4o-mini", Purpose: "quiz-generation", InputTokens: 100, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Model: "gpt-4o-mini", Purpose: "quiz-generation", InputTokens: 200, OutputTokens: 20, LatencyMs: 300, Success: true},
		{Model: "gpt-4o", Purpose: "answer-validation", InputTokens: 5, OutputTokens: 1, LatencyMs: 50, Success: true},
	} {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	if err != nil {
		t.Fatalf("usage by purpose: %v", err)
	}
	if len(byPurpose) != 2 {
		t.Fatalf("got %d purposes, want 2", len(byPurpose))
	}
	top := byPurpose[0]
	if top.Purpose != "quiz-generation" || top.Calls != 2 || top.InputTokens != 300 || top.OutputTokens != 30 || top.AvgLatencyMs != 200 {
		t.Errorf("unexpected top purpose stats: %+v", top)
	}

	byModel, err := repo.LLMUsageByModel(ctx)
	if err != nil {
		t.Fatalf("usage by model: %v", err)
	}
	if len(byModel) != 2 || byModel[0].Model != "gpt-4o-mini" || byModel[0].Calls != 2 {
		t.Errorf("unexpected model usage: %+v", byModel)
	}
}

func TestGenerationEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	ok := GenerationEventData{QuizID: "a", ChapterID: 105, ExerciseType: "vocabulary", UserID: "u1", Attempts: 1, Outcome: "success", QuestionCount: 12, DurationMs: 4000}
	failed := GenerationEventData{QuizID: "b", ChapterID: 212, ExerciseType: "grammar", UserID: "u1", Attempts: 3, RetryCount: 3, Outcome: "failed", Errors: []string{"No questions were generated"}}
	for _, e := range []GenerationEventData{ok, failed} {
		if err := repo.AppendGenerationEvent(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.QueryGenerationEvents(ctx, QueryOpts{Outcome: "failed"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1", len(got))
	}
	if got[0].QuizID != "b" || got[0].RetryCount != 3 || len(got[0].Errors) != 1 || got[0].Errors[0] != "No questions were generated" {
		t.Errorf("unexpected event: %+v", got[0])
	}
}

func TestChunkRepo_SearchAndTypes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ChunkRepo()

	chunks := []quiz.Chunk{
		{ID: "b1-l5-1", Book: 1, Lesson: 5, Section: "Vocabulary", ExerciseType: "vocabulary", ContentType: "workbook", Content: "書 shū book"},
		{ID: "b1-l5-2", Book: 1, Lesson: 5, Section: "Grammar", ExerciseType: "grammar", ContentType: "textbook", Content: "是 sentences"},
		{ID: "b1-l5-3", Book: 1, Lesson: 5, Section: "Dialogue", Content: "你好"},
		{ID: "b1-l6-1", Book: 1, Lesson: 6, Section: "Vocabulary", ExerciseType: "vocabulary", Content: "茶 chá tea"},
		{ID: "b2-l1-1", Book: 2, Lesson: 1, Section: "Vocabulary", ExerciseType: "vocabulary", Content: "咖啡"},
	}
	n, err := repo.Upsert(ctx, chunks)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if n != len(chunks) {
		t.Fatalf("upserted %d, want %d", n, len(chunks))
	}

	tests := []struct {
		name   string
		filter quiz.ChunkFilter
		want   int
	}{
		{"book lesson", quiz.ChunkFilter{Book: 1, Lesson: 5}, 3},
		{"book lesson type", quiz.ChunkFilter{Book: 1, Lesson: 5, ExerciseType: "vocabulary"}, 1},
		{"workbook only", quiz.ChunkFilter{Book: 1, Lesson: 5, ContentType: "workbook"}, 1},
		{"whole book", quiz.ChunkFilter{Book: 1, AllLessons: true}, 4},
		{"limit", quiz.ChunkFilter{Book: 1, AllLessons: true, Limit: 2}, 2},
		{"no match", quiz.ChunkFilter{Book: 3, Lesson: 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.filter)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d chunks, want %d", len(got), tt.want)
			}
		})
	}

	types, err := repo.ExerciseTypes(ctx, 1, 5)
	if err != nil {
		t.Fatalf("exercise types: %v", err)
	}
	if len(types) != 2 || types[0] != "grammar" || types[1] != "vocabulary" {
		t.Errorf("ExerciseTypes = %v, want [grammar vocabulary]", types)
	}

	// Re-ingesting replaces content instead of duplicating.
	chunks[0].Content = "書 shū book (revised)"
	if _, err := repo.Upsert(ctx, chunks[:1]); err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != len(chunks) {
		t.Errorf("count = %d, want %d", count, len(chunks))
	}
	got, err := repo.Search(ctx, quiz.ChunkFilter{Book: 1, Lesson: 5, ContentType: "workbook"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Content != "書 shū book (revised)" {
		t.Errorf("upsert did not replace content: %+v", got)
	}
}

func TestChunkRepo_UpsertRequiresID(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.ChunkRepo().Upsert(context.Background(), []quiz.Chunk{{Book: 1, Lesson: 1, Content: "x"}}); err == nil {
		t.Fatal("expected error for chunk without id")
	}
}

func TestResultRepo_RecentIncorrect(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.ResultRepo()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	results := []quiz.QuestionResult{
		{UserID: "u1", QuizID: "z1", QuestionID: "q1", ExerciseType: "vocabulary", Correct: false, VocabularyItem: "書", CreatedAt: base},
		{UserID: "u1", QuizID: "z1", QuestionID: "q2", ExerciseType: "vocabulary", Correct: true, CreatedAt: base.Add(time.Minute)},
		{UserID: "u1", QuizID: "z1", QuestionID: "q3", ExerciseType: "grammar", Correct: false, GrammarPattern: "是", CreatedAt: base.Add(2 * time.Minute)},
		{UserID: "u2", QuizID: "z2", QuestionID: "q1", ExerciseType: "matching", Correct: false, CreatedAt: base},
	}
	for _, r := range results {
		if err := repo.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.RecentIncorrect(ctx, "u1", 100)
	if err != nil {
		t.Fatalf("recent incorrect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].QuestionID != "q3" || got[0].GrammarPattern != "是" {
		t.Errorf("expected newest first, got %+v", got[0])
	}
	if got[1].VocabularyItem != "書" || got[1].Correct {
		t.Errorf("unexpected second result: %+v", got[1])
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got[1].CreatedAt, base)
	}

	limited, err := repo.RecentIncorrect(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("recent incorrect: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: got %d", len(limited))
	}
}
