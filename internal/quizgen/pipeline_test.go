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

func vocabRequest() quiz.Request {
	return quiz.Request{ChapterID: 105, BookID: 1, ExerciseType: quiz.TypeVocabulary, UserID: "u1"}
}

func runPipeline(t *testing.T, r *fakeRetriever, mock *llm.MockProvider, req quiz.Request) Result {
	t.Helper()
	p := NewPipeline(r, &fakeProfiler{}, mock, testConfig())
	res, err := p.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

func TestPipeline_HappyPath(t *testing.T) {
	r := &fakeRetriever{chunks: testChunks(5)}
	mock := llm.NewMockProvider(llm.TextResponse(batchJSON(12)), llm.TextResponse(passVerdict))

	res := runPipeline(t, r, mock, vocabRequest())

	if len(res.Payload.Questions) != 12 {
		t.Errorf("payload has %d questions, want 12", len(res.Payload.Questions))
	}
	if res.RetryCount != 0 || res.Attempts != 1 {
		t.Errorf("retry = %d, attempts = %d", res.RetryCount, res.Attempts)
	}
	if res.RetrievedChunks != 5 {
		t.Errorf("RetrievedChunks = %d", res.RetrievedChunks)
	}
	if !slices.Equal(r.calls, []string{"retrieve 1/5/vocabulary"}) {
		t.Errorf("retriever calls = %v", r.calls)
	}
	if mock.CallCount() != 2 {
		t.Errorf("LLM calls = %d, want 2", mock.CallCount())
	}
}

func TestPipeline_RetryCeiling(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(invalidBatchJSON(3)),
		llm.TextResponse(invalidBatchJSON(3)),
		llm.TextResponse(invalidBatchJSON(3)),
		llm.TextResponse(batchJSON(12)),
	)
	res := runPipeline(t, &fakeRetriever{chunks: testChunks(3)}, mock, vocabRequest())

	if mock.CallCount() != MaxRetries+1 {
		t.Errorf("generator calls = %d, want %d", mock.CallCount(), MaxRetries+1)
	}
	if mock.Pending() != 1 {
		t.Errorf("pending responses = %d, want 1", mock.Pending())
	}
	if !res.Payload.Empty() {
		t.Error("payload should be empty")
	}
	if res.RetryCount != 3 || res.Attempts != 3 {
		t.Errorf("retry = %d, attempts = %d", res.RetryCount, res.Attempts)
	}
	if len(res.ValidationErrors) != 3 {
		t.Errorf("errors = %v", res.ValidationErrors)
	}
}

func TestPipeline_StructuralRetryThenSuccess(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse("not json"),
		llm.TextResponse(batchJSON(12)),
		llm.TextResponse(passVerdict),
	)
	res := runPipeline(t, &fakeRetriever{chunks: testChunks(3)}, mock, vocabRequest())

	if len(res.Payload.Questions) != 12 || res.RetryCount != 1 || res.Attempts != 2 {
		t.Errorf("questions = %d, retry = %d, attempts = %d", len(res.Payload.Questions), res.RetryCount, res.Attempts)
	}
}

func TestPipeline_FeedbackReachesNextGeneration(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(batchJSON(12)),
		llm.TextResponse(verdictJSON(ids(1, 10)...)),
		llm.TextResponse(batchJSON(12)),
		llm.TextResponse(passVerdict),
	)
	res := runPipeline(t, &fakeRetriever{chunks: testChunks(3)}, mock, vocabRequest())

	if len(res.Payload.Questions) != 12 || res.RetryCount != 1 {
		t.Errorf("questions = %d, retry = %d", len(res.Payload.Questions), res.RetryCount)
	}

	first, second := userMessage(mock.Calls[0]), userMessage(mock.Calls[2])
	if strings.Contains(first, "## Must fix") {
		t.Error("first prompt already has feedback")
	}
	if !strings.Contains(second, "## Must fix") || !strings.Contains(second, "- [q10] traditional_chinese: uses simplified 书") {
		t.Error("second prompt is missing the evaluator feedback")
	}
}

func TestPipeline_PartialAcceptEndsRun(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(batchJSON(12)),
		llm.TextResponse(verdictJSON(ids(1, 9)...)),
	)
	res := runPipeline(t, &fakeRetriever{chunks: testChunks(3)}, mock, vocabRequest())

	if got := questionIDs(res.Payload.Questions); !slices.Equal(got, []string{"q10", "q11", "q12"}) {
		t.Errorf("payload = %v", got)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", res.Attempts)
	}
}

func TestPipeline_EvaluatorFailureAcceptsBatch(t *testing.T) {
	mock := llm.NewMockProvider(
		llm.TextResponse(batchJSON(12)),
		llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}},
	)
	res := runPipeline(t, &fakeRetriever{chunks: testChunks(3)}, mock, vocabRequest())

	if len(res.Payload.Questions) != 12 || res.RetryCount != 0 {
		t.Errorf("questions = %d, retry = %d", len(res.Payload.Questions), res.RetryCount)
	}
}

func TestPipeline_Mixed(t *testing.T) {
	r := &fakeRetriever{
		chunks: testChunks(3),
		types:  []quiz.ExerciseType{quiz.TypeGrammar, quiz.TypeVocabulary},
	}
	mock := llm.NewMockProvider(llm.TextResponse(batchJSON(12)), llm.TextResponse(passVerdict))
	req := vocabRequest()
	req.ExerciseType = quiz.TypeMixed

	runPipeline(t, r, mock, req)

	if !slices.Equal(r.mixedTypes, r.types) {
		t.Errorf("mixed retrieval types = %v", r.mixedTypes)
	}
}

func TestPipeline_MixedWithoutTags(t *testing.T) {
	r := &fakeRetriever{chunks: testChunks(3)}
	mock := llm.NewMockProvider(llm.TextResponse(batchJSON(12)), llm.TextResponse(passVerdict))
	req := vocabRequest()
	req.ExerciseType = quiz.TypeMixed

	runPipeline(t, r, mock, req)

	if !slices.Equal(r.mixedTypes, quiz.DefaultMixedTypes) {
		t.Errorf("mixed retrieval types = %v", r.mixedTypes)
	}
}

func TestPipeline_UpstreamFailure(t *testing.T) {
	tests := []struct {
		name     string
		r        *fakeRetriever
		profiler *fakeProfiler
	}{
		{"retriever", &fakeRetriever{err: errors.New("connection refused")}, &fakeProfiler{}},
		{"profiler", &fakeRetriever{chunks: testChunks(3)}, &fakeProfiler{err: errors.New("connection refused")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := llm.NewMockProvider()
			p := NewPipeline(tt.r, tt.profiler, mock, testConfig())
			res, err := p.Run(context.Background(), vocabRequest())
			if !errors.Is(err, ErrUpstream) {
				t.Errorf("err = %v, want ErrUpstream", err)
			}
			if mock.CallCount() != 0 {
				t.Errorf("LLM calls = %d, want 0", mock.CallCount())
			}
			if res.Attempts != 0 || !res.Payload.Empty() {
				t.Errorf("result = %+v, want no attempts and no payload", res)
			}
		})
	}
}

func TestPipeline_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRetriever{chunks: testChunks(3)}

	_, err := NewPipeline(r, &fakeProfiler{}, llm.NewMockProvider(), testConfig()).Run(ctx, vocabRequest())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(r.calls) != 0 {
		t.Errorf("retriever called after cancellation: %v", r.calls)
	}
}
