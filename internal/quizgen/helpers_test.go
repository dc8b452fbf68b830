package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

var vocab = []struct{ char, pinyin, meaning string }{
	{"書", "shū", "book"}, {"筆", "bǐ", "pen"}, {"茶", "chá", "tea"},
	{"車", "chē", "car"}, {"水", "shuǐ", "water"}, {"飯", "fàn", "rice"},
	{"家", "jiā", "home"}, {"學", "xué", "study"}, {"看", "kàn", "look"},
	{"好", "hǎo", "good"}, {"人", "rén", "person"}, {"山", "shān", "mountain"},
}

// vocabQuestion is a structurally valid vocabulary question object.
func vocabQuestion(i int) map[string]any {
	v := vocab[i%len(vocab)]
	return map[string]any{
		"question_id":      fmt.Sprintf("q%d", i+1),
		"exercise_type":    "vocabulary",
		"question_text":    fmt.Sprintf("Question %d: what does %s mean?", i+1, v.char),
		"correct_answer":   v.meaning,
		"explanation":      fmt.Sprintf("%s (%s) means %s.", v.char, v.pinyin, v.meaning),
		"source_citation":  "Book 1, Chapter 5 - Vocabulary",
		"character":        v.char,
		"pinyin":           v.pinyin,
		"meaning":          v.meaning,
		"question_subtype": "char_to_meaning",
		"options":          []string{v.meaning, "option a", "option b", "option c"},
	}
}

// batchJSON renders n valid vocabulary questions as a JSON array.
func batchJSON(n int) string {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = vocabQuestion(i)
	}
	b, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// invalidBatchJSON renders n questions that all miss their correct answer.
func invalidBatchJSON(n int) string {
	items := make([]map[string]any, n)
	for i := range items {
		q := vocabQuestion(i)
		delete(q, "correct_answer")
		items[i] = q
	}
	b, err := json.Marshal(items)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// verdictJSON renders a failing verdict flagging the given question ids.
func verdictJSON(ids ...string) string {
	issues := make([]map[string]string, len(ids))
	for i, id := range ids {
		issues[i] = map[string]string{
			"question_id": id,
			"rule":        RuleTraditionalChinese,
			"detail":      "uses simplified 书",
		}
	}
	b, err := json.Marshal(map[string]any{"passed": len(ids) == 0, "issues": issues})
	if err != nil {
		panic(err)
	}
	return string(b)
}

const passVerdict = `{"passed": true, "issues": []}`

func ids(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("q%d", i))
	}
	return out
}

func decodeBatch(text string) []quiz.Question {
	qs := decodeQuestions(ParseQuestions(text))
	normalizeIDs(qs)
	return qs
}

func questionIDs(qs []quiz.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func testChunks(n int) []quiz.Chunk {
	out := make([]quiz.Chunk, n)
	for i := range out {
		out[i] = quiz.Chunk{
			ID:           fmt.Sprintf("c%d", i+1),
			Content:      fmt.Sprintf("Vocabulary list part %d", i+1),
			Section:      "Vocabulary",
			ExerciseType: "vocabulary",
			Book:         1,
			Lesson:       5,
			ContentType:  "textbook",
		}
	}
	return out
}

type fakeRetriever struct {
	chunks []quiz.Chunk
	types  []quiz.ExerciseType
	err    error

	mixedTypes []quiz.ExerciseType
	calls      []string
}

func (f *fakeRetriever) Retrieve(_ context.Context, book, lesson int, et quiz.ExerciseType) ([]quiz.Chunk, error) {
	f.calls = append(f.calls, fmt.Sprintf("retrieve %d/%d/%s", book, lesson, et))
	return f.chunks, f.err
}

func (f *fakeRetriever) RetrieveMixed(_ context.Context, book, lesson int, types []quiz.ExerciseType) ([]quiz.Chunk, error) {
	f.calls = append(f.calls, fmt.Sprintf("mixed %d/%d/%s", book, lesson, strings.Join(quiz.TypeStrings(types), ",")))
	f.mixedTypes = types
	return f.chunks, f.err
}

func (f *fakeRetriever) AvailableTypes(context.Context, int, int) ([]quiz.ExerciseType, error) {
	return f.types, nil
}

type fakeProfiler struct {
	profile quiz.WeaknessProfile
	err     error
}

func (f *fakeProfiler) Profile(context.Context, string) (quiz.WeaknessProfile, error) {
	return f.profile, f.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Timeout = 5 * time.Second
	return cfg
}

func userMessage(req llm.Request) string {
	if len(req.Messages) == 0 {
		return ""
	}
	return req.Messages[len(req.Messages)-1].Content
}
