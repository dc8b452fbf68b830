package quizgen

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/dangdai/quizgen/internal/llm"
	"github.com/dangdai/quizgen/internal/quiz"
)

// ParseQuestions extracts question objects from raw model output. An array
// is used as-is, an object with a "questions" field yields that field, and
// any other value becomes a one-element list. Output that does not parse
// yields an empty list. The returned objects are not modified.
func ParseQuestions(text string) []json.RawMessage {
	body := llm.StripFence(text)

	var v json.RawMessage
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil
	}

	switch v[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			return nil
		}
		return items
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(v, &obj); err != nil {
			return nil
		}
		inner, ok := obj["questions"]
		if !ok {
			return []json.RawMessage{v}
		}
		var items []json.RawMessage
		if err := json.Unmarshal(inner, &items); err == nil {
			return items
		}
		if trimmed := strings.TrimSpace(string(inner)); strings.HasPrefix(trimmed, "{") {
			return []json.RawMessage{inner}
		}
		return nil
	}
	return []json.RawMessage{v}
}

// decodeQuestions converts parsed objects into questions. An element that
// is not an object becomes a question with no fields, which the structural
// validator rejects.
func decodeQuestions(raws []json.RawMessage) []quiz.Question {
	out := make([]quiz.Question, 0, len(raws))
	for _, raw := range raws {
		var q quiz.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			q = quiz.Question{Body: &quiz.Unknown{Fields: map[string]json.RawMessage{}}}
		}
		out = append(out, q)
	}
	return out
}

// normalizeIDs gives every question a unique id. Questions keep the first
// occurrence of their own id; missing and repeated ids become q<n>, where n
// starts at the question's position and skips ids already taken.
func normalizeIDs(questions []quiz.Question) {
	taken := make(map[string]bool, len(questions))
	keep := make([]bool, len(questions))
	for i, q := range questions {
		if q.ID != "" && !taken[q.ID] {
			taken[q.ID] = true
			keep[i] = true
		}
	}
	for i := range questions {
		if keep[i] {
			continue
		}
		n := i + 1
		id := "q" + strconv.Itoa(n)
		for taken[id] {
			n++
			id = "q" + strconv.Itoa(n)
		}
		taken[id] = true
		questions[i].ID = id
	}
}
