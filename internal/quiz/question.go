package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Question is one generated quiz question. The base fields are shared by
// every exercise type; Body carries the fields of exactly one variant and is
// selected by the exercise_type discriminator when decoding.
type Question struct {
	ID             string
	ExerciseType   ExerciseType
	Text           string
	CorrectAnswer  string
	Explanation    string
	SourceCitation string

	// ExtraOptions holds an "options" array sent on a type whose body has no
	// option list. It is validated and re-encoded like any other option list.
	ExtraOptions []string

	// Body is nil only for a zero Question.
	Body Body
}

// Body is implemented by the type-specific part of a question.
type Body interface {
	Kind() ExerciseType
}

// Optioned is implemented by bodies that present a fixed option list.
type Optioned interface {
	OptionList() []string
}

// Vocabulary tests one vocabulary item in one direction.
type Vocabulary struct {
	Character string   `json:"character,omitempty"`
	Pinyin    string   `json:"pinyin,omitempty"`
	Meaning   string   `json:"meaning,omitempty"`
	Subtype   string   `json:"question_subtype,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// Grammar tests a grammar point with a multiple-choice sentence.
type Grammar struct {
	Sentence     string   `json:"sentence,omitempty"`
	Options      []string `json:"options,omitempty"`
	GrammarPoint string   `json:"grammar_point,omitempty"`
}

// FillInBlank is a sentence with ___ markers and a word bank.
type FillInBlank struct {
	SentenceWithBlank string   `json:"sentence_with_blank,omitempty"`
	WordBank          []string `json:"word_bank,omitempty"`
	BlankPositions    []int    `json:"blank_positions,omitempty"`
}

// Matching pairs left items with right items by index.
type Matching struct {
	LeftItems    []string `json:"left_items,omitempty"`
	RightItems   []string `json:"right_items,omitempty"`
	CorrectPairs [][2]int `json:"correct_pairs,omitempty"`
}

// DialogueBubble is one line of a dialogue; at most one is blank.
type DialogueBubble struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	IsBlank bool   `json:"is_blank"`
}

// DialogueCompletion asks for the missing line of a short dialogue.
type DialogueCompletion struct {
	Bubbles []DialogueBubble `json:"dialogue_bubbles,omitempty"`
	Options []string         `json:"options,omitempty"`
}

// SentenceConstruction asks the learner to reorder scrambled words.
type SentenceConstruction struct {
	ScrambledWords []string `json:"scrambled_words,omitempty"`
	CorrectOrder   []int    `json:"correct_order,omitempty"`
}

// ComprehensionQuestion is a sub-question about a reading passage.
type ComprehensionQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// ReadingComprehension nests several sub-questions under one passage.
type ReadingComprehension struct {
	Passage   string                  `json:"passage,omitempty"`
	Questions []ComprehensionQuestion `json:"comprehension_questions,omitempty"`
}

// Unknown keeps the raw fields of a question whose discriminator is missing,
// unrecognised, or whose variant fields did not decode.
type Unknown struct {
	Type   ExerciseType
	Fields map[string]json.RawMessage
}

func (*Vocabulary) Kind() ExerciseType           { return TypeVocabulary }
func (*Grammar) Kind() ExerciseType              { return TypeGrammar }
func (*FillInBlank) Kind() ExerciseType          { return TypeFillInBlank }
func (*Matching) Kind() ExerciseType             { return TypeMatching }
func (*DialogueCompletion) Kind() ExerciseType   { return TypeDialogueCompletion }
func (*SentenceConstruction) Kind() ExerciseType { return TypeSentenceConstruction }
func (*ReadingComprehension) Kind() ExerciseType { return TypeReadingComprehension }
func (u *Unknown) Kind() ExerciseType            { return u.Type }

func (v *Vocabulary) OptionList() []string         { return v.Options }
func (g *Grammar) OptionList() []string            { return g.Options }
func (d *DialogueCompletion) OptionList() []string { return d.Options }

// OptionList returns the raw "options" array rendered as text, or nil.
func (u *Unknown) OptionList() []string {
	return optionText(u.Fields["options"])
}

func optionText(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = scalarText(it)
	}
	return out
}

// Options returns the question's option list, or nil when it has none.
func (q *Question) Options() []string {
	if o, ok := q.Body.(Optioned); ok {
		return o.OptionList()
	}
	return q.ExtraOptions
}

// NewBody returns an empty body for a concrete type, or nil.
func NewBody(t ExerciseType) Body {
	switch t {
	case TypeVocabulary:
		return &Vocabulary{}
	case TypeGrammar:
		return &Grammar{}
	case TypeFillInBlank:
		return &FillInBlank{}
	case TypeMatching:
		return &Matching{}
	case TypeDialogueCompletion:
		return &DialogueCompletion{}
	case TypeSentenceConstruction:
		return &SentenceConstruction{}
	case TypeReadingComprehension:
		return &ReadingComprehension{}
	}
	return nil
}

var baseKeys = []string{"question_id", "exercise_type", "question_text", "correct_answer", "explanation", "source_citation"}

// UnmarshalJSON decodes a question object. It never fails on a well-formed
// JSON object: base scalars are read leniently and variant fields that do not
// match the declared type fall back to an Unknown body.
func (q *Question) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("question is not an object: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	*q = Question{
		ID:             fieldText(fields["question_id"]),
		ExerciseType:   ExerciseType(fieldText(fields["exercise_type"])),
		Text:           fieldText(fields["question_text"]),
		CorrectAnswer:  fieldText(fields["correct_answer"]),
		Explanation:    fieldText(fields["explanation"]),
		SourceCitation: fieldText(fields["source_citation"]),
	}

	if body := NewBody(q.ExerciseType); body != nil {
		if err := json.Unmarshal(data, body); err == nil {
			q.Body = body
			if _, ok := body.(Optioned); !ok {
				q.ExtraOptions = optionText(fields["options"])
			}
			return nil
		}
	}

	rest := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		rest[k] = v
	}
	for _, k := range baseKeys {
		delete(rest, k)
	}
	q.Body = &Unknown{Type: q.ExerciseType, Fields: rest}
	return nil
}

// MarshalJSON encodes the base fields and the body's fields as one flat object.
func (q Question) MarshalJSON() ([]byte, error) {
	out := map[string]any{}

	switch b := q.Body.(type) {
	case nil:
	case *Unknown:
		for k, v := range b.Fields {
			out[k] = v
		}
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		for k, v := range fields {
			out[k] = v
		}
	}

	if _, ok := q.Body.(Optioned); !ok && q.ExtraOptions != nil {
		out["options"] = q.ExtraOptions
	}
	out["question_id"] = q.ID
	out["exercise_type"] = q.ExerciseType
	out["question_text"] = q.Text
	out["correct_answer"] = q.CorrectAnswer
	out["explanation"] = q.Explanation
	out["source_citation"] = q.SourceCitation
	return json.Marshal(out)
}

// fieldText is scalarText for required base fields: a numeric zero counts as
// missing, like every other falsy JSON value.
func fieldText(raw json.RawMessage) string {
	s := scalarText(raw)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 && !bytes.HasPrefix(bytes.TrimSpace(raw), []byte(`"`)) {
		return ""
	}
	return s
}

// scalarText renders a raw JSON value as text. Strings are unquoted, numbers
// and booleans keep their literal form, null and empty containers are "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[', '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return ""
		}
		if s := buf.String(); s != "[]" && s != "{}" {
			return s
		}
		return ""
	case 't', 'f':
		b, err := strconv.ParseBool(string(raw))
		if err != nil || !b {
			return ""
		}
		return "true"
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
		return ""
	}
	return string(raw)
}
