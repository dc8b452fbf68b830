package content

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dangdai/quizgen/internal/quiz"
)

// lessonFile is one YAML document of a corpus file. Chunk fields left
// empty inherit the document's book, lesson and content type.
type lessonFile struct {
	Book        int          `yaml:"book"`
	Lesson      int          `yaml:"lesson"`
	ContentType string       `yaml:"content_type"`
	Chunks      []quiz.Chunk `yaml:"chunks"`
}

// LoadChunks decodes every YAML document in r. Chunks without an id get
// "b<book>-l<lesson>-<n>", numbered per document.
func LoadChunks(r io.Reader) ([]quiz.Chunk, error) {
	dec := yaml.NewDecoder(r)

	var out []quiz.Chunk
	for doc := 1; ; doc++ {
		var f lessonFile
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}

		for i, c := range f.Chunks {
			if c.Book == 0 {
				c.Book = f.Book
			}
			if c.Lesson == 0 {
				c.Lesson = f.Lesson
			}
			if c.ContentType == "" {
				c.ContentType = f.ContentType
			}
			c.Content = strings.TrimSpace(c.Content)

			if c.Book < 1 || c.Book > 6 {
				return nil, fmt.Errorf("document %d chunk %d: book %d out of range 1-6", doc, i+1, c.Book)
			}
			if c.Lesson < 1 || c.Lesson > 99 {
				return nil, fmt.Errorf("document %d chunk %d: lesson %d out of range 1-99", doc, i+1, c.Lesson)
			}
			if c.Content == "" {
				return nil, fmt.Errorf("document %d chunk %d: empty content", doc, i+1)
			}
			if c.ExerciseType != "" && !quiz.ExerciseType(c.ExerciseType).Concrete() {
				return nil, fmt.Errorf("document %d chunk %d: unknown exercise type %q", doc, i+1, c.ExerciseType)
			}
			if c.ID == "" {
				c.ID = fmt.Sprintf("b%d-l%d-%d", c.Book, c.Lesson, i+1)
			}
			out = append(out, c)
		}
	}
	return out, nil
}
