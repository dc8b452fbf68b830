package quiz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest is returned for requests that must be rejected before
// any pipeline work starts.
var ErrInvalidRequest = errors.New("invalid quiz request")

// Request asks for one quiz.
type Request struct {
	ChapterID    int          `json:"chapter_id" validate:"gte=100,lte=699"`
	BookID       int          `json:"book_id" validate:"gte=1,lte=6"`
	ExerciseType ExerciseType `json:"exercise_type" validate:"required,exercise_type"`
	UserID       string       `json:"user_id" validate:"required"`
}

// Lesson returns the lesson number encoded in the chapter id.
func (r Request) Lesson() int {
	_, lesson := SplitChapterID(r.ChapterID)
	return lesson
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("exercise_type", func(fl validator.FieldLevel) bool {
		return ExerciseType(fl.Field().String()).Valid()
	})
	return v
}

// Validate checks field ranges and that the chapter belongs to the book.
// Errors wrap ErrInvalidRequest.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	if book, _ := SplitChapterID(r.ChapterID); book != r.BookID {
		return fmt.Errorf("%w: chapter %d does not belong to book %d", ErrInvalidRequest, r.ChapterID, r.BookID)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "exercise_type":
		return fmt.Sprintf("unknown exercise type %q", fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
