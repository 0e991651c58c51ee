package models

// Question types.
const (
	QuestionRating         = "rating"
	QuestionNPS            = "nps"
	QuestionMultipleChoice = "multiple_choice"
	QuestionYesNo          = "yes_no"
	QuestionText           = "text"
)

const (
	DefaultRatingScale = 5
	MaxRatingScale     = 10
	NPSMax             = 10
)

type Question struct {
	ID       string   `json:"_id,omitempty"`
	FormID   string   `json:"formId"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
	// Scale is the top of a rating question (1..Scale).
	Scale    int `json:"scale,omitempty"`
	Position int `json:"position"`
}

// IsQuestionType reports whether t is a known question type.
func IsQuestionType(t string) bool {
	switch t {
	case QuestionRating, QuestionNPS, QuestionMultipleChoice, QuestionYesNo, QuestionText:
		return true
	}
	return false
}

// RatingScale returns Scale with the default applied.
func (q *Question) RatingScale() int {
	if q.Scale <= 0 {
		return DefaultRatingScale
	}
	return q.Scale
}
