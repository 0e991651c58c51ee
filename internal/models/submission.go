package models

// Submission outcomes.
const (
	OutcomeReviewRedirect = "review_redirect"
	OutcomePrivate        = "private"
)

type Submission struct {
	ID      string   `json:"_id,omitempty"`
	FormID  string   `json:"formId"`
	Answers []Answer `json:"answers"`
	// Score is the respondent's satisfaction on a 0-5 scale, nil when the
	// form has no rating or NPS question answered.
	Score    *float64 `json:"score,omitempty"`
	Outcome  string   `json:"outcome"`
	Critical bool     `json:"critical"`
	// Comment joins every text answer; it backs full-text search.
	Comment   string `json:"comment,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
	CreatedAt string `json:"createdAt"`
}

type Answer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}
