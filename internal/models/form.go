package models

// Form is a survey owned by a business.
type Form struct {
	ID          string       `json:"_id,omitempty"`
	OwnerID     string       `json:"ownerId"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Slug        string       `json:"slug"`
	Active      bool         `json:"active"`
	Settings    FormSettings `json:"settings"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// FormSettings controls what happens after a respondent submits.
type FormSettings struct {
	ReviewRedirect  bool    `json:"reviewRedirect"`
	ReviewURL       string  `json:"reviewUrl,omitempty"`
	Threshold       float64 `json:"threshold"`
	ThankYouMessage string  `json:"thankYouMessage,omitempty"`
}
