package models

// Profile holds the account settings of a business owner.
type Profile struct {
	ID           string `json:"_id,omitempty"`
	UserID       string `json:"userId"`
	BusinessName string `json:"businessName"`
	FullName     string `json:"fullName"`
	// ReviewURL is the public review page (e.g. a Google Maps listing)
	// satisfied respondents are sent to when a form has no URL of its own.
	ReviewURL      string `json:"reviewUrl"`
	NotifyCritical bool   `json:"notifyCritical"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}
