package models

// Template is a reusable survey blueprint.
type Template struct {
	ID          string             `json:"_id,omitempty"`
	Key         string             `json:"key"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Category    string             `json:"category"`
	Questions   []TemplateQuestion `json:"questions"`
	BuiltIn     bool               `json:"builtIn"`
	CreatedAt   string             `json:"createdAt"`
}

// TemplateQuestion uses the template vocabulary for Type (star_rating,
// single_choice, long_text, ...), not the question types of a live form.
type TemplateQuestion struct {
	Type     string   `json:"type" yaml:"type"`
	Text     string   `json:"text" yaml:"text"`
	Required bool     `json:"required" yaml:"required"`
	Options  []string `json:"options,omitempty" yaml:"options"`
	Scale    int      `json:"scale,omitempty" yaml:"scale"`
	Position int      `json:"position" yaml:"position"`
}
