package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

func TestScore(t *testing.T) {
	qs := map[string]models.Question{
		"r5":  {ID: "r5", Type: models.QuestionRating},
		"r10": {ID: "r10", Type: models.QuestionRating, Scale: 10},
		"nps": {ID: "nps", Type: models.QuestionNPS},
		"txt": {ID: "txt", Type: models.QuestionText},
	}

	s := Score(qs, []models.Answer{{QuestionID: "r5", Value: 4.0}, {QuestionID: "r10", Value: 7.0}})
	require.NotNil(t, s)
	assert.Equal(t, 3.75, *s)

	s = Score(qs, []models.Answer{{QuestionID: "nps", Value: 9}, {QuestionID: "r5", Value: 5}})
	require.NotNil(t, s)
	assert.Equal(t, 4.75, *s)

	s = Score(qs, []models.Answer{{QuestionID: "r5", Value: 1.0}, {QuestionID: "r5", Value: 2.0}, {QuestionID: "r5", Value: 2.0}})
	require.NotNil(t, s)
	assert.Equal(t, 1.67, *s)

	assert.Nil(t, Score(qs, []models.Answer{{QuestionID: "txt", Value: "hello"}}))
	assert.Nil(t, Score(qs, []models.Answer{{QuestionID: "r5", Value: "5"}}))
	assert.Nil(t, Score(qs, nil))
}

func TestRoute(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	on := models.FormSettings{ReviewRedirect: true, Threshold: 4}

	tests := []struct {
		name       string
		settings   models.FormSettings
		profileURL string
		score      *float64
		outcome    string
		critical   bool
		redirect   string
	}{
		{"form url wins", models.FormSettings{ReviewRedirect: true, Threshold: 4, ReviewURL: "https://form"}, "https://profile", f(4.5), models.OutcomeReviewRedirect, false, "https://form"},
		{"profile fallback", on, "https://profile", f(4), models.OutcomeReviewRedirect, false, "https://profile"},
		{"below threshold", on, "https://profile", f(3.9), models.OutcomePrivate, false, ""},
		{"no url anywhere", on, "", f(5), models.OutcomePrivate, false, ""},
		{"redirect off", models.FormSettings{Threshold: 4, ReviewURL: "https://form"}, "", f(5), models.OutcomePrivate, false, ""},
		{"critical", on, "https://profile", f(2), models.OutcomePrivate, true, ""},
		{"no score", on, "https://profile", nil, models.OutcomePrivate, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Route(tt.settings, tt.profileURL, tt.score, 2)
			assert.Equal(t, tt.outcome, v.Outcome)
			assert.Equal(t, tt.critical, v.Critical)
			assert.Equal(t, tt.redirect, v.RedirectURL)
		})
	}
}

func TestIntValue(t *testing.T) {
	n, ok := intValue(3.0)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	_, ok = intValue(3.5)
	assert.False(t, ok)
	_, ok = intValue("3")
	assert.False(t, ok)
}
