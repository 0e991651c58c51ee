package service

import (
	"math"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

// Verdict is the routing decision for one submission.
type Verdict struct {
	Score       *float64
	Outcome     string
	Critical    bool
	RedirectURL string
}

// Score averages the rating and NPS answers on a 0-5 scale. Ratings are
// scaled by 5/Scale and NPS values halved. It returns nil when no scored
// question was answered.
func Score(questions map[string]models.Question, answers []models.Answer) *float64 {
	var sum float64
	var n int
	for _, a := range answers {
		q, ok := questions[a.QuestionID]
		if !ok {
			continue
		}
		v, ok := intValue(a.Value)
		if !ok {
			continue
		}
		switch q.Type {
		case models.QuestionRating:
			sum += float64(v) / float64(q.RatingScale()) * 5
			n++
		case models.QuestionNPS:
			sum += float64(v) / 2
			n++
		}
	}
	if n == 0 {
		return nil
	}
	s := round2(sum / float64(n))
	return &s
}

// Route decides where a respondent goes. The form's review URL wins over the
// owner's profile URL. Without a score the respondent always stays private.
func Route(settings models.FormSettings, profileURL string, score *float64, criticalThreshold float64) Verdict {
	v := Verdict{Score: score, Outcome: models.OutcomePrivate}
	if score == nil {
		return v
	}
	v.Critical = *score <= criticalThreshold

	target := settings.ReviewURL
	if target == "" {
		target = profileURL
	}
	if settings.ReviewRedirect && target != "" && *score >= settings.Threshold {
		v.Outcome = models.OutcomeReviewRedirect
		v.RedirectURL = target
	}
	return v
}

// intValue reads an integral number decoded from JSON.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
