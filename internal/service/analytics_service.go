package service

import (
	"math"
	"time"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
)

const (
	defaultTimelineDays = 30
	maxTimelineDays     = 365
	recentTextAnswers   = 50
	otherOption         = "Other"
	dayLayout           = "2006-01-02"
)

type Summary struct {
	FormID       string            `json:"formId"`
	Responses    int               `json:"responses"`
	AverageScore *float64          `json:"averageScore"`
	Redirected   int               `json:"redirected"`
	Critical     int               `json:"critical"`
	Questions    []QuestionSummary `json:"questions"`
	Timeline     []DayCount        `json:"timeline"`
}

// QuestionSummary aggregates the answers to one question. Which fields are
// set depends on Type.
type QuestionSummary struct {
	QuestionID   string        `json:"questionId"`
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	Answered     int           `json:"answered"`
	Distribution []ValueCount  `json:"distribution,omitempty"`
	Average      *float64      `json:"average,omitempty"`
	NPS          *NPSBreakdown `json:"nps,omitempty"`
	Options      []OptionCount `json:"options,omitempty"`
	Yes          *int          `json:"yes,omitempty"`
	No           *int          `json:"no,omitempty"`
	Answers      []TextAnswer  `json:"answers,omitempty"`
}

type ValueCount struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

type NPSBreakdown struct {
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`
	Score      int `json:"npsScore"`
}

type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

type TextAnswer struct {
	Text        string `json:"text"`
	SubmittedAt string `json:"submittedAt"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsService struct {
	forms     *FormService
	questions *repository.QuestionRepo
	subs      *repository.SubmissionRepo
	now       func() time.Time
}

func NewAnalyticsService(forms *FormService, questions *repository.QuestionRepo, subs *repository.SubmissionRepo) *AnalyticsService {
	return &AnalyticsService{forms: forms, questions: questions, subs: subs, now: time.Now}
}

func (s *AnalyticsService) Summarize(actor Actor, formID string, days int) (*Summary, error) {
	if _, err := s.forms.Get(actor, formID); err != nil {
		return nil, err
	}
	qs, err := s.questions.FindByForm(formID)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.FindAllByFormID(formID)
	if err != nil {
		return nil, err
	}
	sum := Summarize(qs, subs, days, s.now())
	sum.FormID = formID
	return &sum, nil
}

// Summarize aggregates subs, which must be ordered oldest first. qs must be
// in position order. Values that do not fit their question are skipped.
func Summarize(qs []models.Question, subs []models.Submission, days int, now time.Time) Summary {
	out := Summary{Responses: len(subs), Questions: make([]QuestionSummary, 0, len(qs))}

	var scoreSum float64
	var scored int
	for _, sub := range subs {
		if sub.Score != nil {
			scoreSum += *sub.Score
			scored++
		}
		if sub.Outcome == models.OutcomeReviewRedirect {
			out.Redirected++
		}
		if sub.Critical {
			out.Critical++
		}
	}
	if scored > 0 {
		avg := round2(scoreSum / float64(scored))
		out.AverageScore = &avg
	}

	answers := answersByQuestion(subs)
	for _, q := range qs {
		out.Questions = append(out.Questions, summarizeQuestion(q, answers[q.ID]))
	}
	out.Timeline = timeline(subs, days, now)
	return out
}

type timedValue struct {
	value any
	at    string
}

func answersByQuestion(subs []models.Submission) map[string][]timedValue {
	m := map[string][]timedValue{}
	for _, sub := range subs {
		for _, a := range sub.Answers {
			m[a.QuestionID] = append(m[a.QuestionID], timedValue{value: a.Value, at: sub.CreatedAt})
		}
	}
	return m
}

func summarizeQuestion(q models.Question, vals []timedValue) QuestionSummary {
	qs := QuestionSummary{QuestionID: q.ID, Type: q.Type, Text: q.Text}
	switch q.Type {
	case models.QuestionRating:
		qs.Distribution, qs.Answered, qs.Average = distribution(vals, 1, q.RatingScale())
	case models.QuestionNPS:
		qs.Distribution, qs.Answered, qs.Average = distribution(vals, 0, models.NPSMax)
		qs.NPS = npsBreakdown(qs.Distribution, qs.Answered)
	case models.QuestionMultipleChoice:
		qs.Options, qs.Answered = optionCounts(q.Options, vals)
	case models.QuestionYesNo:
		var yes, no int
		for _, v := range vals {
			b, ok := v.value.(bool)
			if !ok {
				continue
			}
			if b {
				yes++
			} else {
				no++
			}
		}
		qs.Yes, qs.No, qs.Answered = &yes, &no, yes+no
	case models.QuestionText:
		qs.Answers = []TextAnswer{}
		for i := len(vals) - 1; i >= 0; i-- {
			s, ok := vals[i].value.(string)
			if !ok || s == "" {
				continue
			}
			qs.Answered++
			if len(qs.Answers) < recentTextAnswers {
				qs.Answers = append(qs.Answers, TextAnswer{Text: s, SubmittedAt: vals[i].at})
			}
		}
	}
	return qs
}

// distribution counts integer answers in lo..hi, zero-filled.
func distribution(vals []timedValue, lo, hi int) ([]ValueCount, int, *float64) {
	dist := make([]ValueCount, hi-lo+1)
	for i := range dist {
		dist[i].Value = lo + i
	}
	var sum, n int
	for _, v := range vals {
		x, ok := intValue(v.value)
		if !ok || x < lo || x > hi {
			continue
		}
		dist[x-lo].Count++
		sum += x
		n++
	}
	if n == 0 {
		return dist, 0, nil
	}
	avg := round2(float64(sum) / float64(n))
	return dist, n, &avg
}

func npsBreakdown(dist []ValueCount, answered int) *NPSBreakdown {
	b := &NPSBreakdown{}
	for _, d := range dist {
		switch {
		case d.Value >= 9:
			b.Promoters += d.Count
		case d.Value >= 7:
			b.Passives += d.Count
		default:
			b.Detractors += d.Count
		}
	}
	if answered > 0 {
		b.Score = int(math.Round(100 * float64(b.Promoters-b.Detractors) / float64(answered)))
	}
	return b
}

// optionCounts counts picks per option. A list answer counts once per
// picked option; answered counts responses, not picks.
func optionCounts(options []string, vals []timedValue) ([]OptionCount, int) {
	idx := make(map[string]int, len(options))
	counts := make([]OptionCount, len(options))
	for i, o := range options {
		idx[o] = i
		counts[i].Option = o
	}
	var other, answered int
	tally := func(s string) {
		if i, ok := idx[s]; ok {
			counts[i].Count++
		} else {
			other++
		}
	}
	for _, v := range vals {
		switch c := v.value.(type) {
		case string:
			if c == "" {
				continue
			}
			tally(c)
			answered++
		case []any:
			picked := false
			for _, item := range c {
				if s, ok := item.(string); ok && s != "" {
					tally(s)
					picked = true
				}
			}
			if picked {
				answered++
			}
		case []string:
			for _, s := range c {
				tally(s)
			}
			if len(c) > 0 {
				answered++
			}
		}
	}
	if other > 0 {
		counts = append(counts, OptionCount{Option: otherOption, Count: other})
	}
	return counts, answered
}

// timeline buckets submissions per UTC day over the last days days,
// ending with the day of now.
func timeline(subs []models.Submission, days int, now time.Time) []DayCount {
	if days <= 0 {
		days = defaultTimelineDays
	}
	if days > maxTimelineDays {
		days = maxTimelineDays
	}
	today := now.UTC().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -(days - 1))

	out := make([]DayCount, days)
	idx := make(map[string]int, days)
	for i := range out {
		d := start.AddDate(0, 0, i).Format(dayLayout)
		out[i].Date = d
		idx[d] = i
	}
	for _, sub := range subs {
		t, err := models.ParseTimestamp(sub.CreatedAt)
		if err != nil {
			continue
		}
		if i, ok := idx[t.UTC().Format(dayLayout)]; ok {
			out[i].Count++
		}
	}
	return out
}
