package service

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/config"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
)

const (
	demoBatchSize = 500
	demoSpanDays  = 30
)

var demoComments = []string{
	"Friendly staff and quick service.",
	"Waited too long for the bill.",
	"Great atmosphere, will come back.",
	"The room was not cleaned properly.",
	"Excellent value for money.",
	"Parking was hard to find.",
	"Loved it, thanks!",
	"Order arrived cold.",
}

// DemoService fills a form with generated responses for demos and load
// testing.
type DemoService struct {
	forms     *FormService
	questions *repository.QuestionRepo
	subs      *repository.SubmissionRepo
	profiles  *ProfileService
	routing   config.RoutingConfig
	log       *zap.Logger
}

func NewDemoService(forms *FormService, questions *repository.QuestionRepo, subs *repository.SubmissionRepo, profiles *ProfileService, routing config.RoutingConfig, logger *zap.Logger) *DemoService {
	return &DemoService{forms: forms, questions: questions, subs: subs, profiles: profiles, routing: routing, log: logger}
}

// Seed inserts count generated submissions spread over the last 30 days.
// The same seed yields the same answers.
func (s *DemoService) Seed(actor Actor, formID string, count int, seed int64) (int, error) {
	if count <= 0 {
		return 0, invalidf("count must be positive")
	}
	form, err := s.forms.Get(actor, formID)
	if err != nil {
		return 0, err
	}
	qs, err := s.questions.FindByForm(form.ID)
	if err != nil {
		return 0, err
	}
	if len(qs) == 0 {
		return 0, invalidf("form has no questions")
	}
	owner, err := s.profiles.Get(form.OwnerID)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]models.Question, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	rng := rand.New(rand.NewSource(seed))
	now := time.Now()
	start := time.Now()
	inserted := 0
	for inserted < count {
		n := demoBatchSize
		if rem := count - inserted; rem < n {
			n = rem
		}
		batch := make([]models.Submission, n)
		for i := range batch {
			answers, comment := demoAnswers(rng, qs)
			v := Route(form.Settings, owner.ReviewURL, Score(byID, answers), s.routing.CriticalThreshold)
			at := now.Add(-time.Duration(rng.Int63n(int64(demoSpanDays * 24 * time.Hour))))
			batch[i] = models.Submission{
				FormID:    form.ID,
				Answers:   answers,
				Score:     v.Score,
				Outcome:   v.Outcome,
				Critical:  v.Critical,
				Comment:   comment,
				UserAgent: "grove-demo",
				CreatedAt: models.Timestamp(at),
			}
		}
		if err := s.subs.InsertMany(batch); err != nil {
			return inserted, err
		}
		inserted += n
	}
	s.log.Info("demo responses inserted",
		zap.String("form", form.ID),
		zap.Int("count", inserted),
		zap.Duration("took", time.Since(start).Round(time.Millisecond)),
	)
	return inserted, nil
}

// demoAnswers draws one response. Ratings lean positive so the routing
// split looks realistic.
func demoAnswers(rng *rand.Rand, qs []models.Question) ([]models.Answer, string) {
	mood := rng.Float64()
	var out []models.Answer
	var comment string
	for _, q := range qs {
		if !q.Required && rng.Intn(5) == 0 {
			continue
		}
		var v any
		switch q.Type {
		case models.QuestionRating:
			v = scaled(mood, rng, 1, q.RatingScale())
		case models.QuestionNPS:
			v = scaled(mood, rng, 0, models.NPSMax)
		case models.QuestionMultipleChoice:
			v = q.Options[rng.Intn(len(q.Options))]
		case models.QuestionYesNo:
			v = rng.Float64() < mood+0.2
		case models.QuestionText:
			c := demoComments[rng.Intn(len(demoComments))]
			if comment != "" {
				comment += "\n"
			}
			comment += c
			v = c
		default:
			continue
		}
		out = append(out, models.Answer{QuestionID: q.ID, Value: v})
	}
	return out, comment
}

func scaled(mood float64, rng *rand.Rand, lo, hi int) int {
	x := mood*0.7 + rng.Float64()*0.3 + 0.15
	if x > 1 {
		x = 1
	}
	return lo + int(x*float64(hi-lo)+0.5)
}
