package service

import (
	"golang.org/x/sync/errgroup"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
)

const dashboardWorkers = 4

type DashboardService struct {
	forms *FormService
	subs  *repository.SubmissionRepo
}

func NewDashboardService(forms *FormService, subs *repository.SubmissionRepo) *DashboardService {
	return &DashboardService{forms: forms, subs: subs}
}

type Dashboard struct {
	FormCount     int         `json:"formCount"`
	ResponseCount int         `json:"responseCount"`
	AverageScore  *float64    `json:"averageScore"`
	Forms         []FormStats `json:"forms"`
}

type FormStats struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Slug           string   `json:"slug"`
	Active         bool     `json:"active"`
	ResponseCount  int      `json:"responseCount"`
	AverageScore   *float64 `json:"averageScore"`
	LastResponseAt string   `json:"lastResponseAt,omitempty"`

	scoreSum float64
	scored   int
}

// Overview collects per-form statistics for the actor's forms.
func (s *DashboardService) Overview(actor Actor) (*Dashboard, error) {
	forms, err := s.forms.List(actor)
	if err != nil {
		return nil, err
	}

	stats := make([]FormStats, len(forms))
	var g errgroup.Group
	g.SetLimit(dashboardWorkers)
	for i := range forms {
		f := forms[i]
		st := &stats[i]
		g.Go(func() error {
			subs, err := s.subs.FindAllByFormID(f.ID)
			if err != nil {
				return err
			}
			*st = formStats(f, subs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{FormCount: len(forms), Forms: stats}
	var sum float64
	var scored int
	for _, st := range stats {
		d.ResponseCount += st.ResponseCount
		sum += st.scoreSum
		scored += st.scored
	}
	if scored > 0 {
		avg := round2(sum / float64(scored))
		d.AverageScore = &avg
	}
	return d, nil
}

func formStats(f models.Form, subs []models.Submission) FormStats {
	st := FormStats{ID: f.ID, Title: f.Title, Slug: f.Slug, Active: f.Active, ResponseCount: len(subs)}
	for _, sub := range subs {
		if sub.Score != nil {
			st.scoreSum += *sub.Score
			st.scored++
		}
		if sub.CreatedAt > st.LastResponseAt {
			st.LastResponseAt = sub.CreatedAt
		}
	}
	if st.scored > 0 {
		avg := round2(st.scoreSum / float64(st.scored))
		st.AverageScore = &avg
	}
	return st
}
