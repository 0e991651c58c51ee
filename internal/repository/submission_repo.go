package repository

import (
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
)

type SubmissionRepo struct {
	pool *db.Pool
}

func NewSubmissionRepo(pool *db.Pool) *SubmissionRepo {
	return &SubmissionRepo{pool: pool}
}

func (r *SubmissionRepo) EnsureIndexes() error {
	c := r.pool.Get()
	if err := c.CreateIndex(SubmissionsCollection, "formId"); err != nil {
		return err
	}
	return c.CreateCompositeIndex(SubmissionsCollection, []string{"formId", "createdAt"})
}

func (r *SubmissionRepo) EnsureTextIndex() error {
	c := r.pool.Get()
	return c.CreateTextIndex(SubmissionsCollection, []string{"comment"})
}

func (r *SubmissionRepo) Create(sub *models.Submission) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(SubmissionsCollection, toDoc(sub))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

// InsertMany stores subs in one round trip. IDs are not reported back.
func (r *SubmissionRepo) InsertMany(subs []models.Submission) error {
	c := r.pool.Get()
	docs := make([]map[string]any, len(subs))
	for i := range subs {
		docs[i] = toDoc(&subs[i])
	}
	return c.InsertMany(SubmissionsCollection, docs)
}

// FindByFormID returns one page of a form's submissions, newest first, and
// the form's total.
func (r *SubmissionRepo) FindByFormID(formID string, skip, limit int) ([]models.Submission, int, error) {
	return r.Find(SubmissionFilter{FormID: formID}, skip, limit)
}

// FindAllByFormID returns every submission of a form, oldest first.
func (r *SubmissionRepo) FindAllByFormID(formID string) ([]models.Submission, error) {
	c := r.pool.Get()
	docs, err := c.Find(SubmissionsCollection, map[string]any{"formId": formID}, &oxidb.FindOptions{
		Sort: map[string]any{"createdAt": 1},
	})
	if err != nil {
		return nil, err
	}
	return fromDocs[models.Submission](docs), nil
}

// Latest returns the newest submission of a form, or nil.
func (r *SubmissionRepo) Latest(formID string) (*models.Submission, error) {
	c := r.pool.Get()
	docs, err := c.Find(SubmissionsCollection, map[string]any{"formId": formID}, &oxidb.FindOptions{
		Sort:  map[string]any{"createdAt": -1},
		Limit: intPtr(1),
	})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return fromDoc[models.Submission](docs[0])
}

func (r *SubmissionRepo) FindByID(id string) (*models.Submission, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(SubmissionsCollection, byID(id))
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Submission](doc)
}

func (r *SubmissionRepo) Delete(id string) error {
	c := r.pool.Get()
	_, err := c.DeleteOne(SubmissionsCollection, byID(id))
	return err
}

func (r *SubmissionRepo) DeleteByForm(formID string) error {
	c := r.pool.Get()
	_, err := c.Delete(SubmissionsCollection, map[string]any{"formId": formID})
	return err
}

func (r *SubmissionRepo) CountByFormID(formID string) (int, error) {
	c := r.pool.Get()
	return c.Count(SubmissionsCollection, map[string]any{"formId": formID})
}

// TextSearch runs a full-text query over submission comments across all
// forms. The index is shared, so callers must apply a SubmissionFilter to
// the hits.
func (r *SubmissionRepo) TextSearch(query string, limit int) ([]models.Submission, error) {
	c := r.pool.Get()
	docs, err := c.TextSearch(SubmissionsCollection, query, limit)
	if err != nil {
		return nil, err
	}
	return fromDocs[models.Submission](docs), nil
}

// SubmissionFilter narrows submissions by structured fields. Zero fields
// are ignored.
type SubmissionFilter struct {
	FormID   string
	Outcome  string
	Critical *bool
	MinScore *float64
	MaxScore *float64
}

// Query renders f as an OxiDB filter document.
func (f SubmissionFilter) Query() map[string]any {
	var conds []any
	if f.FormID != "" {
		conds = append(conds, map[string]any{"formId": f.FormID})
	}
	if f.Outcome != "" {
		conds = append(conds, map[string]any{"outcome": f.Outcome})
	}
	if f.Critical != nil {
		conds = append(conds, map[string]any{"critical": *f.Critical})
	}
	if f.MinScore != nil {
		conds = append(conds, map[string]any{"score": map[string]any{"$gte": *f.MinScore}})
	}
	if f.MaxScore != nil {
		conds = append(conds, map[string]any{"score": map[string]any{"$lte": *f.MaxScore}})
	}
	switch len(conds) {
	case 0:
		return map[string]any{}
	case 1:
		return conds[0].(map[string]any)
	}
	return map[string]any{"$and": conds}
}

// Matches applies f to a submission already in memory, with the same
// semantics as Query.
func (f SubmissionFilter) Matches(s *models.Submission) bool {
	switch {
	case f.FormID != "" && s.FormID != f.FormID:
		return false
	case f.Outcome != "" && s.Outcome != f.Outcome:
		return false
	case f.Critical != nil && s.Critical != *f.Critical:
		return false
	}
	if f.MinScore != nil && (s.Score == nil || *s.Score < *f.MinScore) {
		return false
	}
	if f.MaxScore != nil && (s.Score == nil || *s.Score > *f.MaxScore) {
		return false
	}
	return true
}

// Find returns one page of submissions matching f, newest first, and the
// number of matches.
func (r *SubmissionRepo) Find(f SubmissionFilter, skip, limit int) ([]models.Submission, int, error) {
	c := r.pool.Get()
	query := f.Query()
	total, err := c.Count(SubmissionsCollection, query)
	if err != nil {
		return nil, 0, err
	}
	docs, err := c.Find(SubmissionsCollection, query, &oxidb.FindOptions{
		Sort:  map[string]any{"createdAt": -1},
		Skip:  &skip,
		Limit: &limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return fromDocs[models.Submission](docs), total, nil
}
