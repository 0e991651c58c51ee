package repository

import (
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
)

type QuestionRepo struct {
	pool *db.Pool
}

func NewQuestionRepo(pool *db.Pool) *QuestionRepo {
	return &QuestionRepo{pool: pool}
}

func (r *QuestionRepo) EnsureIndexes() error {
	c := r.pool.Get()
	return c.CreateCompositeIndex(QuestionsCollection, []string{"formId", "position"})
}

func (r *QuestionRepo) Create(q *models.Question) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(QuestionsCollection, toDoc(q))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

// FindByForm returns the questions of a form ordered by position.
func (r *QuestionRepo) FindByForm(formID string) ([]models.Question, error) {
	c := r.pool.Get()
	docs, err := c.Find(QuestionsCollection, map[string]any{"formId": formID}, &oxidb.FindOptions{
		Sort: map[string]any{"position": 1},
	})
	if err != nil {
		return nil, err
	}
	return fromDocs[models.Question](docs), nil
}

func (r *QuestionRepo) FindByID(id string) (*models.Question, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(QuestionsCollection, byID(id))
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Question](doc)
}

func (r *QuestionRepo) Update(q *models.Question) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(QuestionsCollection, byID(q.ID), map[string]any{"$set": toDoc(q)})
	return err
}

func (r *QuestionRepo) SetPosition(id string, position int) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(QuestionsCollection, byID(id), map[string]any{"$set": map[string]any{"position": position}})
	return err
}

func (r *QuestionRepo) Delete(id string) error {
	c := r.pool.Get()
	_, err := c.DeleteOne(QuestionsCollection, byID(id))
	return err
}

func (r *QuestionRepo) DeleteByForm(formID string) error {
	c := r.pool.Get()
	_, err := c.Delete(QuestionsCollection, map[string]any{"formId": formID})
	return err
}
