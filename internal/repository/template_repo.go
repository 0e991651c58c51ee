package repository

import (
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
)

type TemplateRepo struct {
	pool *db.Pool
}

func NewTemplateRepo(pool *db.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func (r *TemplateRepo) EnsureIndexes() error {
	c := r.pool.Get()
	if err := c.CreateUniqueIndex(TemplatesCollection, "key"); err != nil {
		return err
	}
	return c.CreateIndex(TemplatesCollection, "category")
}

func (r *TemplateRepo) Create(t *models.Template) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(TemplatesCollection, toDoc(t))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

// FindAll lists templates sorted by title, optionally within one category.
func (r *TemplateRepo) FindAll(category string) ([]models.Template, error) {
	c := r.pool.Get()
	query := map[string]any{}
	if category != "" {
		query["category"] = category
	}
	docs, err := c.Find(TemplatesCollection, query, &oxidb.FindOptions{
		Sort: map[string]any{"title": 1},
	})
	if err != nil {
		return nil, err
	}
	return fromDocs[models.Template](docs), nil
}

func (r *TemplateRepo) FindByID(id string) (*models.Template, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(TemplatesCollection, byID(id))
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Template](doc)
}

func (r *TemplateRepo) FindByKey(key string) (*models.Template, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(TemplatesCollection, map[string]any{"key": key})
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Template](doc)
}
