package repository

import (
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/oxidb"
)

type FormRepo struct {
	pool *db.Pool
}

func NewFormRepo(pool *db.Pool) *FormRepo {
	return &FormRepo{pool: pool}
}

func (r *FormRepo) EnsureIndexes() error {
	c := r.pool.Get()
	if err := c.CreateUniqueIndex(FormsCollection, "slug"); err != nil {
		return err
	}
	return c.CreateIndex(FormsCollection, "ownerId")
}

func (r *FormRepo) Create(form *models.Form) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(FormsCollection, toDoc(form))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

// FindByOwner lists forms newest first. An empty owner lists every form.
func (r *FormRepo) FindByOwner(ownerID string) ([]models.Form, error) {
	c := r.pool.Get()
	query := map[string]any{}
	if ownerID != "" {
		query["ownerId"] = ownerID
	}
	docs, err := c.Find(FormsCollection, query, &oxidb.FindOptions{
		Sort: map[string]any{"createdAt": -1},
	})
	if err != nil {
		return nil, err
	}
	return fromDocs[models.Form](docs), nil
}

func (r *FormRepo) FindByID(id string) (*models.Form, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(FormsCollection, byID(id))
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Form](doc)
}

func (r *FormRepo) FindBySlug(slug string) (*models.Form, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(FormsCollection, map[string]any{"slug": slug})
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Form](doc)
}

func (r *FormRepo) Update(form *models.Form) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(FormsCollection, byID(form.ID), map[string]any{"$set": toDoc(form)})
	return err
}

func (r *FormRepo) Delete(id string) error {
	c := r.pool.Get()
	_, err := c.DeleteOne(FormsCollection, byID(id))
	return err
}
