package repository

import (
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

type ProfileRepo struct {
	pool *db.Pool
}

func NewProfileRepo(pool *db.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) EnsureIndexes() error {
	c := r.pool.Get()
	return c.CreateUniqueIndex(ProfilesCollection, "userId")
}

func (r *ProfileRepo) FindByUserID(userID string) (*models.Profile, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(ProfilesCollection, map[string]any{"userId": userID})
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Profile](doc)
}

func (r *ProfileRepo) Create(p *models.Profile) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(ProfilesCollection, toDoc(p))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

func (r *ProfileRepo) Update(p *models.Profile) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(ProfilesCollection, byID(p.ID), map[string]any{"$set": toDoc(p)})
	return err
}
