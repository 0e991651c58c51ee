package repository

import (
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/db"
	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/models"
)

type UserRepo struct {
	pool *db.Pool
}

func NewUserRepo(pool *db.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) EnsureIndexes() error {
	c := r.pool.Get()
	return c.CreateUniqueIndex(UsersCollection, "email")
}

func (r *UserRepo) FindByEmail(email string) (*models.User, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(UsersCollection, map[string]any{"email": email})
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.User](doc)
}

func (r *UserRepo) FindByID(id string) (*models.User, error) {
	c := r.pool.Get()
	doc, err := c.FindOne(UsersCollection, byID(id))
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.User](doc)
}

func (r *UserRepo) Create(user *models.User) (string, error) {
	c := r.pool.Get()
	result, err := c.Insert(UsersCollection, toDoc(user))
	if err != nil {
		return "", err
	}
	return extractID(result), nil
}

func (r *UserRepo) UpdatePassword(id, hash string) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(UsersCollection, byID(id), map[string]any{"$set": map[string]any{"passwordHash": hash}})
	return err
}

func (r *UserRepo) SetRole(id, role string) error {
	c := r.pool.Get()
	_, err := c.UpdateOne(UsersCollection, byID(id), map[string]any{"$set": map[string]any{"role": role}})
	return err
}
