package service

import (
	"strings"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/repository"
)

type AdminService struct {
	repo *repository.AdminRepo
}

func NewAdminService(repo *repository.AdminRepo) *AdminService {
	return &AdminService{repo: repo}
}

// Collections lists the collections the admin endpoints accept.
func (s *AdminService) Collections() []string {
	return repository.Collections
}

func (s *AdminService) ListIndexes(collection string) ([]map[string]any, error) {
	collection, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	return s.repo.ListIndexes(collection)
}

func (s *AdminService) Compact(collection string) (map[string]any, error) {
	collection, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	return s.repo.Compact(collection)
}

// collection defaults to submissions, the collection that grows.
func (s *AdminService) collection(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return repository.SubmissionsCollection, nil
	}
	for _, c := range repository.Collections {
		if c == name {
			return name, nil
		}
	}
	return "", invalidf("unknown collection %q", name)
}
