package service

import (
	"fmt"

	"github.com/trytools18/reputation-grove-2ebe90a0-sub000/internal/share"
)

type ShareService struct {
	forms   *FormService
	baseURL string
}

func NewShareService(forms *FormService, baseURL string) *ShareService {
	return &ShareService{forms: forms, baseURL: baseURL}
}

type ShareLink struct {
	URL    string `json:"url"`
	Slug   string `json:"slug"`
	Active bool   `json:"active"`
}

func (s *ShareService) Link(actor Actor, formID string) (*ShareLink, error) {
	form, err := s.forms.Get(actor, formID)
	if err != nil {
		return nil, err
	}
	return &ShareLink{URL: share.Link(s.baseURL, form.Slug), Slug: form.Slug, Active: form.Active}, nil
}

// QRCode renders the form's public link as a PNG.
func (s *ShareService) QRCode(actor Actor, formID string, size int) ([]byte, error) {
	link, err := s.Link(actor, formID)
	if err != nil {
		return nil, err
	}
	png, err := share.QRCode(link.URL, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
