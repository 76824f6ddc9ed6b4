package util

import (
	"errors"
	"fmt"
	"net/url"
)

var ErrNotSigningLink = errors.New("link is not a signing link")

type SigningLink struct {
	TemplateID  string `json:"templateId" form:"templateId" binding:"required,strNotEmpty"`
	RecipientID string `json:"recipientId" form:"recipientId" binding:"required,strNotEmpty"`
}

// BuildSigningLink returns <base>/?templateId=..&recipientId=..
func BuildSigningLink(baseURL, templateId, recipientId string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Path == "" {
		u.Path = "/"
	}

	q := url.Values{}
	q.Set("templateId", templateId)
	q.Set("recipientId", recipientId)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ParseSigningLink only routes to signing when both ids are present.
func ParseSigningLink(link string) (SigningLink, error) {
	u, err := url.Parse(link)
	if err != nil {
		return SigningLink{}, fmt.Errorf("%w: %v", ErrNotSigningLink, err)
	}

	q := u.Query()
	sl := SigningLink{
		TemplateID:  q.Get("templateId"),
		RecipientID: q.Get("recipientId"),
	}
	if sl.TemplateID == "" || sl.RecipientID == "" {
		return SigningLink{}, ErrNotSigningLink
	}

	return sl, nil
}
