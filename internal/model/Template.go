package model

import (
	"slices"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
)

type Requester struct {
	Name  string `json:"name" form:"name" binding:"omitempty,cmax=100"`
	Email string `json:"email" form:"email" binding:"omitempty,email"`
}

// Template is the persisted document record. All PDF bytes are stored base64
// encoded by encoding/json. Only the original and the latest signed revision
// are kept; SigningBase picks the current one.
type Template struct {
	ID            string                    `json:"id"`
	SchemaVersion int                       `json:"schemaVersion"`
	OriginalPDF   []byte                    `json:"originalPdf"`
	LastSignedPDF []byte                    `json:"lastSignedPdf,omitempty"`
	FileName      string                    `json:"fileName"`
	Requester     Requester                 `json:"requester"`
	Recipients    []Recipient               `json:"recipients"`
	Fields        []autosign.SignatureField `json:"fields"`
	Attachments   []Attachment              `json:"attachments"`
	Status        constant.TemplateStatus   `json:"status"`
	ActivityLog   []ActivityLogEntry        `json:"activityLog"`
	// Page rotation in degrees keyed by 1-based page number
	PageRotations map[int]int `json:"pageRotations,omitempty"`
	PageCount     int         `json:"pageCount"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (t *Template) Recipient(recipientID string) (*Recipient, bool) {
	idx := slices.IndexFunc(t.Recipients, func(r Recipient) bool {
		return r.ID == recipientID
	})
	if idx < 0 {
		return nil, false
	}
	return &t.Recipients[idx], true
}

func (t *Template) RecipientIDs() []string {
	ids := make([]string, 0, len(t.Recipients))
	for _, r := range t.Recipients {
		ids = append(ids, r.ID)
	}
	return ids
}

// AllSigned is false for a template without recipients.
func (t *Template) AllSigned() bool {
	if len(t.Recipients) == 0 {
		return false
	}
	for _, r := range t.Recipients {
		if r.Status != constant.RecipientStatusSigned {
			return false
		}
	}
	return true
}

// SigningBase is the document the next signer's marks are drawn onto.
func (t *Template) SigningBase() []byte {
	if len(t.LastSignedPDF) > 0 {
		return t.LastSignedPDF
	}
	return t.OriginalPDF
}

// Rotation returns the normalized rotation of a 1-based page.
func (t *Template) Rotation(page int) int {
	return autosign.NormalizeRotation(t.PageRotations[page])
}

func (t *Template) FieldsFor(recipientID string) []autosign.SignatureField {
	var fields []autosign.SignatureField
	for _, f := range t.Fields {
		if f.RecipientID == recipientID {
			fields = append(fields, f)
		}
	}
	return fields
}

func (t *Template) Attachment(fieldID string) (*Attachment, bool) {
	idx := slices.IndexFunc(t.Attachments, func(a Attachment) bool {
		return a.FieldID == fieldID
	})
	if idx < 0 {
		return nil, false
	}
	return &t.Attachments[idx], true
}

// Summary drops the document bytes for listings.
func (t *Template) Summary() TemplateSummary {
	signed := 0
	for _, r := range t.Recipients {
		if r.Status == constant.RecipientStatusSigned {
			signed++
		}
	}

	return TemplateSummary{
		ID:              t.ID,
		FileName:        t.FileName,
		Requester:       t.Requester,
		Recipients:      t.Recipients,
		Fields:          t.Fields,
		Status:          t.Status,
		PageCount:       t.PageCount,
		PageRotations:   t.PageRotations,
		SignedCount:     signed,
		AttachmentCount: len(t.Attachments),
		HasSignedPDF:    len(t.LastSignedPDF) > 0,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type TemplateSummary struct {
	ID              string                    `json:"id"`
	FileName        string                    `json:"fileName"`
	Requester       Requester                 `json:"requester"`
	Recipients      []Recipient               `json:"recipients"`
	Fields          []autosign.SignatureField `json:"fields"`
	Status          constant.TemplateStatus   `json:"status"`
	PageCount       int                       `json:"pageCount"`
	PageRotations   map[int]int               `json:"pageRotations,omitempty"`
	SignedCount     int                       `json:"signedCount"`
	AttachmentCount int                       `json:"attachmentCount"`
	HasSignedPDF    bool                      `json:"hasSignedPdf"`
	CreatedAt       time.Time                 `json:"createdAt"`
	UpdatedAt       time.Time                 `json:"updatedAt"`
}
