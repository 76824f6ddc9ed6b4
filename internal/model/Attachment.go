package model

import "time"

type Attachment struct {
	ID          string    `json:"id"`
	FieldID     string    `json:"fieldId"`
	RecipientID string    `json:"recipientId"`
	FileName    string    `json:"fileName"`
	MimeType    string    `json:"mimeType"`
	Content     []byte    `json:"content"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// AttachmentSummary is an attachment without its content.
type AttachmentSummary struct {
	ID          string    `json:"id"`
	FieldID     string    `json:"fieldId"`
	RecipientID string    `json:"recipientId"`
	FileName    string    `json:"fileName"`
	MimeType    string    `json:"mimeType"`
	Size        int       `json:"size"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func (a Attachment) Summary() AttachmentSummary {
	return AttachmentSummary{
		ID:          a.ID,
		FieldID:     a.FieldID,
		RecipientID: a.RecipientID,
		FileName:    a.FileName,
		MimeType:    a.MimeType,
		Size:        len(a.Content),
		UploadedAt:  a.UploadedAt,
	}
}
