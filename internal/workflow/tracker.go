package workflow

import (
	"fmt"
	"slices"
	"time"

	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
)

type AttachmentUpload struct {
	FieldID     string
	RecipientID string
	FileName    string
	MimeType    string
	Content     []byte
}

// Tracker keeps per-recipient upload bookkeeping on a template.
type Tracker struct {
	now   func() time.Time
	newID func() (string, error)
}

func NewTracker(now func() time.Time, newID func() (string, error)) Tracker {
	return Tracker{now: now, newID: newID}
}

// UploadAttachment stores the file for a FILE_UPLOAD field owned by the
// uploading recipient, replacing any earlier upload for that field.
func (tr Tracker) UploadAttachment(t *model.Template, up AttachmentUpload) (model.Attachment, error) {
	idx := slices.IndexFunc(t.Fields, func(f autosign.SignatureField) bool {
		return f.ID == up.FieldID
	})
	if idx < 0 {
		return model.Attachment{}, validationError("fieldId", "field %s not found", up.FieldID)
	}

	field := t.Fields[idx]
	if field.Type != autosign.FieldTypeFileUpload {
		return model.Attachment{}, validationError("fieldId", "field %s does not accept uploads", up.FieldID)
	}
	if field.RecipientID != up.RecipientID {
		return model.Attachment{}, validationError("fieldId", "field %s belongs to another recipient", up.FieldID)
	}
	if len(up.Content) == 0 {
		return model.Attachment{}, validationError("file", "uploaded file is empty")
	}

	mimeType := up.MimeType
	if mimeType == "" {
		mimeType = util.DetectContentType(up.FileName, up.Content)
	}

	id, err := tr.newID()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("failed to generate attachment id: %w", err)
	}

	a := model.Attachment{
		ID:          id,
		FieldID:     up.FieldID,
		RecipientID: up.RecipientID,
		FileName:    up.FileName,
		MimeType:    mimeType,
		Content:     up.Content,
		UploadedAt:  tr.now(),
	}

	if existing, ok := t.Attachment(up.FieldID); ok {
		*existing = a
	} else {
		t.Attachments = append(t.Attachments, a)
	}

	return a, nil
}

// RemoveAttachment reports whether an attachment was keyed to the field.
func RemoveAttachment(t *model.Template, fieldID string) bool {
	before := len(t.Attachments)
	t.Attachments = slices.DeleteFunc(t.Attachments, func(a model.Attachment) bool {
		return a.FieldID == fieldID
	})
	return len(t.Attachments) != before
}

// MissingUploads lists the recipient's FILE_UPLOAD fields with no attachment.
func MissingUploads(t *model.Template, recipientID string) []string {
	missing := []string{}
	for _, f := range t.FieldsFor(recipientID) {
		if f.Type != autosign.FieldTypeFileUpload {
			continue
		}
		if _, ok := t.Attachment(f.ID); !ok {
			missing = append(missing, f.ID)
		}
	}
	return missing
}

func IsReadyToFinalize(t *model.Template, recipientID string) bool {
	return len(MissingUploads(t, recipientID)) == 0
}
