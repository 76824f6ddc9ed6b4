package workflow

import (
	"fmt"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
)

const completedMessage = "Document fully signed and completed."

// Each transition below appends exactly one activity log entry, plus the
// completion entry when a signing event completes the document.

func CreateSent(t *model.Template, actor string, at time.Time) {
	t.Status = constant.TemplateStatusSent
	Append(t, at, fmt.Sprintf("Document created and sent to %d recipient(s) by %s.", len(t.Recipients), actor))
}

// SaveSetup moves an edited document to Draft, or to Sent when published.
func SaveSetup(t *model.Template, publish bool, actor string, at time.Time) error {
	if !t.Status.Editable() {
		return fmt.Errorf("%w: document is %s", ErrNotEditable, t.Status)
	}

	if !publish {
		t.Status = constant.TemplateStatusDraft
		Append(t, at, fmt.Sprintf("Document saved as draft by %s.", actor))
		return nil
	}

	t.Status = constant.TemplateStatusSent
	Append(t, at, fmt.Sprintf("Document saved and sent for signing by %s.", actor))
	completeIfAllSigned(t, at)
	return nil
}

// RecordSigning marks the recipient as signed and completes the document
// when nobody is left pending. It reports whether the document completed.
func RecordSigning(t *model.Template, recipientID string, record model.SignerRecord, at time.Time) (bool, error) {
	if t.Status != constant.TemplateStatusSent {
		return false, fmt.Errorf("%w: document is %s", ErrNotOpenForSigning, t.Status)
	}

	r, ok := t.Recipient(recipientID)
	if !ok {
		return false, ErrNotRecipient
	}
	if r.Status == constant.RecipientStatusSigned {
		return false, ErrAlreadySigned
	}

	signedAt := at
	r.Status = constant.RecipientStatusSigned
	r.SignedAt = &signedAt
	r.SignerInfo = &record
	Append(t, at, fmt.Sprintf("%s (%s) signed the document.", r.Name, r.Email))

	return completeIfAllSigned(t, at), nil
}

func completeIfAllSigned(t *model.Template, at time.Time) bool {
	if t.Status != constant.TemplateStatusSent || !t.AllSigned() {
		return false
	}

	t.Status = constant.TemplateStatusCompleted
	Append(t, at, completedMessage)
	return true
}

// RevertToDraft clears every signature and restarts signing from the
// original document. Reverting a Draft again only logs the action.
func RevertToDraft(t *model.Template, confirm bool, actor string, at time.Time) error {
	if !confirm {
		return ErrConfirmationRequired
	}
	if t.Status.Terminal() {
		return transitionError(string(t.Status), "revert")
	}

	for i := range t.Recipients {
		t.Recipients[i].Reset()
	}
	t.LastSignedPDF = nil
	t.Attachments = nil
	t.Status = constant.TemplateStatusDraft
	Append(t, at, fmt.Sprintf("Document reverted to draft by %s. All signatures were cleared.", actor))

	return nil
}

func Approve(t *model.Template, actor string, at time.Time) error {
	if t.Status != constant.TemplateStatusCompleted {
		return transitionError(string(t.Status), "approve")
	}

	t.Status = constant.TemplateStatusApproved
	Append(t, at, fmt.Sprintf("Document approved by %s.", actor))
	return nil
}

func Reject(t *model.Template, actor string, at time.Time) error {
	if t.Status != constant.TemplateStatusCompleted {
		return transitionError(string(t.Status), "reject")
	}

	t.Status = constant.TemplateStatusRejected
	Append(t, at, fmt.Sprintf("Document rejected by %s.", actor))
	return nil
}
