package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
)

// SigningSession is what a recipient sees when opening their signing link.
type SigningSession struct {
	TemplateID      string                    `json:"templateId"`
	FileName        string                    `json:"fileName"`
	Status          constant.TemplateStatus   `json:"status"`
	Requester       model.Requester           `json:"requester"`
	Recipient       model.Recipient           `json:"recipient"`
	Fields          []autosign.SignatureField `json:"fields"`
	Attachments     []model.AttachmentSummary `json:"attachments"`
	MissingUploads  []string                  `json:"missingUploads"`
	ReadyToFinalize bool                      `json:"readyToFinalize"`
	PageCount       int                       `json:"pageCount"`
	PageRotations   map[int]int               `json:"pageRotations,omitempty"`
}

type FinalizeInput struct {
	TemplateID  string
	RecipientID string
	Signer      autosign.SignerInfo
}

type FinalizeResult struct {
	TemplateID  string                  `json:"templateId"`
	RecipientID string                  `json:"recipientId"`
	Status      constant.TemplateStatus `json:"status"`
	Completed   bool                    `json:"completed"`
	Marks       int                     `json:"marks"`
	FileName    string                  `json:"fileName"`
	// Always "visual": the attestation is stamped text, not a PKI signature.
	AttestationKind string                `json:"attestation"`
	Attestation     *autosign.Attestation `json:"attestationDetails,omitempty"`
}

// signingRecipient checks that the recipient may still sign the template.
func signingRecipient(t *model.Template, recipientID string) (*model.Recipient, error) {
	r, ok := t.Recipient(recipientID)
	if !ok {
		return nil, ErrNotRecipient
	}
	if r.Status == constant.RecipientStatusSigned {
		return nil, ErrAlreadySigned
	}
	if t.Status != constant.TemplateStatusSent {
		return nil, fmt.Errorf("%w: document is %s", ErrNotOpenForSigning, t.Status)
	}
	return r, nil
}

func (s *Service) Open(ctx context.Context, templateID, recipientID string) (*SigningSession, error) {
	s.logger.Debugf("Open signing session: template %s, recipient %s", templateID, recipientID)

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	r, err := signingRecipient(t, recipientID)
	if err != nil {
		return nil, err
	}

	return newSigningSession(t, r), nil
}

// OpenLink is Open for a full signing link.
func (s *Service) OpenLink(ctx context.Context, link string) (*SigningSession, error) {
	sl, err := util.ParseSigningLink(link)
	if err != nil {
		return nil, err
	}
	return s.Open(ctx, sl.TemplateID, sl.RecipientID)
}

func newSigningSession(t *model.Template, r *model.Recipient) *SigningSession {
	attachments := []model.AttachmentSummary{}
	for _, a := range t.Attachments {
		if a.RecipientID == r.ID {
			attachments = append(attachments, a.Summary())
		}
	}
	missing := MissingUploads(t, r.ID)

	return &SigningSession{
		TemplateID:      t.ID,
		FileName:        t.FileName,
		Status:          t.Status,
		Requester:       t.Requester,
		Recipient:       *r,
		Fields:          t.FieldsFor(r.ID),
		Attachments:     attachments,
		MissingUploads:  missing,
		ReadyToFinalize: len(missing) == 0,
		PageCount:       t.PageCount,
		PageRotations:   t.PageRotations,
	}
}

// SigningDocument returns the PDF the recipient signs on top of.
func (s *Service) SigningDocument(ctx context.Context, templateID, recipientID string) (string, []byte, error) {
	t, err := s.load(ctx, templateID)
	if err != nil {
		return "", nil, err
	}
	if _, err := signingRecipient(t, recipientID); err != nil {
		return "", nil, err
	}
	return t.FileName, t.SigningBase(), nil
}

func (s *Service) UploadAttachment(ctx context.Context, templateID string, up AttachmentUpload) (*SigningSession, error) {
	s.logger.Debugf("Upload attachment: template %s, recipient %s, field %s", templateID, up.RecipientID, up.FieldID)

	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	r, err := signingRecipient(t, up.RecipientID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a, err := NewTracker(s.now, s.newID).UploadAttachment(t, up)
	if err != nil {
		return nil, err
	}
	Append(t, now, fmt.Sprintf("%s uploaded %s.", r.Name, a.FileName))
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, constant.ActivityUploaded, r.ID)

	return newSigningSession(t, r), nil
}

func (s *Service) RemoveAttachment(ctx context.Context, templateID, recipientID, fieldID string) (*SigningSession, error) {
	s.logger.Debugf("Remove attachment: template %s, recipient %s, field %s", templateID, recipientID, fieldID)

	unlock := s.locks.Lock(templateID)
	defer unlock()

	t, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	r, err := signingRecipient(t, recipientID)
	if err != nil {
		return nil, err
	}

	a, ok := t.Attachment(fieldID)
	if !ok || a.RecipientID != recipientID {
		return nil, validationError("fieldId", "no upload found for field %s", fieldID)
	}
	fileName := a.FileName
	RemoveAttachment(t, fieldID)

	now := s.now()
	Append(t, now, fmt.Sprintf("%s removed %s.", r.Name, fileName))
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, constant.ActivityRemoved, r.ID)

	return newSigningSession(t, r), nil
}

// Finalize composites the recipient's marks on top of the last signed PDF.
// Nothing is written unless compositing succeeds.
func (s *Service) Finalize(ctx context.Context, in FinalizeInput) (*FinalizeResult, error) {
	s.logger.Debugf("Finalize signing: template %s, recipient %s", in.TemplateID, in.RecipientID)

	unlock := s.locks.Lock(in.TemplateID)
	defer unlock()

	t, err := s.load(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	r, err := signingRecipient(t, in.RecipientID)
	if err != nil {
		return nil, err
	}
	if missing := MissingUploads(t, r.ID); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingUploads, strings.Join(missing, ", "))
	}

	signer := in.Signer
	signer.FullName = strings.TrimSpace(signer.FullName)
	if signer.FullName == "" {
		signer.FullName = r.Name
	}
	if strings.TrimSpace(signer.Initials) == "" {
		signer.Initials = autosign.DeriveInitials(signer.FullName)
	}

	base := t.SigningBase()
	info, err := autosign.Inspect(ctx, base)
	if err != nil {
		return nil, err
	}

	res, err := s.compositor.Composite(ctx, base, ResolvePlacements(t, info, r.ID), signer)
	if err != nil {
		s.logger.Errorf("Failed to composite template %s for recipient %s: %v", t.ID, r.ID, err)
		return nil, err
	}

	now := s.now()
	t.LastSignedPDF = res.PDF
	completed, err := RecordSigning(t, r.ID, model.SignerRecord{
		FullName:    signer.FullName,
		Initials:    signer.Initials,
		Attestation: res.Attestation,
	}, now)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt = now

	if err := s.repo.Template.Save(ctx, t); err != nil {
		s.logger.Errorf("Failed to save template %s: %v", t.ID, err)
		return nil, err
	}
	s.publish(ctx, t, constant.ActivitySigned, in.RecipientID)
	if completed {
		s.publish(ctx, t, constant.ActivityCompleted, "")
	}

	return &FinalizeResult{
		TemplateID:      t.ID,
		RecipientID:     in.RecipientID,
		Status:          t.Status,
		Completed:       completed,
		Marks:           res.Marks,
		FileName:        util.SignedFileName(t.FileName),
		AttestationKind: autosign.AttestationKindVisual,
		Attestation:     res.Attestation,
	}, nil
}

// ResolvePlacements resolves the recipient's fields against the unrotated
// page sizes of the document. Page rotation only affects how the builder
// displays a page, so fractions always map onto the stored page box. Fields
// on missing pages are dropped.
func ResolvePlacements(t *model.Template, info autosign.DocumentInfo, recipientID string) []autosign.SignaturePlacement {
	var placements []autosign.SignaturePlacement
	for _, f := range t.FieldsFor(recipientID) {
		dims, ok := info.Page(f.Page)
		if !ok {
			continue
		}
		placements = append(placements, autosign.ToPdfPlacement(f, dims))
	}
	return placements
}
