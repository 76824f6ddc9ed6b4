package controller

import (
	"errors"
	"net/http"

	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/gin-gonic/gin"
)

const (
	ErrSigningSessionNotFound = "Signing session not found. The link may be invalid or expired."
	ErrNotValidRecipient      = "You are not a valid recipient for this document."
)

type SigningController struct {
	*baseController
}

// sessionError keeps the wording recipients see when a link does not resolve.
func (sc SigningController) sessionError(ctx *gin.Context, fallback string, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		sc.responseError(ctx, ErrSigningSessionNotFound, err)
	case errors.Is(err, workflow.ErrNotRecipient):
		sc.responseError(ctx, ErrNotValidRecipient, err)
	default:
		sc.responseError(ctx, fallback, err)
	}
}

func (sc SigningController) bindLink(ctx *gin.Context) (util.SigningLink, bool) {
	var link util.SigningLink
	if err := ctx.ShouldBindQuery(&link); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid signing link", util.GenerateErrorMessages(err, "link"), nil)
		return link, false
	}
	return link, true
}

// Open accepts either the templateId and recipientId query values or a
// full signing link in "link".
func (sc SigningController) Open(ctx *gin.Context) {
	var (
		session *workflow.SigningSession
		err     error
	)

	if raw := ctx.Query("link"); raw != "" {
		session, err = sc.app.Workflow.OpenLink(ctx, raw)
	} else {
		link, ok := sc.bindLink(ctx)
		if !ok {
			return
		}
		session, err = sc.app.Workflow.Open(ctx, link.TemplateID, link.RecipientID)
	}
	if err != nil {
		sc.sessionError(ctx, "Failed to open signing session", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"session": session,
	})
}

func (sc SigningController) Document(ctx *gin.Context) {
	link, ok := sc.bindLink(ctx)
	if !ok {
		return
	}

	name, pdf, err := sc.app.Workflow.SigningDocument(ctx, link.TemplateID, link.RecipientID)
	if err != nil {
		sc.sessionError(ctx, "Failed to load document", err)
		return
	}

	util.ResponseFile(ctx, util.DispositionInline, name, "application/pdf", pdf)
}

func (sc SigningController) UploadAttachment(ctx *gin.Context) {
	type Request struct {
		FieldId  string `form:"fieldId" binding:"required,strNotEmpty"`
		FileName string `form:"fileName" binding:"omitempty,cmax=255"`
	}
	var body Request

	link, ok := sc.bindLink(ctx)
	if !ok {
		return
	}
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, ""), nil)
		return
	}

	fileName, content, mimeType, err := sc.readBytesField(ctx, "content")
	if err != nil {
		sc.responseError(ctx, "Invalid attachment", err)
		return
	}
	if fileName == "" {
		fileName = body.FileName
	}
	if fileName == "" {
		fileName = body.FieldId
	}

	session, err := sc.app.Workflow.UploadAttachment(ctx, link.TemplateID, workflow.AttachmentUpload{
		FieldID:     body.FieldId,
		RecipientID: link.RecipientID,
		FileName:    fileName,
		MimeType:    mimeType,
		Content:     content,
	})
	if err != nil {
		sc.sessionError(ctx, "Failed to upload attachment", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"session": session,
	})
}

func (sc SigningController) RemoveAttachment(ctx *gin.Context) {
	link, ok := sc.bindLink(ctx)
	if !ok {
		return
	}

	session, err := sc.app.Workflow.RemoveAttachment(ctx, link.TemplateID, link.RecipientID, ctx.Param("fieldId"))
	if err != nil {
		sc.sessionError(ctx, "Failed to remove attachment", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"session": session,
	})
}

// Finalize takes the signature and initials either as uploaded images or as
// data URLs drawn on the client.
func (sc SigningController) Finalize(ctx *gin.Context) {
	type Request struct {
		FullName string `form:"fullName" binding:"omitempty,cmax=100"`
		Initials string `form:"initials" binding:"omitempty,cmax=10"`
	}
	var body Request

	link, ok := sc.bindLink(ctx)
	if !ok {
		return
	}
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, ""), nil)
		return
	}

	_, signature, _, err := sc.readBytesField(ctx, "signatureImage")
	if err != nil {
		sc.responseError(ctx, "Invalid signature image", err)
		return
	}
	_, initials, _, err := sc.readBytesField(ctx, "initialsImage")
	if err != nil {
		sc.responseError(ctx, "Invalid initials image", err)
		return
	}

	res, err := sc.app.Workflow.Finalize(ctx, workflow.FinalizeInput{
		TemplateID:  link.TemplateID,
		RecipientID: link.RecipientID,
		Signer: autosign.SignerInfo{
			FullName:       body.FullName,
			Initials:       body.Initials,
			SignatureImage: signature,
			InitialsImage:  initials,
		},
	})
	if err != nil {
		sc.sessionError(ctx, "Failed to finalize signing", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"result": res,
	})
}
