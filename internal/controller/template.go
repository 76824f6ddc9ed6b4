package controller

import (
	"net/http"
	"strconv"

	"github.com/SeakMengs/AutoSign/internal/model"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type TemplateController struct {
	*baseController
}

type templateIdUri struct {
	TemplateId string `uri:"templateId" binding:"required,strNotEmpty"`
}

func (tc TemplateController) bindTemplateId(ctx *gin.Context) (string, bool) {
	var uri templateIdUri
	if err := ctx.ShouldBindUri(&uri); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid template id", util.GenerateErrorMessages(err, "templateId"), nil)
		return "", false
	}
	return uri.TemplateId, true
}

// setupForm is the JSON carried in the multipart form values of create and
// save requests.
type setupForm struct {
	requester     *model.Requester
	recipients    []model.Recipient
	fields        []autosign.SignatureField
	pageRotations map[int]int
}

func (tc TemplateController) bindSetupForm(ctx *gin.Context) (setupForm, error) {
	var form setupForm

	var requester model.Requester
	ok, err := bindJSONForm(ctx, "requester", &requester)
	if err != nil {
		return form, err
	}
	if ok {
		if err := binding.Validator.ValidateStruct(requester); err != nil {
			return form, err
		}
		form.requester = &requester
	}

	if _, err := bindJSONForm(ctx, "recipients", &form.recipients); err != nil {
		return form, err
	}
	for _, r := range form.recipients {
		if err := binding.Validator.ValidateStruct(r); err != nil {
			return form, err
		}
	}

	if _, err := bindJSONForm(ctx, "fields", &form.fields); err != nil {
		return form, err
	}
	if _, err := bindJSONForm(ctx, "pageRotations", &form.pageRotations); err != nil {
		return form, err
	}

	return form, nil
}

func (tc TemplateController) Create(ctx *gin.Context) {
	fileName, pdf, err := tc.readFormFile(ctx, "templateFile")
	if err != nil {
		tc.responseError(ctx, "No template file uploaded", err)
		return
	}

	form, err := tc.bindSetupForm(ctx)
	if err != nil {
		tc.responseError(ctx, "Invalid request", err)
		return
	}

	in := workflow.SetupInput{
		FileName:      fileName,
		PDF:           pdf,
		Recipients:    form.recipients,
		Fields:        form.fields,
		PageRotations: form.pageRotations,
	}
	if form.requester != nil {
		in.Requester = *form.requester
	}

	t, err := tc.app.Workflow.Create(ctx, in)
	if err != nil {
		tc.responseError(ctx, "Failed to create template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}

func (tc TemplateController) List(ctx *gin.Context) {
	templates, err := tc.app.Workflow.List(ctx)
	if err != nil {
		tc.responseError(ctx, "Failed to list templates", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"templates": templates,
		"total":     len(templates),
	})
}

func (tc TemplateController) Get(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	t, err := tc.app.Workflow.Get(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Template not found", err)
		return
	}

	attachments := make([]model.AttachmentSummary, 0, len(t.Attachments))
	for _, a := range t.Attachments {
		attachments = append(attachments, a.Summary())
	}

	util.ResponseSuccess(ctx, gin.H{
		"template":    t.Summary(),
		"attachments": attachments,
		"activityLog": t.ActivityLog,
	})
}

func (tc TemplateController) Save(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	form, err := tc.bindSetupForm(ctx)
	if err != nil {
		tc.responseError(ctx, "Invalid request", err)
		return
	}

	t, err := tc.app.Workflow.Save(ctx, templateId, workflow.SaveInput{
		Requester:     form.requester,
		Recipients:    form.recipients,
		Fields:        form.fields,
		PageRotations: form.pageRotations,
		Publish:       formBool(ctx, "publish"),
	})
	if err != nil {
		tc.responseError(ctx, "Failed to save template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}

func (tc TemplateController) ReplaceDocument(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	fileName, pdf, err := tc.readFormFile(ctx, "templateFile")
	if err != nil {
		tc.responseError(ctx, "No template file uploaded", err)
		return
	}

	t, err := tc.app.Workflow.ReplaceDocument(ctx, templateId, fileName, pdf)
	if autosign.IsSuperseded(err) {
		// a newer upload for the same template took over
		util.ResponseSuccess(ctx, gin.H{
			"superseded": true,
		})
		return
	}
	if err != nil {
		tc.responseError(ctx, "Failed to replace document", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}

func (tc TemplateController) Delete(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	if err := tc.app.Workflow.Delete(ctx, templateId); err != nil {
		tc.responseError(ctx, "Failed to delete template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"templateId": templateId,
	})
}

func (tc TemplateController) DeleteAll(ctx *gin.Context) {
	deleted, err := tc.app.Workflow.DeleteAll(ctx)
	if err != nil {
		tc.responseError(ctx, "Failed to delete templates", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"deleted": deleted,
	})
}

func (tc TemplateController) Links(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	links, err := tc.app.Workflow.Links(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to build signing links", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"links": links,
	})
}

func (tc TemplateController) QRCode(ctx *gin.Context) {
	type Request struct {
		Size int `form:"size" binding:"omitempty,gte=64,lte=1024"`
	}
	var query Request

	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindQuery(&query); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err, ""), nil)
		return
	}
	if query.Size == 0 {
		query.Size = tc.app.Config.Autosign.SigningQRCodeSize
	}

	png, err := tc.app.Workflow.QRCode(ctx, templateId, ctx.Param("recipientId"), query.Size)
	if err != nil {
		tc.responseError(ctx, "Failed to generate QR code", err)
		return
	}

	ctx.Data(http.StatusOK, "image/png", png)
}

func (tc TemplateController) Revert(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	t, err := tc.app.Workflow.Revert(ctx, templateId, formBool(ctx, "confirm"))
	if err != nil {
		tc.responseError(ctx, "Failed to revert template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}

func (tc TemplateController) Approve(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	t, err := tc.app.Workflow.Approve(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to approve template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}

func (tc TemplateController) Reject(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	t, err := tc.app.Workflow.Reject(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to reject template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}

func (tc TemplateController) ActivityLog(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	name, content, err := tc.app.Workflow.ActivityLog(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to export activity log", err)
		return
	}

	util.ResponseFile(ctx, util.DispositionAttachment, name, "text/plain; charset=utf-8", content)
}

func (tc TemplateController) Download(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	name, pdf, err := tc.app.Workflow.Download(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to download document", err)
		return
	}

	ctx.Header("Content-Length", strconv.Itoa(len(pdf)))
	util.ResponseFile(ctx, util.DispositionAttachment, name, "application/pdf", pdf)
}

func (tc TemplateController) Bundle(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	name, zip, err := tc.app.Workflow.Bundle(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to build bundle", err)
		return
	}

	util.ResponseFile(ctx, util.DispositionAttachment, name, "application/zip", zip)
}

func (tc TemplateController) Export(ctx *gin.Context) {
	templateId, ok := tc.bindTemplateId(ctx)
	if !ok {
		return
	}

	files, err := tc.app.Workflow.Export(ctx, templateId)
	if err != nil {
		tc.responseError(ctx, "Failed to export template", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"files": files,
	})
}
