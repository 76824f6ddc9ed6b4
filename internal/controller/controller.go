package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	appcontext "github.com/SeakMengs/AutoSign/internal/app_context"
	"github.com/SeakMengs/AutoSign/internal/repository"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/SeakMengs/AutoSign/pkg/autosign"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type baseController struct {
	app *appcontext.Application
}

type Controller struct {
	Index    *IndexController
	Template *TemplateController
	Builder  *BuilderController
	Signing  *SigningController
}

func newBaseController(app *appcontext.Application) *baseController {
	return &baseController{app: app}
}

func NewController(app *appcontext.Application) *Controller {
	bc := newBaseController(app)

	return &Controller{
		Index:    &IndexController{baseController: bc},
		Template: &TemplateController{baseController: bc},
		Builder:  &BuilderController{baseController: bc},
		Signing:  &SigningController{baseController: bc},
	}
}

// errorStatus maps workflow errors to a status code and the request field
// they are reported under.
func errorStatus(err error) (int, string) {
	var ve *workflow.ValidationError
	var ce *autosign.ConstraintError
	var fe validator.ValidationErrors

	switch {
	case errors.As(err, &fe):
		return http.StatusBadRequest, ""
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Field
	case errors.As(err, &ce):
		return http.StatusUnprocessableEntity, "fields"
	case errors.Is(err, autosign.ErrDecode):
		return http.StatusBadRequest, "templateFile"
	case errors.Is(err, autosign.ErrUnsupportedImage):
		return http.StatusBadRequest, "signatureImage"
	case errors.Is(err, util.ErrInvalidDataURL):
		return http.StatusBadRequest, "dataUrl"
	case errors.Is(err, util.ErrNotSigningLink):
		return http.StatusBadRequest, "link"
	case errors.Is(err, workflow.ErrNotFound):
		return http.StatusNotFound, "templateId"
	case errors.Is(err, workflow.ErrNotRecipient):
		return http.StatusForbidden, "recipientId"
	case errors.Is(err, workflow.ErrAlreadySigned),
		errors.Is(err, workflow.ErrNotOpenForSigning),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNotEditable):
		return http.StatusConflict, "status"
	case errors.Is(err, workflow.ErrConfirmationRequired):
		return http.StatusBadRequest, "confirm"
	case errors.Is(err, workflow.ErrMissingUploads):
		return http.StatusBadRequest, "attachments"
	case errors.Is(err, workflow.ErrNoActivity):
		return http.StatusNotFound, "activityLog"
	case errors.Is(err, workflow.ErrExportDisabled):
		return http.StatusNotImplemented, "export"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, ""
	case errors.Is(err, repository.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "templateFile"
	case errors.Is(err, repository.ErrCorruptRecord):
		return http.StatusInternalServerError, "templateId"
	default:
		return http.StatusInternalServerError, ""
	}
}

func (b *baseController) responseError(ctx *gin.Context, message string, err error) {
	code, field := errorStatus(err)
	if code >= http.StatusInternalServerError {
		b.app.Logger.Errorf("%s: %v", message, err)
	} else {
		b.app.Logger.Debugf("%s: %s", message, util.GenerateErrorMessagesAsString(err))
	}

	util.ResponseFailed(ctx, code, message, util.GenerateErrorMessages(err, field), nil)
}

// bindJSONForm decodes a JSON encoded form value. It reports false when the
// value is absent.
func bindJSONForm(ctx *gin.Context, name string, v any) (bool, error) {
	raw, ok := ctx.GetPostForm(name)
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return true, &workflow.ValidationError{Field: name, Message: fmt.Sprintf("%s is not valid JSON", name)}
	}
	return true, nil
}

// readFormFile reads an uploaded file, enforcing the configured size limit.
func (b *baseController) readFormFile(ctx *gin.Context, name string) (string, []byte, error) {
	fh, err := ctx.FormFile(name)
	if err != nil {
		return "", nil, &workflow.ValidationError{Field: name, Message: fmt.Sprintf("%s is required", name)}
	}

	limit := b.app.Config.Autosign.MaxUploadSize
	if limit > 0 && fh.Size > limit {
		return "", nil, &workflow.ValidationError{Field: name, Message: fmt.Sprintf("%s must be at most %d MB", name, limit>>20)}
	}

	f, err := fh.Open()
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return "", nil, err
	}

	return fh.Filename, content, nil
}

// readBytesField accepts either an uploaded file or a data URL in a form
// value of the same name. Absent fields yield nil.
func (b *baseController) readBytesField(ctx *gin.Context, name string) (string, []byte, string, error) {
	if _, err := ctx.FormFile(name); err == nil {
		fileName, content, err := b.readFormFile(ctx, name)
		return fileName, content, "", err
	}

	raw := ctx.PostForm(name)
	if raw == "" {
		return "", nil, "", nil
	}

	content, mimeType, err := util.DecodeDataURL(raw)
	if err != nil {
		return "", nil, "", err
	}
	return "", content, mimeType, nil
}

func formBool(ctx *gin.Context, name string) bool {
	raw, ok := ctx.GetPostForm(name)
	if !ok {
		raw = ctx.Query(name)
	}
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}

