package util

import (
	"mime"
	"net/http"

	constant "github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every API reply except file downloads.
type Response struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Errors  []ApiError `json:"errors,omitempty"`
	Data    any        `json:"data,omitempty"`
}

func ResponseSuccess(ctx *gin.Context, data any) {
	if data == nil {
		data = gin.H{}
	}

	ctx.JSON(http.StatusOK, Response{
		Success: true,
		Message: constant.REQUEST_SUCCESSFUL,
		Data:    data,
	})
	ctx.Abort()
}

// ResponseFailed always carries an errors list so clients can point at the
// offending field.
func ResponseFailed(ctx *gin.Context, code int, message string, errs []ApiError, data any) {
	if message == "" {
		message = constant.REQUEST_UNSUCCESSFUL
	}
	if len(errs) == 0 {
		errs = []ApiError{{Field: "Unknown", Message: message}}
	}
	if data == nil {
		data = gin.H{}
	}

	ctx.JSON(code, Response{
		Success: false,
		Message: message,
		Errors:  errs,
		Data:    data,
	})
	ctx.Abort()
}

type Disposition string

const (
	// Shown by the browser, e.g. the document a recipient is about to sign.
	DispositionInline Disposition = "inline"
	// Saved as a download.
	DispositionAttachment Disposition = "attachment"
)

// ResponseFile writes raw bytes with a Content-Disposition naming the file.
// Non-ASCII names are encoded per RFC 2231.
func ResponseFile(ctx *gin.Context, disposition Disposition, fileName, contentType string, content []byte) {
	ctx.Header("Content-Disposition", mime.FormatMediaType(string(disposition), map[string]string{"filename": fileName}))
	ctx.Data(http.StatusOK, contentType, content)
	ctx.Abort()
}
