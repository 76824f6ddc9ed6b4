package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/gin-gonic/gin"
)

type BuilderController struct {
	*baseController
}

// TemplateBuilder applies a batch of editor events to a template. The batch
// is all or nothing.
func (bc BuilderController) TemplateBuilder(ctx *gin.Context) {
	templateId := ctx.Param("templateId")
	if templateId == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to patch template builder", util.GenerateErrorMessages(errors.New("templateId is required"), "templateId"), nil)
		return
	}

	// Get the events JSON from the form.
	eventsJSON := ctx.PostForm("events")
	if eventsJSON == "" {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to patch template builder", util.GenerateErrorMessages(errors.New("events is required"), "events"), nil)
		return
	}

	var events []workflow.BuilderEvent
	if err := json.Unmarshal([]byte(eventsJSON), &events); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to patch template builder", util.GenerateErrorMessages(errors.New("failed to parse events"), "events"), nil)
		return
	}
	if len(events) == 0 {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to patch template builder", util.GenerateErrorMessages(errors.New("events must not be empty"), "events"), nil)
		return
	}

	t, err := bc.app.Workflow.ApplyEvents(ctx, templateId, events)
	if err != nil {
		bc.responseError(ctx, "Failed to patch template builder", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"template": t.Summary(),
	})
}
