package controller

import (
	"github.com/SeakMengs/AutoSign/internal/notifier"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/gin-gonic/gin"
)

type IndexController struct {
	*baseController
}

func (ic IndexController) Index(ctx *gin.Context) {
	_, isNoop := ic.app.Notifier.(notifier.NoopPublisher)

	util.ResponseSuccess(ctx, gin.H{
		"message": "Welcome to the " + util.GetAppName() + " api",
		"store":   ic.app.Config.Store,
		"export":  ic.app.S3 != nil,
		"events":  !isNoop,
	})
}
