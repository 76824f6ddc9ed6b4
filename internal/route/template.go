package route

import (
	"github.com/SeakMengs/AutoSign/internal/controller"
	"github.com/gin-gonic/gin"
)

func V1_Templates(r *gin.RouterGroup, tc *controller.TemplateController, bc *controller.BuilderController) {
	v1 := r.Group("/v1/templates")
	{
		v1.GET("", tc.List)
		v1.POST("", tc.Create)
		v1.DELETE("", tc.DeleteAll)
		v1.GET("/:templateId", tc.Get)
		v1.POST("/:templateId/save", tc.Save)
		v1.DELETE("/:templateId", tc.Delete)
		v1.PATCH("/:templateId/builder", bc.TemplateBuilder)
		v1.PUT("/:templateId/document", tc.ReplaceDocument)
		v1.GET("/:templateId/links", tc.Links)
		v1.GET("/:templateId/links/:recipientId/qr", tc.QRCode)
		v1.POST("/:templateId/revert", tc.Revert)
		v1.POST("/:templateId/approve", tc.Approve)
		v1.POST("/:templateId/reject", tc.Reject)
		v1.GET("/:templateId/activity-log", tc.ActivityLog)
		v1.GET("/:templateId/download", tc.Download)
		v1.GET("/:templateId/bundle", tc.Bundle)
		v1.POST("/:templateId/export", tc.Export)
	}
}
