package route

import (
	"github.com/SeakMengs/AutoSign/internal/controller"
	"github.com/gin-gonic/gin"
)

// V1_Sign serves recipients. Every route takes templateId and recipientId as
// query values, the same pair carried by the signing link.
func V1_Sign(r *gin.RouterGroup, sc *controller.SigningController) {
	v1 := r.Group("/v1/sign")
	{
		v1.GET("", sc.Open)
		v1.GET("/document", sc.Document)
		v1.POST("/attachments", sc.UploadAttachment)
		v1.DELETE("/attachments/:fieldId", sc.RemoveAttachment)
		v1.POST("/finalize", sc.Finalize)
	}
}
