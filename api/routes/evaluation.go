package routes

import (
	"brandwatch/internal/handlers"
	"brandwatch/internal/services"

	"github.com/gin-gonic/gin"
)

func InitEvaluationRoutes(router *gin.RouterGroup, evalService services.EvaluationServiceMethods) {
	handler := handlers.NewEvaluationHandler(evalService)

	evalRoutes := router.Group("/evaluations")
	{
		evalRoutes.POST("", handler.StartEvaluation)
		evalRoutes.GET("", handler.ListEvaluations)
		evalRoutes.GET("/phishing", handler.ListPhishing)
		evalRoutes.GET("/:id", handler.GetEvaluationByUUID)
		evalRoutes.DELETE("/:id", handler.DeleteEvaluation)
	}
}
