package routes

import (
	"brandwatch/internal/services"

	"github.com/gin-gonic/gin"
)

func InitRouter(evalService services.EvaluationServiceMethods, storeService services.StoreServiceMethods) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		InitEvaluationRoutes(api, evalService)
		InitStoreRoutes(api, storeService)
	}

	return router
}
