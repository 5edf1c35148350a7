package routes

import (
	"brandwatch/internal/handlers"
	"brandwatch/internal/services"

	"github.com/gin-gonic/gin"
)

func InitStoreRoutes(router *gin.RouterGroup, storeService services.StoreServiceMethods) {
	handler := handlers.NewStoreHandler(storeService)

	storeRoutes := router.Group("/brands")
	{
		storeRoutes.GET("", handler.ListBrands)
		storeRoutes.GET("/:name", handler.GetBrand)
	}
}
