package handlers

import (
	"brandwatch/internal/services"
	"brandwatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type StoreHandler struct {
	storeService services.StoreServiceMethods
	logger       *logger.Logger
}

func NewStoreHandler(storeService services.StoreServiceMethods) *StoreHandler {
	return &StoreHandler{storeService: storeService, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *StoreHandler) ListBrands(c *gin.Context) {
	c.JSON(200, h.storeService.ListBrands())
}

func (h *StoreHandler) GetBrand(c *gin.Context) {
	name := c.Param("name")
	info, ok := h.storeService.GetBrand(name)
	if !ok {
		c.JSON(404, gin.H{"error": "Brand not found"})
		return
	}
	c.JSON(200, info)
}
