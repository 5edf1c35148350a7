package handlers

import (
	"brandwatch/internal/services"
	"brandwatch/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type EvaluationHandler struct {
	evalService services.EvaluationServiceMethods
	logger      *logger.Logger
}

func NewEvaluationHandler(evalService services.EvaluationServiceMethods) *EvaluationHandler {
	return &EvaluationHandler{evalService: evalService, logger: logger.NewLogger(logrus.InfoLevel)}
}

func (h *EvaluationHandler) StartEvaluation(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed to bind JSON:", logger.Fields{"error": err})
		c.JSON(400, gin.H{"error": "Invalid request payload"})
		return
	}

	h.logger.Info("Starting evaluation", logger.Fields{"url": req.URL})
	id, err := h.evalService.StartEvaluation(req.URL)
	if err != nil {
		h.logger.Error("Failed to start evaluation:", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to start evaluation"})
		return
	}
	c.JSON(200, EvaluateResponse{EvaluationID: id})
}

func (h *EvaluationHandler) GetEvaluationByUUID(c *gin.Context) {
	id := c.Param("id")
	ev, err := h.evalService.GetEvaluationByUUID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"error": "Evaluation not found"})
			return
		}
		h.logger.Error("Failed to get evaluation:", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to get evaluation"})
		return
	}
	c.JSON(200, ev)
}

func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	evs, err := h.evalService.ListEvaluations()
	if err != nil {
		h.logger.Error("Failed to list evaluations:", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to list evaluations"})
		return
	}
	c.JSON(200, evs)
}

func (h *EvaluationHandler) ListPhishing(c *gin.Context) {
	evs, err := h.evalService.ListPhishing()
	if err != nil {
		h.logger.Error("Failed to list phishing evaluations:", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to list phishing evaluations"})
		return
	}
	c.JSON(200, evs)
}

func (h *EvaluationHandler) DeleteEvaluation(c *gin.Context) {
	id := c.Param("id")
	if err := h.evalService.DeleteEvaluation(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"error": "Evaluation not found"})
			return
		}
		h.logger.Error("Failed to delete evaluation:", logger.Fields{"error": err})
		c.JSON(500, gin.H{"error": "Failed to delete evaluation"})
		return
	}
	c.JSON(200, gin.H{"status": "deleted"})
}
