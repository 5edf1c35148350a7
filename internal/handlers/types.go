package handlers

type EvaluateRequest struct {
	URL string `json:"url" binding:"required"`
}

type EvaluateResponse struct {
	EvaluationID string `json:"evaluation_id"`
}
