package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	recall "github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/server/dto"
)

// AskHandler serves question answering requests.
type AskHandler struct {
	recall recall.Recall
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(r recall.Recall) *AskHandler {
	return &AskHandler{recall: r}
}

// Ask handles POST /api/v1/ask.
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: err.Error()})
		return
	}

	answer, err := h.recall.Ask(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: dto.AskResponse{
		Question: answer.Question,
		Answer:   answer.Answer,
		SQL:      answer.SQL,
		Source:   string(answer.Source),
	}})
}

// PutFact handles POST /api/v1/facts.
func (h *AskHandler) PutFact(c *gin.Context) {
	var req dto.FactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: err.Error()})
		return
	}

	record, err := h.recall.PutFact(c.Request.Context(), req.Question, req.Answer, req.SQL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: record})
}

// GetFact handles GET /api/v1/facts?question=...
func (h *AskHandler) GetFact(c *gin.Context) {
	question := c.Query("question")
	if question == "" {
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: "question query parameter is required"})
		return
	}

	record, err := h.recall.GetFact(c.Request.Context(), question)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: record})
}

// Search handles POST /api/v1/search.
func (h *AskHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: err.Error()})
		return
	}

	facts, err := h.recall.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: facts})
}
