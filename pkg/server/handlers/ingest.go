package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	recall "github.com/soundprediction/recall"
	"github.com/soundprediction/recall/pkg/server/dto"
	"github.com/soundprediction/recall/pkg/types"
)

// IngestHandler serves episode ingestion requests.
type IngestHandler struct {
	recall recall.Recall
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(r recall.Recall) *IngestHandler {
	return &IngestHandler{recall: r}
}

// AddEpisodes handles POST /api/v1/ingest.
func (h *IngestHandler) AddEpisodes(c *gin.Context) {
	var req dto.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: err.Error()})
		return
	}
	if len(req.Episodes) == 0 {
		c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: "episodes cannot be empty"})
		return
	}

	episodes := make([]types.Episode, 0, len(req.Episodes))
	for i, input := range req.Episodes {
		if err := input.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, dto.Result{
				Success: false,
				Error:   fmt.Sprintf("episode %d: %v", i+1, err),
			})
			return
		}
		episodes = append(episodes, episodeFromInput(input))
	}

	results, err := h.recall.Add(c.Request.Context(), episodes)
	if err != nil {
		respondError(c, err)
		return
	}

	uuids := make([]string, len(results))
	for i, e := range results {
		uuids[i] = e.UUID
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"ingested": len(results), "uuids": uuids}})
}

// GetEpisodes handles GET /api/v1/episodes.
func (h *IngestHandler) GetEpisodes(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
			c.JSON(http.StatusBadRequest, dto.Result{Success: false, Error: "limit must be an integer"})
			return
		}
	}

	episodes, err := h.recall.GetEpisodes(c.Request.Context(), time.Now().UTC(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.Result{Success: true, Data: episodes})
}

// ClearData handles DELETE /api/v1/clear.
func (h *IngestHandler) ClearData(c *gin.Context) {
	if err := h.recall.ClearGraph(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true, Data: gin.H{"message": "graph cleared"}})
}

func episodeFromInput(input dto.EpisodeInput) types.Episode {
	source := types.SourceText
	if input.Source != "" {
		source = types.SourceKind(input.Source)
	} else if len(input.Structured) > 0 {
		source = types.SourceStructured
	}

	return types.Episode{
		Name:        input.Name,
		Content:     input.Content,
		Structured:  input.Structured,
		Source:      source,
		Description: input.Description,
		Reference:   input.ReferenceTime(),
	}
}
