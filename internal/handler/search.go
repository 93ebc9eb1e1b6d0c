package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"propsearch/internal/model"
	"propsearch/internal/service"
)

// Searcher is the search pipeline used by the handlers
type Searcher interface {
	Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error)
	SearchStream(ctx context.Context, req *model.SearchRequest, callback service.SearchEventCallback) (*model.SearchResponse, error)
	Analyze(ctx context.Context, query string) *model.ParseResponse
	GetProperty(ctx context.Context, id int64) (*model.Property, error)
}

// Suggester produces autocomplete entries
type Suggester interface {
	Suggest(ctx context.Context, q string) ([]model.Suggestion, error)
}

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searcher     Searcher
	suggester    Suggester
	defaultLimit int
	maxLimit     int
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher Searcher, suggester Suggester, defaultLimit, maxLimit int) *SearchHandler {
	return &SearchHandler{
		searcher:     searcher,
		suggester:    suggester,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// Register mounts the search routes on a router group
func (h *SearchHandler) Register(g *gin.RouterGroup) {
	g.POST("/search", h.Search)
	g.GET("/search", h.SearchGet)
	g.POST("/search/stream", h.SearchStream)
	g.POST("/parse", h.Parse)
	g.GET("/properties/:id", h.GetProperty)
	g.GET("/autocomplete", h.Autocomplete)
}

type parseRequest struct {
	Query string `json:"query" binding:"required"`
}

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	h.runSearch(c, &req)
}

// SearchGet handles GET /api/v1/search?q=
func (h *SearchHandler) SearchGet(c *gin.Context) {
	req := model.SearchRequest{Query: c.Query("q")}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		req.Options = &model.SearchOptions{Limit: limit}
	}
	if v := c.Query("sort"); v != "" {
		if req.Options == nil {
			req.Options = &model.SearchOptions{}
		}
		req.Options.Sort = v
	}

	listingType, propertyType := c.Query("listing_type"), c.Query("property_type")
	if listingType != "" || propertyType != "" {
		req.Filters = &model.FilterOverrides{}
		if listingType != "" {
			req.Filters.ListingType = &listingType
		}
		if propertyType != "" {
			req.Filters.PropertyType = &propertyType
		}
	}

	h.runSearch(c, &req)
}

func (h *SearchHandler) runSearch(c *gin.Context, req *model.SearchRequest) {
	if !h.prepare(c, req) {
		return
	}

	response, err := h.searcher.Search(c.Request.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("query", req.Query).Msg("search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// prepare validates the query and clamps the options; it writes the 400
// response itself and reports whether the request may proceed
func (h *SearchHandler) prepare(c *gin.Context, req *model.SearchRequest) bool {
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query must not be empty"})
		return false
	}

	if req.Options == nil {
		req.Options = &model.SearchOptions{Limit: h.defaultLimit}
	}
	if req.Options.Limit <= 0 {
		req.Options.Limit = h.defaultLimit
	}
	if req.Options.Limit > h.maxLimit {
		req.Options.Limit = h.maxLimit
	}

	switch req.Options.Sort {
	case "", model.SortDistance, model.SortRecency, model.SortRelevance:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort: " + req.Options.Sort})
		return false
	}
	return true
}

// SearchStream handles POST /api/v1/search/stream - SSE streaming search
func (h *SearchHandler) SearchStream(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !h.prepare(c, &req) {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	_, err := h.searcher.SearchStream(ctx, &req, func(event string, data any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})

	if err != nil {
		log.Warn().Err(err).Str("query", req.Query).Msg("stream search failed")
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprint(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, jsonData)
}

// Parse handles POST /api/v1/parse
func (h *SearchHandler) Parse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query must not be empty"})
		return
	}

	c.JSON(http.StatusOK, h.searcher.Analyze(c.Request.Context(), req.Query))
}

// GetProperty handles GET /api/v1/properties/:id
func (h *SearchHandler) GetProperty(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID"})
		return
	}

	property, err := h.searcher.GetProperty(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property: " + err.Error()})
		return
	}

	if property == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}

	c.JSON(http.StatusOK, property)
}

// Autocomplete handles GET /api/v1/autocomplete?q=
func (h *SearchHandler) Autocomplete(c *gin.Context) {
	suggestions, err := h.suggester.Suggest(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Autocomplete failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
