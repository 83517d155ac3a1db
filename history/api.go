package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultLimit = 50

// APIServer serves the ledger read-only over HTTP.
type APIServer struct {
	store *Store
}

// NewAPIServer creates a new history API server.
func NewAPIServer(store *Store) *APIServer {
	return &APIServer{store: store}
}

// SetupRouter configures the Gin router with all history routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1")
	api.GET("/runs", s.HandleRuns)
	api.GET("/papers", s.HandlePapers)
	api.GET("/status", s.HandleStatus)

	return router
}

// RunsResponse is the response for GET /api/v1/runs and /status.
type RunsResponse struct {
	Runs  []Run `json:"runs"`
	Total int   `json:"total"`
}

// PapersResponse is the response for GET /api/v1/papers.
type PapersResponse struct {
	Papers []Paper `json:"papers"`
	Total  int     `json:"total"`
}

func errorResponse(code, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// HandleRuns handles GET /api/v1/runs.
func (s *APIServer) HandleRuns(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	runs, err := s.store.Runs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to list runs"))
		return
	}

	c.JSON(http.StatusOK, RunsResponse{Runs: nonNil(runs), Total: len(runs)})
}

// HandlePapers handles GET /api/v1/papers.
func (s *APIServer) HandlePapers(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	papers, err := s.store.RecentPapers(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to list papers"))
		return
	}

	c.JSON(http.StatusOK, PapersResponse{Papers: nonNil(papers), Total: len(papers)})
}

// HandleStatus handles GET /api/v1/status: the latest run of every site.
func (s *APIServer) HandleStatus(c *gin.Context) {
	runs, err := s.store.LastRuns()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("internal_error", "Failed to list runs"))
		return
	}

	c.JSON(http.StatusOK, RunsResponse{Runs: nonNil(runs), Total: len(runs)})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, errorResponse("validation_error", "limit must be a positive integer"))
		return 0, false
	}
	return limit, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
