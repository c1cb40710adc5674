package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pevans/flyerfed/archive"
	"github.com/pevans/flyerfed/flyer"
	"github.com/pevans/flyerfed/output"
)

const (
	defaultLimit = 20
	maxLimit     = 1000
)

// RunStore is the read side of the run archive.
type RunStore interface {
	ListRuns(limit int) ([]archive.RunSummary, error)
	CountRuns() (int, error)
	GetRun(id uuid.UUID) (*archive.RunSummary, error)
	LatestRun() (*archive.RunSummary, error)
	ListFlyers(runID uuid.UUID) ([]flyer.Record, error)
}

// APIServer serves archived runs over HTTP. It never triggers a scrape.
type APIServer struct {
	store RunStore
}

// NewAPIServer creates a new API server over the given archive.
func NewAPIServer(store RunStore) *APIServer {
	return &APIServer{
		store: store,
	}
}

// SetupRouter configures the Gin router with the run API routes.
func (s *APIServer) SetupRouter() *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})

	api := router.Group("/api/v1/runs")
	api.GET("", s.HandleListRuns)
	api.GET("/:id", s.HandleGetRun)
	api.GET("/:id/flyers", s.HandleListFlyers)

	return router
}

// ListRunsResponse represents the response for GET /api/v1/runs.
type ListRunsResponse struct {
	Runs  []archive.RunSummary `json:"runs"`
	Total int                  `json:"total"`
	Limit int                  `json:"limit"`
}

// ListFlyersResponse represents the response for GET /api/v1/runs/:id/flyers.
type ListFlyersResponse struct {
	RunID  uuid.UUID      `json:"run_id"`
	Flyers []output.Entry `json:"flyers"`
	Total  int            `json:"total"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// HandleListRuns handles GET /api/v1/runs.
func (s *APIServer) HandleListRuns(c *gin.Context) {
	limit := defaultLimit
	if limitParam := c.Query("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit < 1 {
			writeError(c, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = min(parsedLimit, maxLimit)
	}

	runs, err := s.store.ListRuns(limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "Failed to list runs: "+err.Error())
		return
	}
	total, err := s.store.CountRuns()
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "Failed to count runs: "+err.Error())
		return
	}

	if runs == nil {
		runs = []archive.RunSummary{}
	}

	c.JSON(http.StatusOK, ListRunsResponse{
		Runs:  runs,
		Total: total,
		Limit: limit,
	})
}

// HandleGetRun handles GET /api/v1/runs/:id, where :id may be "latest".
func (s *APIServer) HandleGetRun(c *gin.Context) {
	run, ok := s.lookupRun(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, run)
}

// HandleListFlyers handles GET /api/v1/runs/:id/flyers. The optional shop
// query parameter keeps only flyers of that exact shop name.
func (s *APIServer) HandleListFlyers(c *gin.Context) {
	run, ok := s.lookupRun(c)
	if !ok {
		return
	}

	records, err := s.store.ListFlyers(run.ID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "Failed to list flyers: "+err.Error())
		return
	}

	if shop := c.Query("shop"); shop != "" {
		records = filterByShop(records, shop)
	}

	entries := output.Entries(records)
	c.JSON(http.StatusOK, ListFlyersResponse{
		RunID:  run.ID,
		Flyers: entries,
		Total:  len(entries),
	})
}

// lookupRun resolves the :id parameter and writes the error response when
// it cannot.
func (s *APIServer) lookupRun(c *gin.Context) (*archive.RunSummary, bool) {
	idParam := c.Param("id")

	var run *archive.RunSummary
	var err error
	if idParam == "latest" {
		run, err = s.store.LatestRun()
	} else {
		id, parseErr := uuid.Parse(idParam)
		if parseErr != nil {
			writeError(c, http.StatusBadRequest, "invalid_id", "Invalid run ID")
			return nil, false
		}
		run, err = s.store.GetRun(id)
	}

	if errors.Is(err, archive.ErrRunNotFound) {
		writeError(c, http.StatusNotFound, "not_found", "Run not found")
		return nil, false
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, "internal_error", "Failed to retrieve run: "+err.Error())
		return nil, false
	}

	return run, true
}

func filterByShop(records []flyer.Record, shop string) []flyer.Record {
	var filtered []flyer.Record
	for _, rec := range records {
		if rec.ShopName == shop {
			filtered = append(filtered, rec)
		}
	}
	return filtered
}
