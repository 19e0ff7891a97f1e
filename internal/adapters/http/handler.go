package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jpp0ca/TrackFetch/internal/domain"
	"github.com/jpp0ca/TrackFetch/internal/ports"
)

// Handler holds the HTTP handlers for the batch API.
type Handler struct {
	service ports.BatchService
}

// NewHandler creates a new HTTP handler with the given batch service.
func NewHandler(service ports.BatchService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up all API routes on the given Gin engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/batches", h.RunBatch)
		api.POST("/selections", h.SelectBatch)
		api.GET("/sources/:name/tracks", h.ListTracks)
		api.GET("/runs", h.ListRuns)
		api.GET("/runs/:id", h.GetRun)
	}
}

// Health returns a simple health check response.
//
//	@Summary		Health check
//	@Description	Returns the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// RunBatch resolves and retrieves a batch of tracks.
//
//	@Summary		Run batch
//	@Description	Resolves every track against the search provider and materializes the best candidate,
//	@Description	falling back through ranked candidates and the fallback reference. Tracks are given inline
//	@Description	or loaded from a named source (itunes, spotify, wikipedia, youtube) and reference.
//	@Tags			batches
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.BatchRequest	true	"Tracks, or source and reference, plus optional worker count"
//	@Success		200		{object}	domain.BatchResult
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/batches [post]
func (h *Handler) RunBatch(c *gin.Context) {
	req, ok := h.bindBatch(c)
	if !ok {
		return
	}

	result, err := h.service.RunBatch(c.Request.Context(), req.Tracks, req.Workers)
	if err != nil {
		writeError(c, "batch_failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SelectBatch resolves a batch of tracks without retrieving anything.
//
//	@Summary		Select candidates
//	@Description	Resolves every track and returns the chosen reference with its match metrics.
//	@Description	Nothing is downloaded.
//	@Tags			batches
//	@Accept			json
//	@Produce		json
//	@Param			request	body		domain.BatchRequest	true	"Tracks, or source and reference, plus optional worker count"
//	@Success		200		{array}		domain.Selection
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/v1/selections [post]
func (h *Handler) SelectBatch(c *gin.Context) {
	req, ok := h.bindBatch(c)
	if !ok {
		return
	}

	selections, err := h.service.SelectBatch(c.Request.Context(), req.Tracks, req.Workers)
	if err != nil {
		writeError(c, "selection_failed", err)
		return
	}

	c.JSON(http.StatusOK, selections)
}

// ListTracks lists the wanted tracks behind a source reference.
//
//	@Summary		List source tracks
//	@Description	Loads the track list for an album or playlist reference from the named source.
//	@Tags			sources
//	@Produce		json
//	@Param			name	path		string	true	"Source name"	Enums(itunes, spotify, wikipedia, youtube)
//	@Param			ref		query		string	true	"Album or playlist reference"
//	@Success		200		{array}		domain.WantedTrack
//	@Failure		400		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/api/v1/sources/{name}/tracks [get]
func (h *Handler) ListTracks(c *gin.Context) {
	ref := c.Query("ref")
	if ref == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "query parameter 'ref' is required",
		})
		return
	}

	tracks, err := h.service.ListTracks(c.Request.Context(), c.Param("name"), ref)
	if err != nil {
		writeError(c, "source_failed", err)
		return
	}

	c.JSON(http.StatusOK, tracks)
}

// ListRuns returns the most recent stored runs.
//
//	@Summary		List runs
//	@Description	Returns stored run summaries, most recent first.
//	@Tags			runs
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of runs"	default(20)
//	@Success		200		{array}		domain.RunSummary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/api/v1/runs [get]
func (h *Handler) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "query parameter 'limit' must be a positive integer",
		})
		return
	}

	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		writeError(c, "runs_failed", err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

// GetRun returns a stored run with all of its outcomes.
//
//	@Summary		Get run
//	@Description	Returns a previously executed batch run, including every attempt per track.
//	@Tags			runs
//	@Produce		json
//	@Param			id	path		string	true	"Run ID"
//	@Success		200	{object}	domain.BatchResult
//	@Failure		404	{object}	ErrorResponse
//	@Failure		503	{object}	ErrorResponse
//	@Router			/api/v1/runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "run_failed", err)
		return
	}

	c.JSON(http.StatusOK, run)
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// bindBatch decodes a batch request and loads its tracks from the named
// source when none are given inline.
func (h *Handler) bindBatch(c *gin.Context) (domain.BatchRequest, bool) {
	var req domain.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "invalid request body: " + err.Error(),
		})
		return req, false
	}

	if len(req.Tracks) == 0 {
		if req.Source == "" || req.Reference == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "bad_request",
				Message: "either 'tracks' or 'source' and 'reference' are required",
			})
			return req, false
		}
		tracks, err := h.service.ListTracks(c.Request.Context(), req.Source, req.Reference)
		if err != nil {
			writeError(c, "source_failed", err)
			return req, false
		}
		req.Tracks = tracks
	}
	return req, true
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, code string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnknownSource):
		status, code = http.StatusBadRequest, "unknown_source"
	case errors.Is(err, domain.ErrRunNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrNoStore):
		status, code = http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, domain.ErrMissingCredentials):
		status, code = http.StatusServiceUnavailable, "missing_credentials"
	case errors.Is(err, domain.ErrProviderUnavailable):
		status, code = http.StatusBadGateway, "provider_unavailable"
	}
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
