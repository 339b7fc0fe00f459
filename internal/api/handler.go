package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/resqlink/internal/backend"
	"github.com/mr1hm/resqlink/internal/contacts"
	"github.com/mr1hm/resqlink/internal/feed"
	"github.com/mr1hm/resqlink/internal/livefeed"
	"github.com/mr1hm/resqlink/internal/models"
	"github.com/mr1hm/resqlink/internal/sos"
	"github.com/mr1hm/resqlink/internal/stream"
)

const (
	defaultLimit = 0 // no limit
	maxLimit     = 500

	streamKeepAlive = 15 * time.Second
)

type FeedService interface {
	Query(ctx context.Context, w feed.TimeWindow, typ string) ([]models.DisasterEvent, error)
	Get(ctx context.Context, id int64) (*models.DisasterEvent, error)
	Total(ctx context.Context) (int, error)
	Refresh(ctx context.Context) error
	Status() feed.Status
}

type LiveFeed interface {
	Snapshot() livefeed.Snapshot
	Retry(ctx context.Context) error
}

type Backend interface {
	ListAnnouncements(ctx context.Context) ([]models.Announcement, error)
	CreateAnnouncement(ctx context.Context, content string) (models.Announcement, error)
	UpdateAnnouncement(ctx context.Context, id, content string) (models.Announcement, error)
	DeleteAnnouncement(ctx context.Context, id string) error
	SubmitSOS(ctx context.Context, r sos.Report) (map[string]any, error)
}

type Handler struct {
	feed        FeedService
	live        LiveFeed
	backend     Backend
	broadcaster *stream.Broadcaster
}

// NewHandler wires the routes to their services. live may be nil when the
// live feed is disabled.
func NewHandler(feedSvc FeedService, live LiveFeed, backendClient Backend, broadcaster *stream.Broadcaster) *Handler {
	return &Handler{
		feed:        feedSvc,
		live:        live,
		backend:     backendClient,
		broadcaster: broadcaster,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, writeLimit gin.HandlerFunc) {
	if writeLimit == nil {
		writeLimit = func(c *gin.Context) { c.Next() }
	}

	r.GET("/health", h.health)

	api := r.Group("/api")
	api.GET("/disasters", h.getDisasters)
	api.GET("/disasters/stream", h.streamDisasters)
	api.GET("/disasters/:id", h.getDisaster)
	api.POST("/disasters/refresh", writeLimit, h.refreshDisasters)

	api.GET("/updates", h.getUpdates)
	api.POST("/updates/retry", writeLimit, h.retryUpdates)

	api.GET("/announcements", h.listAnnouncements)
	api.POST("/announcements", writeLimit, h.createAnnouncement)
	api.PUT("/announcements/:id", writeLimit, h.updateAnnouncement)
	api.DELETE("/announcements/:id", writeLimit, h.deleteAnnouncement)

	api.POST("/sos", writeLimit, h.submitSOS)
	api.GET("/sos/types", h.sosTypes)

	api.GET("/contacts", h.listContacts)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getDisasters(c *gin.Context) {
	window, err := feed.ParseTimeWindow(c.Query("window"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	typ := c.DefaultQuery("type", feed.TypeAll)

	limit := defaultLimit
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= maxLimit {
			limit = lim
		}
	}

	events, err := h.feed.Query(c.Request.Context(), window, typ)
	if err != nil {
		slog.Error("error querying disasters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch disasters"})
		return
	}
	total, err := h.feed.Total(c.Request.Context())
	if err != nil {
		slog.Error("error counting disasters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch disasters"})
		return
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}

	if strings.EqualFold(c.Query("format"), "geojson") {
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, toGeoJSON(events))
		return
	}

	st := h.feed.Status()
	c.JSON(http.StatusOK, gin.H{
		"disasters":    events,
		"total":        total,
		"showing":      len(events),
		"window":       window,
		"type":         typ,
		"last_updated": st.LastUpdated,
		"loading":      st.Loading,
		"error":        st.Error,
	})
}

func (h *Handler) getDisaster(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	event, err := h.feed.Get(c.Request.Context(), id)
	if err != nil {
		slog.Error("error getting disaster", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch disaster"})
		return
	}
	if event == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "disaster not found"})
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *Handler) refreshDisasters(c *gin.Context) {
	err := h.feed.Refresh(c.Request.Context())
	switch {
	case errors.Is(err, feed.ErrStaleResponse):
		c.JSON(http.StatusAccepted, gin.H{"status": "superseded", "feed": h.feed.Status()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "feed": h.feed.Status()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "refreshed", "feed": h.feed.Status()})
	}
}

// streamDisasters sends newly seen events as server-sent events until the
// client disconnects or the broadcaster closes.
func (h *Handler) streamDisasters(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream unavailable"})
		return
	}

	filter := stream.Filter{Type: c.Query("type")}
	if s := c.Query("min_severity"); s != "" {
		sev := models.Severity(strings.ToLower(s))
		if !sev.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid min_severity"})
			return
		}
		filter.MinSeverity = sev
	}

	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)
	slog.Info("client subscribed to disaster stream", "subscriber_id", id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Info("client disconnected from disaster stream", "subscriber_id", id)
			return
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			c.Writer.Flush()
		case e, ok := <-ch:
			if !ok {
				return
			}
			if !filter.Matches(e) {
				continue
			}
			c.SSEvent("disaster", e)
			c.Writer.Flush()
		}
	}
}

func (h *Handler) getUpdates(c *gin.Context) {
	if h.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed disabled"})
		return
	}
	snap := h.live.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"updates":      livefeed.NewViews(snap.Updates),
		"error":        snap.Error,
		"loading":      snap.Loading,
		"last_updated": snap.LastUpdated,
	})
}

func (h *Handler) retryUpdates(c *gin.Context) {
	if h.live == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed disabled"})
		return
	}
	if err := h.live.Retry(c.Request.Context()); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, livefeed.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": livefeed.ErrorMessage})
		return
	}
	h.getUpdates(c)
}

func (h *Handler) listAnnouncements(c *gin.Context) {
	list, err := h.backend.ListAnnouncements(c.Request.Context())
	if err != nil {
		slog.Error("error loading announcements", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load announcements. Please try again later."})
		return
	}
	c.JSON(http.StatusOK, list)
}

type contentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) createAnnouncement(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	a, err := h.backend.CreateAnnouncement(c.Request.Context(), req.Content)
	if err != nil {
		writeBackendError(c, err, "Failed to create announcement")
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handler) updateAnnouncement(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	a, err := h.backend.UpdateAnnouncement(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		writeBackendError(c, err, "Failed to update announcement")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) deleteAnnouncement(c *gin.Context) {
	if err := h.backend.DeleteAnnouncement(c.Request.Context(), c.Param("id")); err != nil {
		writeBackendError(c, err, "Failed to delete announcement")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submitSOS(c *gin.Context) {
	var report sos.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.backend.SubmitSOS(c.Request.Context(), report)
	if err != nil {
		writeBackendError(c, err, "Submission failed")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) sosTypes(c *gin.Context) {
	c.JSON(http.StatusOK, sos.DisasterTypes)
}

func (h *Handler) listContacts(c *gin.Context) {
	c.JSON(http.StatusOK, contacts.Search(c.Query("q")))
}

// writeBackendError maps validation failures to 400, backend 4xx answers to
// their own status and everything else to 502.
func writeBackendError(c *gin.Context, err error, fallback string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrEmptyContent),
		errors.Is(err, sos.ErrDisasterTypeRequired),
		errors.Is(err, sos.ErrLocationRequired),
		errors.Is(err, sos.ErrInvalidCoordinates):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
	default:
		slog.Error(fallback, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	}
}
