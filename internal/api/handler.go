package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/cuya-bot/internal/dialogue"
	"github.com/mr1hm/cuya-bot/internal/repository"
)

type Handler struct {
	repo  repository.ReportRepository
	store *dialogue.Store
}

func NewHandler(repo repository.ReportRepository, store *dialogue.Store) *Handler {
	return &Handler{
		repo:  repo,
		store: store,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.SetHTMLTemplate(pageTemplates)

	r.GET("/", h.index)
	r.POST("/chat", h.chat)
	r.GET("/reports", h.reportsPage)
	r.POST("/delete/:id", h.deleteReport)
	r.GET("/api/reports", h.listReports)
	r.DELETE("/api/reports/:id", h.deleteReport)
	r.GET("/health", h.health)
}

type chatRequest struct {
	Message   *string `json:"message"`
	SessionID string  `json:"session_id"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
	ReportID  int64  `json:"report_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must be JSON with a message field",
		})
		return
	}
	if req.Message == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "message is required",
		})
		return
	}

	sessionID, err := resolveSessionID(c, req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	reply, err := h.store.Handle(c.Request.Context(), sessionID, *req.Message)
	if errors.Is(err, dialogue.ErrTooManySessions) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "too many active conversations, try again later",
		})
		return
	}

	resp := chatResponse{
		Reply:     reply.Text,
		SessionID: sessionID,
	}
	if reply.Report != nil {
		resp.ReportID = reply.Report.ID
	}

	if err != nil {
		slog.Error("chat turn failed", "session_id", sessionID, "error", err)
		resp.Error = "failed to process message"
		if errors.Is(err, dialogue.ErrReportNotSaved) {
			resp.Error = "report not saved"
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listReports(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	reports, err := h.repo.ListReports(c.Request.Context(), filter)
	if err != nil {
		slog.Error("error listing reports", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch reports",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

func (h *Handler) reportsPage(c *gin.Context) {
	reports, err := h.repo.ListReports(c.Request.Context(), repository.Filter{})
	if err != nil {
		slog.Error("error listing reports", "error", err)
		c.String(http.StatusInternalServerError, "failed to fetch reports")
		return
	}

	c.HTML(http.StatusOK, "reports.html", gin.H{
		"Reports": reports,
	})
}

func (h *Handler) deleteReport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid report id",
		})
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		slog.Error("error deleting report", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to delete report",
		})
		return
	}

	slog.Info("report deleted", "id", id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", nil)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.store.Len(),
	})
}

func parseFilter(c *gin.Context) (repository.Filter, bool) {
	var filter repository.Filter

	if l := c.Query("limit"); l != "" {
		lim, err := strconv.Atoi(l)
		if err != nil || lim < 1 || lim > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return filter, false
		}
		filter.Limit = lim
	}
	if o := c.Query("offset"); o != "" {
		off, err := strconv.Atoi(o)
		if err != nil || off < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return filter, false
		}
		filter.Offset = off
	}

	return filter, true
}
