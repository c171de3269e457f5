package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"newsposter/internal/domain"
	"newsposter/internal/infrastructure/storage"
	"newsposter/internal/ports"
	"newsposter/internal/usecase"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ConfigAdmin is the write side of posting-profile management needed by the
// admin endpoints.
type ConfigAdmin interface {
	ports.ConfigStore
	List(ctx context.Context) ([]domain.PostingConfig, error)
	Create(ctx context.Context, cfg domain.PostingConfig) (*domain.PostingConfig, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

// Handler exposes the manual trigger plus the profile/audit admin surface.
type Handler struct {
	orchestrator *usecase.Orchestrator
	configs      ConfigAdmin
	posts        ports.PostLogStore
	verifier     ports.PostingClient
	logger       *slog.Logger
}

func NewHandler(orchestrator *usecase.Orchestrator, configs ConfigAdmin, posts ports.PostLogStore, verifier ports.PostingClient, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		configs:      configs,
		posts:        posts,
		verifier:     verifier,
		logger:       logger,
	}
}

// Register mounts all routes on the given engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", h.health)

	api := r.Group("/api")
	api.POST("/run/:id", h.runConfig)
	api.GET("/configs", h.listConfigs)
	api.POST("/configs", h.createConfig)
	api.POST("/configs/:id/toggle", h.toggleConfig)
	api.POST("/configs/:id/validate", h.validateConfig)
	api.DELETE("/configs/:id", h.deleteConfig)
	api.GET("/posts", h.listPosts)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}

func (h *Handler) runConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.orchestrator.RunConfig(c.Request.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		} else if errors.Is(err, usecase.ErrPostTooLong) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"postId": result.PostID,
		"record": recordView(result.Record),
	})
}

type createConfigRequest struct {
	UserID                  int64  `json:"userId" binding:"required"`
	APIKey                  string `json:"apiKey" binding:"required"`
	APISecret               string `json:"apiSecret" binding:"required"`
	AccessToken             string `json:"accessToken" binding:"required"`
	AccessTokenSecret       string `json:"accessTokenSecret" binding:"required"`
	IsActive                *bool  `json:"isActive"`
	ScheduleIntervalMinutes int    `json:"scheduleIntervalMinutes"`
}

func (h *Handler) createConfig(c *gin.Context) {
	var req createConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := domain.PostingConfig{
		UserID: req.UserID,
		Credentials: domain.Credentials{
			APIKey:            req.APIKey,
			APISecret:         req.APISecret,
			AccessToken:       req.AccessToken,
			AccessTokenSecret: req.AccessTokenSecret,
		},
		IsActive:                true,
		ScheduleIntervalMinutes: req.ScheduleIntervalMinutes,
	}
	if req.IsActive != nil {
		cfg.IsActive = *req.IsActive
	}

	stored, err := h.configs.Create(c.Request.Context(), cfg)
	if err != nil {
		h.logger.Error("create config failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create config"})
		return
	}

	c.JSON(http.StatusCreated, configView(*stored))
}

func (h *Handler) listConfigs(c *gin.Context) {
	configs, err := h.configs.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list configs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list configs"})
		return
	}

	views := make([]gin.H, 0, len(configs))
	for _, cfg := range configs {
		views = append(views, configView(cfg))
	}
	c.JSON(http.StatusOK, gin.H{"configs": views})
}

func (h *Handler) toggleConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	cfg, err := h.configs.Get(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	next := !cfg.IsActive
	if err := h.configs.SetActive(c.Request.Context(), id, next); err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "isActive": next})
}

func (h *Handler) validateConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	cfg, err := h.configs.Get(c.Request.Context(), id)
	if err != nil {
		h.respondStoreError(c, err)
		return
	}

	username, err := h.verifier.VerifyCredentials(c.Request.Context(), cfg.Credentials)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"id": id, "valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "valid": true, "username": username})
}

func (h *Handler) deleteConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.configs.Delete(c.Request.Context(), id); err != nil {
		h.respondStoreError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) listPosts(c *gin.Context) {
	configID, err := strconv.ParseInt(c.Query("config_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "config_id is required"})
		return
	}

	limit := queryInt(c, "limit", defaultPageLimit)
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	records, err := h.posts.ListByConfig(c.Request.Context(), configID, limit, offset)
	if err != nil {
		h.logger.Error("list posts failed", "configId", configID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list posts"})
		return
	}

	total, err := h.posts.CountByConfig(c.Request.Context(), configID)
	if err != nil {
		h.logger.Error("count posts failed", "configId", configID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list posts"})
		return
	}

	views := make([]gin.H, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView(rec))
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":  views,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "config not found"})
		return
	}
	h.logger.Error("config store error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// configView never exposes credential material.
func configView(cfg domain.PostingConfig) gin.H {
	return gin.H{
		"id":                      cfg.ID,
		"userId":                  cfg.UserID,
		"isActive":                cfg.IsActive,
		"scheduleIntervalMinutes": cfg.ScheduleIntervalMinutes,
		"createdAt":               cfg.CreatedAt,
		"updatedAt":               cfg.UpdatedAt,
	}
}

func recordView(rec domain.PostedRecord) gin.H {
	return gin.H{
		"id":          rec.ID,
		"configId":    rec.ConfigID,
		"postText":    rec.PostText,
		"imageUrl":    rec.ImageURL,
		"sourceUrl":   rec.SourceURL,
		"sourceTitle": rec.SourceTitle,
		"sourceMedia": rec.SourceMedia,
		"postedAt":    rec.PostedAt,
	}
}
