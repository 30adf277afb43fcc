package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/service/notification"
	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
	"github.com/jwalitptl/devlink-notifier/pkg/httputil"
)

// Content kinds that fan out to followers.
const (
	KindProject  = "project"
	KindBlogPost = "blog_post"
)

type Notifier interface {
	NotifyFollowers(ctx context.Context, userID uuid.UUID, render notification.Render) (*model.BatchResult, error)
	CheckAndNotifyMilestone(ctx context.Context, userID uuid.UUID, metric model.MetricType, count int) (bool, error)
}

type UserGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type MilestoneRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Metric string `json:"metric" binding:"required,oneof=followers profileViews projects posts"`
	Count  int    `json:"count" binding:"gte=0"`
}

type FollowersRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Kind   string `json:"kind" binding:"required,oneof=project blog_post"`
	Title  string `json:"title" binding:"required,max=200"`
	URL    string `json:"url" binding:"required,url"`
}

// Handler exposes the event-driven helpers to the main application.
type Handler struct {
	notifier  Notifier
	users     UserGetter
	templates *email.Templates
}

func NewHandler(notifier Notifier, users UserGetter, templates *email.Templates) *Handler {
	return &Handler{
		notifier:  notifier,
		users:     users,
		templates: templates,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("/milestones", h.CheckMilestone)
		notifications.POST("/followers", h.NotifyFollowers)
	}
}

func (h *Handler) CheckMilestone(c *gin.Context) {
	var req MilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	userID := uuid.MustParse(req.UserID)
	sent, err := h.notifier.CheckAndNotifyMilestone(c.Request.Context(), userID, model.MetricType(req.Metric), req.Count)
	if err != nil {
		if errors.Is(err, notification.ErrUnknownMetric) {
			httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
			return
		}
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, gin.H{"sent": sent})
}

func (h *Handler) NotifyFollowers(c *gin.Context) {
	var req FollowersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	userID := uuid.MustParse(req.UserID)
	author, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, fmt.Errorf("load author %s: %w", userID, err))
		return
	}

	var authorName string
	if author.HasName() {
		authorName = author.DisplayName()
	}
	render := func(r model.Recipient) email.Content {
		if req.Kind == KindBlogPost {
			return h.templates.NewBlogPost(r.Name, authorName, req.Title, req.URL)
		}
		return h.templates.NewProject(r.Name, authorName, req.Title, req.URL)
	}

	result, err := h.notifier.NotifyFollowers(c.Request.Context(), userID, render)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}
