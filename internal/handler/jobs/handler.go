package jobs

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	jobsvc "github.com/jwalitptl/devlink-notifier/internal/service/jobs"
	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
	"github.com/jwalitptl/devlink-notifier/pkg/httputil"
)

type Runner interface {
	Names() []string
	Run(ctx context.Context, name string) (*model.JobResult, error)
}

// Handler lets an external scheduler trigger jobs over HTTP.
type Handler struct {
	runner Runner
}

func NewHandler(runner Runner) *Handler {
	return &Handler{runner: runner}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	jobs := r.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.POST("/:name/run", h.RunJob)
	}
}

func (h *Handler) ListJobs(c *gin.Context) {
	httputil.RespondWithSuccess(c, gin.H{"jobs": h.runner.Names()})
}

func (h *Handler) RunJob(c *gin.Context) {
	name := c.Param("name")

	result, err := h.runner.Run(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, jobsvc.ErrUnknownJob) {
			httputil.RespondWithError(c, apperrors.NotFound("job", err))
			return
		}
		if errors.Is(err, jobsvc.ErrJobRunning) {
			httputil.RespondWithError(c, apperrors.Conflict("job already running", err))
			return
		}
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithData(c, http.StatusOK, result.Success, result)
}
