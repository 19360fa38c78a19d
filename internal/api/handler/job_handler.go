package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/jobdetail"
	"github.com/gin-gonic/gin"
)

const flashFavouriteFailed = "favourite_failed"

// ShowJobPage handles GET /jobs/:job_id
// Renders the job detail page
func (h *JobHandler) ShowJobPage(c *gin.Context) {
	jobID := c.Param("job_id")
	user := CurrentUser(c)

	h.logger.Debug("ShowJobPage called",
		slog.String("job_id", jobID),
		slog.Bool("authenticated", user.IsAuthenticated),
	)

	v, _ := h.newView(user, jobID)
	defer v.Unmount()
	h.mountAndWait(c.Request.Context(), v)

	page, err := v.Render()
	if err != nil {
		h.logger.Error("Failed to render job page",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.String(http.StatusInternalServerError, "Failed to render job details")
		return
	}

	c.HTML(pageStatus(page), "job_details.html", gin.H{
		"Page":  page,
		"Flash": flashMessage(c.Query("flash")),
	})
}

// GetJob handles GET /api/v1/jobs/:job_id
// Returns the rendered page model as JSON
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	v, _ := h.newView(CurrentUser(c), jobID)
	defer v.Unmount()
	h.mountAndWait(c.Request.Context(), v)

	page, err := v.Render()
	if err != nil {
		h.logger.Error("Failed to render job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to render job",
		})
		return
	}

	c.JSON(pageStatus(page), page)
}

// ToggleFavourite handles POST /api/v1/jobs/:job_id/favourite
// Adds or removes the job from the viewer's favourites
func (h *JobHandler) ToggleFavourite(c *gin.Context) {
	jobID := c.Param("job_id")
	user := CurrentUser(c)

	v, st := h.newView(user, jobID)
	defer v.Unmount()
	h.mountAndWait(c.Request.Context(), v)

	page, err := v.Render()
	if err != nil || page.Kind != jobdetail.PageDetail {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	if err := v.ToggleFavourite(c.Request.Context()); err != nil {
		status := toggleErrorStatus(err)
		c.JSON(status, gin.H{
			"error": "Failed to update favourites",
		})
		return
	}

	c.JSON(http.StatusOK, dto.FavouriteResponse{
		JobID:       jobID,
		IsFavourite: st.State().CurrentJob.IsFavourite,
	})
}

// ToggleFavouriteForm handles POST /jobs/:job_id/favourite
// Form fallback for browsers without the live session
func (h *JobHandler) ToggleFavouriteForm(c *gin.Context) {
	jobID := c.Param("job_id")
	user := CurrentUser(c)
	target := "/jobs/" + url.PathEscape(jobID)

	if !user.IsAuthenticated {
		c.Redirect(http.StatusSeeOther, target)
		return
	}

	v, _ := h.newView(user, jobID)
	defer v.Unmount()
	h.mountAndWait(c.Request.Context(), v)

	if page, err := v.Render(); err != nil || page.Kind != jobdetail.PageDetail {
		c.Redirect(http.StatusSeeOther, target)
		return
	}

	if err := v.ToggleFavourite(c.Request.Context()); err != nil {
		c.Redirect(http.StatusSeeOther, target+"?flash="+flashFavouriteFailed)
		return
	}

	c.Redirect(http.StatusSeeOther, target)
}

func pageStatus(page jobdetail.Page) int {
	if page.Kind == jobdetail.PageNotFound {
		return http.StatusNotFound
	}
	return http.StatusOK
}

func toggleErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrToggleInFlight):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func flashMessage(code string) string {
	switch code {
	case flashFavouriteFailed:
		return "We couldn't update your favourites. Please try again."
	default:
		return ""
	}
}
