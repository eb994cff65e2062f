package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campusevents/internal/auth"
	"campusevents/internal/domain"
	"campusevents/internal/reports"
)

func (a *API) adminDashboard(c *gin.Context) {
	dash, err := a.reports.AdminDashboard(c.Request.Context(), auth.IdentityFrom(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (a *API) studentDashboard(c *gin.Context) {
	dash, err := a.reports.StudentDashboard(c.Request.Context(), auth.IdentityFrom(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (a *API) leaderboard(c *gin.Context) {
	entries, err := a.reports.Leaderboard(c.Request.Context(), auth.IdentityFrom(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

func (a *API) eventReport(c *gin.Context) {
	filter := reports.Filter{EventType: c.Query("event_type")}
	if filter.EventType == "all" {
		filter.EventType = ""
	}

	var err error
	if filter.From, err = parseDateParam(c.Query("start_date")); err != nil {
		a.fail(c, fmt.Errorf("invalid start_date: %w", domain.ErrValidation))
		return
	}
	if filter.To, err = parseDateParam(c.Query("end_date")); err != nil {
		a.fail(c, fmt.Errorf("invalid end_date: %w", domain.ErrValidation))
		return
	}

	rows, err := a.reports.EventReport(c.Request.Context(), auth.IdentityFrom(c), filter)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": rows})
}

// parseDateParam accepts RFC3339 timestamps or plain dates.
func parseDateParam(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		t, err = time.Parse("2006-01-02", v)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
