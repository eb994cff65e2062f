package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campusevents/internal/auth"
	"campusevents/internal/catalog"
	"campusevents/internal/domain"
)

func eventID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid event id: %w", domain.ErrValidation)
	}
	return id, nil
}

func (a *API) listEvents(c *gin.Context) {
	events, err := a.catalog.List(c.Request.Context(), auth.IdentityFrom(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	if events == nil {
		events = []catalog.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (a *API) getEvent(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	event, err := a.catalog.Get(c.Request.Context(), auth.IdentityFrom(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (a *API) createEvent(c *gin.Context) {
	var req struct {
		Title                string     `json:"title" binding:"required"`
		Description          string     `json:"description"`
		EventType            string     `json:"event_type" binding:"required"`
		StartDate            time.Time  `json:"start_date" binding:"required"`
		EndDate              time.Time  `json:"end_date" binding:"required"`
		Location             string     `json:"location"`
		MaxParticipants      int        `json:"max_participants" binding:"required"`
		RegistrationDeadline *time.Time `json:"registration_deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := a.catalog.Create(c.Request.Context(), auth.IdentityFrom(c), catalog.Draft{
		Title:                req.Title,
		Description:          req.Description,
		EventType:            req.EventType,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Location:             req.Location,
		MaxParticipants:      req.MaxParticipants,
		RegistrationDeadline: req.RegistrationDeadline,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"event_id": id, "message": "event created"})
}

func (a *API) updateEvent(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	var req struct {
		Title                *string    `json:"title"`
		Description          *string    `json:"description"`
		EventType            *string    `json:"event_type"`
		StartDate            *time.Time `json:"start_date"`
		EndDate              *time.Time `json:"end_date"`
		Location             *string    `json:"location"`
		MaxParticipants      *int       `json:"max_participants"`
		RegistrationDeadline *time.Time `json:"registration_deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = a.catalog.Update(c.Request.Context(), auth.IdentityFrom(c), id, catalog.Patch{
		Title:                req.Title,
		Description:          req.Description,
		EventType:            req.EventType,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		Location:             req.Location,
		MaxParticipants:      req.MaxParticipants,
		RegistrationDeadline: req.RegistrationDeadline,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event updated"})
}

func (a *API) retireEvent(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.catalog.Retire(c.Request.Context(), auth.IdentityFrom(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event retired"})
}
