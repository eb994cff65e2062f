package api

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campusevents/internal/auth"
	"campusevents/internal/certificate"
	"campusevents/internal/domain"
)

func (a *API) register(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	reg, err := a.ledger.Register(c.Request.Context(), auth.IdentityFrom(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": reg.Status, "registered_at": reg.RegisteredAt})
}

func (a *API) cancelRegistration(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	if err := a.ledger.Cancel(c.Request.Context(), auth.IdentityFrom(c), id); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "registration cancelled"})
}

func (a *API) checkIn(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	att, err := a.ledger.CheckIn(c.Request.Context(), auth.IdentityFrom(c), id)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "checked in", "checked_in_at": att.CheckedInAt})
}

func (a *API) submitFeedback(c *gin.Context) {
	id, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	var req struct {
		Rating  int    `json:"rating" binding:"required"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := a.ledger.SubmitFeedback(c.Request.Context(), auth.IdentityFrom(c), id, req.Rating, req.Comment); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "feedback submitted"})
}

func (a *API) certificate(c *gin.Context) {
	evID, err := eventID(c)
	if err != nil {
		a.fail(c, err)
		return
	}
	studentID, err := strconv.ParseInt(c.Param("studentID"), 10, 64)
	if err != nil {
		a.fail(c, fmt.Errorf("invalid student id: %w", domain.ErrValidation))
		return
	}

	caller := auth.IdentityFrom(c)
	event, err := a.catalog.Get(c.Request.Context(), caller, evID)
	if err != nil {
		a.fail(c, err)
		return
	}

	att, err := a.ledger.AttendanceFor(c.Request.Context(), studentID, evID)
	if err != nil {
		a.fail(c, err)
		return
	}
	if att == nil {
		a.fail(c, fmt.Errorf("student did not attend this event: %w", domain.ErrValidation))
		return
	}

	student, err := a.identity.Student(c.Request.Context(), studentID)
	if err != nil {
		a.fail(c, err)
		return
	}

	pdf, err := certificate.Render(certificate.Details{
		StudentName: student.Name,
		EventTitle:  event.Title,
		EventDate:   event.StartDate,
		IssuedAt:    time.Now().UTC(),
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"certificate": base64.StdEncoding.EncodeToString(pdf)})
}
