package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campusevents/internal/auth"
	"campusevents/internal/domain"
	"campusevents/internal/identity"
)

func (a *API) adminLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, admin, err := a.identity.AuthenticateAdmin(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		a.fail(c, err)
		return
	}

	token, exp, err := auth.Issue(id, a.tokens.Issuer, a.tokens.SigningKey, a.tokens.AccessTTL)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"user": gin.H{
			"id":         admin.ID,
			"username":   admin.Username,
			"name":       admin.Name,
			"college_id": admin.CollegeID,
			"role":       domain.RoleAdmin,
		},
	})
}

func (a *API) studentLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, student, err := a.identity.AuthenticateStudent(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(c, err)
		return
	}

	token, exp, err := auth.Issue(id, a.tokens.Issuer, a.tokens.SigningKey, a.tokens.AccessTTL)
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"expires_at":   exp.Unix(),
		"user": gin.H{
			"id":         student.ID,
			"student_id": student.StudentID,
			"email":      student.Email,
			"name":       student.Name,
			"college_id": student.CollegeID,
			"role":       domain.RoleStudent,
		},
	})
}

func (a *API) studentRegister(c *gin.Context) {
	var req struct {
		StudentID string `json:"student_id" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
		Name      string `json:"name" binding:"required"`
		Phone     string `json:"phone"`
		CollegeID int64  `json:"college_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := a.identity.RegisterStudent(c.Request.Context(), identity.RegisterProfile{
		StudentID: req.StudentID,
		Email:     req.Email,
		Password:  req.Password,
		Name:      req.Name,
		Phone:     req.Phone,
		CollegeID: req.CollegeID,
	})
	if err != nil {
		a.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "student registered"})
}
