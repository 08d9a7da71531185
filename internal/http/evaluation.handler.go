package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"go.uber.org/zap"
)

// GetEvaluations returns the latest evaluation and its reviewers for a year, or the
// employee's full history when no year is given.
func GetEvaluations(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}

		employeeID, err := uuidParam(c.Query("employeeId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employeeId"})
			return
		}
		if employeeID == uuid.Nil {
			employeeID = user.ID
		}
		if !utils.CanViewEmployee(user, employeeID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		yearParam := c.Query("year")
		if yearParam == "" {
			history, err := ctx.Evaluations.History(c.Request.Context(), employeeID)
			if err != nil {
				respondError(ctx, c, err, "Failed to fetch evaluation history")
				return
			}
			c.JSON(http.StatusOK, gin.H{"history": history})
			return
		}

		year, err := strconv.Atoi(yearParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
			return
		}

		summary, err := ctx.Evaluations.LatestWithReviewers(c.Request.Context(), employeeID, year)
		if err != nil {
			respondError(ctx, c, err, "Failed to fetch evaluation")
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

func SubmitEvaluation(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type submitEvaluationRequest struct {
			services.EvaluationContent
			EmployeeID string `json:"employeeId"`
			Year       int    `json:"year"`
		}

		var request submitEvaluationRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		user, ok := currentUser(c)
		if !ok {
			return
		}

		employeeID, err := uuidParam(request.EmployeeID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employeeId"})
			return
		}
		if employeeID == uuid.Nil {
			employeeID = user.ID
		}

		record, err := ctx.Evaluations.Submit(c.Request.Context(), request.EvaluationContent, services.EvaluationMeta{
			EmployeeID:  employeeID,
			SubmitterID: user.ID,
			Year:        request.Year,
		})
		if err != nil {
			respondError(ctx, c, err, "Failed to submit evaluation")
			return
		}

		status := http.StatusOK
		if record.Created {
			status = http.StatusCreated
		}
		c.JSON(status, record)
	}
}

func UpdateEvaluation(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type updateEvaluationRequest struct {
			services.EvaluationContent
			ID string `json:"id"`
		}

		var request updateEvaluationRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to bind request"})
			return
		}

		id, err := uuidParam(request.ID)
		if err != nil || id == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}

		user, ok := currentUser(c)
		if !ok {
			return
		}

		record, err := ctx.Evaluations.Update(c.Request.Context(), id, request.EvaluationContent, user)
		if err != nil {
			respondError(ctx, c, err, "Failed to update evaluation")
			return
		}

		c.JSON(http.StatusOK, record)
	}
}
