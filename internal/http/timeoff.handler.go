package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"go.uber.org/zap"
)

func GetTimeOffRequests(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			return
		}
		if rawID := c.Query("id"); rawID != "" {
			getTimeOffRequest(ctx, c, user, rawID)
			return
		}

		employeeID, err := uuidParam(c.Query("employeeId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employeeId"})
			return
		}

		filter := services.TimeOffFilter(c.DefaultQuery("type", string(services.TimeOffFilterAll)))
		if filter == services.TimeOffFilterEmployee {
			if employeeID == uuid.Nil {
				employeeID = user.ID
			}
			if !utils.CanViewEmployee(user, employeeID) {
				c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
				return
			}
		} else if !utils.IsHROrAdmin(user) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		requests, err := ctx.TimeOff.ListRequests(c.Request.Context(), filter, employeeID)
		if err != nil {
			respondError(ctx, c, err, "Failed to fetch time-off requests")
			return
		}

		c.JSON(http.StatusOK, gin.H{"requests": requests})
	}
}

func getTimeOffRequest(ctx *appcontext.Context, c *gin.Context, user *entity.UserMetadata, rawID string) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return
	}

	request, err := ctx.TimeOff.GetRequest(c.Request.Context(), id)
	if err != nil {
		respondError(ctx, c, err, "Failed to fetch time-off request")
		return
	}
	if !utils.CanViewEmployee(user, request.EmployeeID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	c.JSON(http.StatusOK, request)
}

func GetTimeOffBalance(ctx *appcontext.Context) gin.HandlerFunc {
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

		balance, err := ctx.TimeOff.Balance(c.Request.Context(), employeeID)
		if err != nil {
			respondError(ctx, c, err, "Failed to compute time-off balance")
			return
		}

		c.JSON(http.StatusOK, balance)
	}
}

func CreateTimeOffRequest(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type createTimeOffRequest struct {
			EmployeeID     string `json:"employeeId"`
			LeaveType      string `json:"leaveType"`
			OtherLeaveType string `json:"otherLeaveType"`
			StartDate      string `json:"startDate"`
			EndDate        string `json:"endDate"`
			Comments       string `json:"comments"`
		}

		var request createTimeOffRequest
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
		if employeeID != user.ID && !utils.IsHROrAdmin(user) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		startDate, err := parseDate(request.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startDate"})
			return
		}
		endDate, err := parseDate(request.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endDate"})
			return
		}

		created, err := ctx.TimeOff.CreateRequest(c.Request.Context(), employeeID, services.TimeOffInput{
			LeaveType:      entity.LeaveType(request.LeaveType),
			OtherLeaveType: request.OtherLeaveType,
			StartDate:      startDate,
			EndDate:        endDate,
			Comments:       request.Comments,
		})
		if err != nil {
			respondError(ctx, c, err, "Failed to create time-off request")
			return
		}

		c.JSON(http.StatusCreated, created)
	}
}

func UpdateTimeOffStatus(ctx *appcontext.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		type updateStatusRequest struct {
			ID     string `json:"id" binding:"required"`
			Status string `json:"status" binding:"required"`
		}

		var request updateStatusRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			ctx.Logger.Debug("Failed to bind request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "id and status are required"})
			return
		}

		id, err := uuidParam(request.ID)
		if err != nil || id == uuid.Nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
			return
		}

		updated, err := ctx.TimeOff.UpdateStatus(c.Request.Context(), id, entity.TimeOffStatus(request.Status))
		if err != nil {
			respondError(ctx, c, err, "Failed to update time-off request")
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}
