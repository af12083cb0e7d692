package handlers

import (
	"net/http"
	"time"

	"biotrack.com.au/biotrack/core"
	"biotrack.com.au/biotrack/web/common"
	"github.com/gin-gonic/gin"
)

type AttendanceResponse struct {
	EmployeeCode string                `json:"employeeCode"`
	Date         common.DateOnly       `json:"date"`
	Status       string                `json:"status"`
	CheckInTime  *common.LocalDateTime `json:"checkInTime"`
	CheckOutTime *common.LocalDateTime `json:"checkOutTime"`
	WorkHours    float64               `json:"workHours"`
	Notes        string                `json:"notes"`
}

// GetAttendance looks up one day record by employee code and date.
func (h *Handler) GetAttendance(c *gin.Context) {
	code := c.Query("employee")
	if code == "" {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("employee query parameter is required"))
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.NewErrorResponse("date must be YYYY-MM-DD"))
		return
	}

	emp, err := h.Gateway.FindEmployeeByCode(code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	if emp == nil {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("employee not found"))
		return
	}

	rec, err := h.Gateway.FindAttendance(emp.EmployeeID, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.NewErrorResponse(err.Error()))
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("no attendance record for that day"))
		return
	}

	c.JSON(http.StatusOK, common.NewSuccessResponse(toAttendanceResponse(code, rec)))
}

func toAttendanceResponse(code string, rec *core.AttendanceRecord) AttendanceResponse {
	resp := AttendanceResponse{
		EmployeeCode: code,
		Date:         common.DateOnly{Time: rec.Date},
		Status:       rec.Status,
		WorkHours:    rec.WorkHours,
		Notes:        rec.Notes,
	}
	if rec.CheckInTime != nil {
		resp.CheckInTime = &common.LocalDateTime{Time: *rec.CheckInTime}
	}
	if rec.CheckOutTime != nil {
		resp.CheckOutTime = &common.LocalDateTime{Time: *rec.CheckOutTime}
	}
	return resp
}
